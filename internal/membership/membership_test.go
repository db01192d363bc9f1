package membership

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alwanly/service-feed-ingest/pkg/logger"
)

type fakeEnsemble struct {
	mu         sync.Mutex
	nodes      map[string]bool // path -> ephemeral
	rootRace   bool
	existsErr  error
	closeCalls int
}

func newFakeEnsemble() *fakeEnsemble {
	return &fakeEnsemble{nodes: make(map[string]bool)}
}

func (f *fakeEnsemble) Exists(path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.nodes[path]
	return ok, nil
}

func (f *fakeEnsemble) CreatePersistent(path string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rootRace {
		// another member created it between Exists and Create
		f.nodes[path] = false
		return ErrNodeExists
	}
	if _, ok := f.nodes[path]; ok {
		return ErrNodeExists
	}
	f.nodes[path] = false
	return nil
}

func (f *fakeEnsemble) CreateEphemeral(path string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.nodes[path]; ok {
		return ErrNodeExists
	}
	f.nodes[path] = true
	return nil
}

func (f *fakeEnsemble) Close() { f.closeCalls++ }

type recordingStrategy struct {
	nodes []Node
}

func (s *recordingStrategy) Registered(_ context.Context, node Node, _ Ensemble) error {
	s.nodes = append(s.nodes, node)
	return nil
}

func TestRegister_CreatesRootAndEphemeralChild(t *testing.T) {
	ens := newFakeEnsemble()
	strategy := &recordingStrategy{}
	c := NewCoordinator(ens, logger.NewNop(), WithStrategy(strategy))
	c.newID = func() uint64 { return 42 }

	node, err := c.Register(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(42), node.ID)
	assert.Equal(t, "/kactusworkers/42", node.Path)
	assert.False(t, ens.nodes["/kactusworkers"], "root must be persistent")
	assert.True(t, ens.nodes["/kactusworkers/42"], "child must be ephemeral")
	assert.Equal(t, []Node{node}, strategy.nodes)
}

func TestRegister_ExistingRootIsReused(t *testing.T) {
	ens := newFakeEnsemble()
	ens.nodes["/workers"] = false

	c := NewCoordinator(ens, logger.NewNop(), WithRoot("/workers"))
	node, err := c.Register(context.Background())
	require.NoError(t, err)
	assert.True(t, ens.nodes[node.Path])
}

func TestRegister_ConcurrentRootCreateIsSuccess(t *testing.T) {
	ens := newFakeEnsemble()
	ens.rootRace = true

	_, err := NewCoordinator(ens, logger.NewNop()).Register(context.Background())
	require.NoError(t, err)
}

func TestRegister_TwoMembersGetDistinctNodes(t *testing.T) {
	ens := newFakeEnsemble()

	a, err := NewCoordinator(ens, logger.NewNop()).Register(context.Background())
	require.NoError(t, err)
	b, err := NewCoordinator(ens, logger.NewNop()).Register(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, a.Path, b.Path)
}

func TestRegister_EnsembleErrors(t *testing.T) {
	ens := newFakeEnsemble()
	ens.existsErr = errors.New("connection lost")

	_, err := NewCoordinator(ens, logger.NewNop()).Register(context.Background())
	require.ErrorContains(t, err, "connection lost")

	ens = newFakeEnsemble()
	c := NewCoordinator(ens, logger.NewNop())
	c.newID = func() uint64 { return 7 }
	_, err = c.Register(context.Background())
	require.NoError(t, err)
	_, err = c.Register(context.Background())
	require.ErrorIs(t, err, ErrNodeExists)
}
