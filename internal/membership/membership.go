package membership

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path"
	"strconv"

	"github.com/Alwanly/service-feed-ingest/pkg/logger"
)

const (
	DefaultServer = "127.0.0.1:2181"
	DefaultRoot   = "/kactusworkers"
)

// ErrNodeExists is returned by an Ensemble when the path is already taken.
var ErrNodeExists = errors.New("membership: node exists")

// Ensemble is the subset of a coordination service the coordinator uses.
type Ensemble interface {
	Exists(path string) (bool, error)
	// CreatePersistent creates a node that outlives the session.
	CreatePersistent(path string, data []byte) error
	// CreateEphemeral creates a node removed when the session ends.
	CreateEphemeral(path string, data []byte) error
	Close()
}

// Node is this process's registration.
type Node struct {
	ID   uint64
	Path string
}

// LeadershipStrategy decides what a registered node does next: elect a
// leader, claim a share of the catalog and so on. The default does nothing.
type LeadershipStrategy interface {
	Registered(ctx context.Context, node Node, ensemble Ensemble) error
}

// NoLeadership leaves every node as an equal, idle member.
type NoLeadership struct{}

func (NoLeadership) Registered(context.Context, Node, Ensemble) error { return nil }

type Coordinator struct {
	ensemble Ensemble
	root     string
	strategy LeadershipStrategy
	logger   *logger.CanonicalLogger
	newID    func() uint64
}

type Option func(*Coordinator)

func WithRoot(root string) Option {
	return func(c *Coordinator) {
		if root != "" {
			c.root = root
		}
	}
}

func WithStrategy(s LeadershipStrategy) Option {
	return func(c *Coordinator) {
		if s != nil {
			c.strategy = s
		}
	}
}

func NewCoordinator(ensemble Ensemble, log *logger.CanonicalLogger, opts ...Option) *Coordinator {
	c := &Coordinator{
		ensemble: ensemble,
		root:     DefaultRoot,
		strategy: NoLeadership{},
		logger:   log.Component("membership"),
		newID:    rand.Uint64,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register ensures the root exists and adds an ephemeral child named after a
// random uint64. A root created concurrently by another member counts as
// success; nothing is retried.
func (c *Coordinator) Register(ctx context.Context) (Node, error) {
	if err := c.ensureRoot(); err != nil {
		return Node{}, err
	}

	id := c.newID()
	node := Node{ID: id, Path: path.Join(c.root, strconv.FormatUint(id, 10))}
	if err := c.ensemble.CreateEphemeral(node.Path, nil); err != nil {
		return Node{}, fmt.Errorf("register %s: %w", node.Path, err)
	}
	c.logger.Info("registered worker node",
		logger.Uint64(logger.FieldWorkerUID, id),
		logger.String("path", node.Path),
	)

	if err := c.strategy.Registered(ctx, node, c.ensemble); err != nil {
		return node, fmt.Errorf("leadership strategy: %w", err)
	}
	return node, nil
}

func (c *Coordinator) ensureRoot() error {
	exists, err := c.ensemble.Exists(c.root)
	if err != nil {
		return fmt.Errorf("check root %s: %w", c.root, err)
	}
	if exists {
		return nil
	}

	err = c.ensemble.CreatePersistent(c.root, nil)
	if errors.Is(err, ErrNodeExists) {
		c.logger.Debug("root created concurrently", logger.String("path", c.root))
		return nil
	}
	if err != nil {
		return fmt.Errorf("create root %s: %w", c.root, err)
	}
	c.logger.Info("created membership root", logger.String("path", c.root))
	return nil
}
