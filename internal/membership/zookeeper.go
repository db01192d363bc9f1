package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-zookeeper/zk"

	"github.com/Alwanly/service-feed-ingest/pkg/logger"
)

// ZKEnsemble is an Ensemble backed by a ZooKeeper session.
type ZKEnsemble struct {
	conn *zk.Conn
	acl  []zk.ACL
}

// zkLogger routes the client's own log lines through the canonical logger.
type zkLogger struct {
	log *logger.CanonicalLogger
}

func (l zkLogger) Printf(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

// ConnectZK opens a session and waits until it is established or ctx ends.
// An unreachable ensemble is reported as an error rather than retried in
// the background forever.
func ConnectZK(ctx context.Context, servers []string, sessionTimeout time.Duration, log *logger.CanonicalLogger) (*ZKEnsemble, error) {
	conn, events, err := zk.Connect(servers, sessionTimeout, zk.WithLogger(zkLogger{log: log.Component("zookeeper")}))
	if err != nil {
		return nil, fmt.Errorf("connect to %v: %w", servers, err)
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close()
			return nil, fmt.Errorf("connect to %v: %w", servers, ctx.Err())
		case ev, ok := <-events:
			if !ok {
				conn.Close()
				return nil, fmt.Errorf("connect to %v: event channel closed", servers)
			}
			if ev.State == zk.StateHasSession {
				return &ZKEnsemble{conn: conn, acl: zk.WorldACL(zk.PermAll)}, nil
			}
			if ev.State == zk.StateAuthFailed {
				conn.Close()
				return nil, fmt.Errorf("connect to %v: authentication failed", servers)
			}
		}
	}
}

func (e *ZKEnsemble) Exists(path string) (bool, error) {
	ok, _, err := e.conn.Exists(path)
	return ok, err
}

func (e *ZKEnsemble) CreatePersistent(path string, data []byte) error {
	return e.create(path, data, 0)
}

func (e *ZKEnsemble) CreateEphemeral(path string, data []byte) error {
	return e.create(path, data, zk.FlagEphemeral)
}

func (e *ZKEnsemble) create(path string, data []byte, flags int32) error {
	_, err := e.conn.Create(path, data, flags, e.acl)
	if errors.Is(err, zk.ErrNodeExists) {
		return ErrNodeExists
	}
	return err
}

func (e *ZKEnsemble) Close() {
	e.conn.Close()
}

// JoinZK connects to servers and registers this process under root. The
// returned ensemble holds the ephemeral node and must stay open for as long
// as the process is a member.
func JoinZK(ctx context.Context, servers []string, root string, sessionTimeout, connectTimeout time.Duration, log *logger.CanonicalLogger) (*ZKEnsemble, Node, error) {
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	ensemble, err := ConnectZK(connectCtx, servers, sessionTimeout, log)
	cancel()
	if err != nil {
		return nil, Node{}, err
	}

	node, err := NewCoordinator(ensemble, log, WithRoot(root)).Register(ctx)
	if err != nil {
		ensemble.Close()
		return nil, Node{}, err
	}
	return ensemble, node, nil
}
