package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/Alwanly/service-feed-ingest/pkg/codec"
	"github.com/Alwanly/service-feed-ingest/pkg/logger"
)

var ErrUnknownAction = errors.New("rpc: unknown action")

// idleTimeout closes connections that send nothing for this long.
const idleTimeout = 5 * time.Minute

const writeTimeout = 10 * time.Second

// Server serves length-prefixed CBOR request/response frames over TCP.
// A connection may carry any number of sequential requests.
type Server struct {
	listener net.Listener
	handlers map[string]ActionFunc
	logger   *logger.CanonicalLogger
	maxFrame int

	active sync.WaitGroup
}

type ServerOption func(*Server)

// WithMaxFrameSize bounds request and response bodies. Values <= 0 keep
// DefaultMaxFrameSize.
func WithMaxFrameSize(n int) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxFrame = n
		}
	}
}

// Listen binds addr. Binding happens here rather than in Serve so callers
// can treat a bind failure as a startup error.
func Listen(addr string, log *logger.CanonicalLogger, opts ...ServerOption) (*Server, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	s := &Server{
		listener: l,
		handlers: make(map[string]ActionFunc),
		logger:   log.Component("rpc"),
		maxFrame: DefaultMaxFrameSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Handle registers handler for action. Must be called before Serve.
func (s *Server) Handle(action string, handler ActionFunc) {
	if _, exists := s.handlers[action]; exists {
		panic(fmt.Sprintf("rpc: duplicate handler for action %q", action))
	}
	s.handlers[action] = handler
}

// Serve accepts connections until ctx is cancelled, then waits for active
// connections to finish their current request.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	s.logger.Info("rpc server listening", logger.String("address", s.Addr()))

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.WithError(err).Error("accept failed")
			continue
		}

		s.active.Add(1)
		go func() {
			defer s.active.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.active.Wait()
	return nil
}

// Close stops accepting connections.
func (s *Server) Close() error {
	return s.listener.Close()
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.SetReadDeadline(time.Now())
		case <-done:
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(idleTimeout))
		body, err := readFrame(conn, s.maxFrame)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				s.logger.WithError(err).Debug("connection closed")
			}
			return
		}

		resp := s.dispatch(ctx, body)

		out, err := s.encode(resp)
		if err != nil {
			s.logger.WithError(err).Error("failed to encode response")
			return
		}
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := writeFrame(conn, out, s.maxFrame); err != nil {
			s.logger.WithError(err).Debug("failed to write response")
			return
		}
	}
}

// encode marshals resp. A response that does not fit in one frame is
// replaced by an error response so the caller sees why instead of a
// closed connection.
func (s *Server) encode(resp Response) ([]byte, error) {
	out, err := codec.Marshal(resp)
	if err != nil {
		return nil, err
	}
	if len(out) <= s.maxFrame {
		return out, nil
	}
	s.logger.Warn("response exceeds frame limit",
		logger.Int(logger.FieldBytes, len(out)),
		logger.Int("limit", s.maxFrame),
	)
	return codec.Marshal(Response{
		ID:    resp.ID,
		Error: fmt.Sprintf("%v: response of %d bytes, limit %d", ErrFrameTooLarge, len(out), s.maxFrame),
	})
}

func (s *Server) dispatch(ctx context.Context, body []byte) Response {
	var req Request
	if err := codec.Unmarshal(body, &req); err != nil {
		return Response{Error: fmt.Sprintf("invalid request: %v", err)}
	}

	handler, ok := s.handlers[req.Action]
	if !ok {
		return Response{ID: req.ID, Error: fmt.Sprintf("%v: %q", ErrUnknownAction, req.Action)}
	}

	result, err := handler(ctx, req.Params)
	if err != nil {
		s.logger.Debug("action failed",
			logger.String(logger.FieldAction, req.Action),
			logger.Error(err),
		)
		return Response{ID: req.ID, Error: err.Error()}
	}

	resp := Response{ID: req.ID, OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			return Response{ID: req.ID, Error: fmt.Sprintf("encode result: %v", err)}
		}
		resp.Data = data
	}
	return resp
}
