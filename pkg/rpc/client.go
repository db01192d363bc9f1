package rpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Alwanly/service-feed-ingest/pkg/codec"
)

// RemoteError is an error reported by the server for an action.
type RemoteError struct {
	Action  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("rpc %s: %s", e.Action, e.Message)
}

// Client issues sequential calls over one TCP connection.
type Client struct {
	conn     net.Conn
	mu       sync.Mutex
	maxFrame int
}

type ClientOption func(*Client)

// WithClientMaxFrameSize bounds response bodies the client accepts.
func WithClientMaxFrameSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxFrame = n
		}
	}
}

// Dial connects to a Server at addr.
func Dial(ctx context.Context, addr string, opts ...ClientOption) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	c := &Client{conn: conn, maxFrame: DefaultMaxFrameSize}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Call sends action with params and decodes the response data into result.
// params and result may be nil.
func (c *Client) Call(ctx context.Context, action string, params any, result any) error {
	req := Request{ID: uuid.NewString(), Action: action}
	if params != nil {
		raw, err := codec.Marshal(params)
		if err != nil {
			return fmt.Errorf("encode params: %w", err)
		}
		req.Params = raw
	}
	body, err := codec.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetDeadline(deadline)
	} else {
		c.conn.SetDeadline(time.Time{})
	}

	if err := writeFrame(c.conn, body, c.maxFrame); err != nil {
		return err
	}
	frame, err := readFrame(c.conn, c.maxFrame)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var resp Response
	if err := codec.Unmarshal(frame, &resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.ID != req.ID {
		return fmt.Errorf("response id %q does not match request %q", resp.ID, req.ID)
	}
	if !resp.OK {
		return &RemoteError{Action: action, Message: resp.Error}
	}
	if result != nil && len(resp.Data) > 0 {
		if err := codec.Unmarshal(resp.Data, result); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}
	return nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
