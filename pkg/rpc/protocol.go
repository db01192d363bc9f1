package rpc

import (
	"context"

	"github.com/Alwanly/service-feed-ingest/pkg/codec"
)

// Request is the wire envelope sent by clients.
type Request struct {
	ID     string           `cbor:"id"`
	Action string           `cbor:"action"`
	Params codec.RawMessage `cbor:"params,omitempty"`
}

// Response is the wire envelope returned for every request. Data holds the
// CBOR-encoded result of a successful action.
type Response struct {
	ID    string           `cbor:"id"`
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// ActionFunc handles one action. params is the raw CBOR of Request.Params
// and may be empty. A nil result produces a response without data.
type ActionFunc func(ctx context.Context, params []byte) (any, error)
