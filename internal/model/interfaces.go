package model

import (
	"context"

	"github.com/kairodev/kairo/internal/model/contract"
)

// ModelRouter routes streamed completion requests to the provider
// registered for the requested model name.
type ModelRouter interface {
	StreamRoute(ctx context.Context, model string, req contract.StreamRequest, emit contract.EmitFunc) (*contract.Turn, error)
	ListModels() []string
	Health(ctx context.Context) error
}

// Provider is one model backend. Stream emits raw primitives as the
// turn arrives and returns the assembled turn when the stream ends.
type Provider interface {
	Stream(ctx context.Context, req contract.StreamRequest, emit contract.EmitFunc) (*contract.Turn, error)
	Name() string
	Type() string
	Health(ctx context.Context) error
}
