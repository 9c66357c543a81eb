package tool

import (
	"fmt"
	"sync"
	"time"

	"github.com/kairodev/kairo/internal/skill"
)

// BuiltinOptions carries runtime dependencies needed by built-in tool factories.
type BuiltinOptions struct {
	Skills      *skill.Registry
	WorkDir     string
	BashTimeout time.Duration
	MaxFileSize int64
}

const (
	DefaultBuiltinBashTimeout = 2 * time.Minute
	DefaultBuiltinMaxFileSize = 1 << 20
)

type BuiltinFactory func(options BuiltinOptions) (Tool, error)

var builtinCatalog = struct {
	mu        sync.RWMutex
	factories map[string]BuiltinFactory
}{
	factories: map[string]BuiltinFactory{},
}

// RegisterBuiltin registers a built-in tool factory under a tool name.
// Intended to be called in init() from built-in tool files.
func RegisterBuiltin(name string, factory BuiltinFactory) {
	normalized := NormalizeToolName(name)
	if normalized == "" {
		panic("tool: built-in name cannot be empty")
	}
	if factory == nil {
		panic(fmt.Sprintf("tool: built-in factory cannot be nil (%s)", normalized))
	}

	builtinCatalog.mu.Lock()
	defer builtinCatalog.mu.Unlock()

	if _, exists := builtinCatalog.factories[normalized]; exists {
		panic(fmt.Sprintf("tool: built-in already registered: %s", normalized))
	}
	builtinCatalog.factories[normalized] = factory
}

// NewRegistryWithBuiltins builds a registry containing every registered
// built-in, instantiated with the given options.
func NewRegistryWithBuiltins(options BuiltinOptions) (*Registry, error) {
	if options.BashTimeout <= 0 {
		options.BashTimeout = DefaultBuiltinBashTimeout
	}
	if options.MaxFileSize <= 0 {
		options.MaxFileSize = DefaultBuiltinMaxFileSize
	}

	builtinCatalog.mu.RLock()
	defer builtinCatalog.mu.RUnlock()

	registry := NewRegistry()
	for name, factory := range builtinCatalog.factories {
		t, err := factory(options)
		if err != nil {
			return nil, fmt.Errorf("tool: building %s: %w", name, err)
		}
		registry.Register(t)
	}
	return registry, nil
}
