package model

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kairodev/kairo/internal/config"
	kairoErrors "github.com/kairodev/kairo/internal/errors"
	"github.com/kairodev/kairo/internal/logger"
	"github.com/kairodev/kairo/internal/model/contract"
	anthropicProvider "github.com/kairodev/kairo/internal/model/providers/anthropic"
	geminiProvider "github.com/kairodev/kairo/internal/model/providers/gemini"
	openaiProvider "github.com/kairodev/kairo/internal/model/providers/openai"
)

// DefaultModelRouter implements ModelRouter.
type DefaultModelRouter struct {
	cfg       config.ModelsConfig
	providers map[string]Provider
	mu        sync.RWMutex
}

// NewModelRouter builds a router from the configured model registry.
func NewModelRouter(cfg config.ModelsConfig) (*DefaultModelRouter, error) {
	router := &DefaultModelRouter{
		cfg:       cfg,
		providers: make(map[string]Provider),
	}

	if err := router.initProviders(); err != nil {
		return nil, err
	}

	return router, nil
}

// StreamRoute resolves the provider for model and streams the request
// through it. A stream that fails before emitting anything falls back
// to the configured fallback model; once primitives have been emitted
// the failure is surfaced as-is, since the consumer already saw output.
func (r *DefaultModelRouter) StreamRoute(ctx context.Context, model string, req contract.StreamRequest, emit contract.EmitFunc) (*contract.Turn, error) {
	traceID := logger.GetTraceID(ctx)
	slog.Info("Routing stream request", "model", model, "trace_id", traceID)

	provider, resolved, err := r.resolveProvider(model)
	if err != nil {
		return nil, err
	}

	emitted := false
	countingEmit := func(typ string, payload map[string]interface{}) error {
		emitted = true
		return emit(typ, payload)
	}

	req.Model = resolved
	turn, err := provider.Stream(ctx, req, countingEmit)
	if err == nil {
		slog.Info("Stream completed", "model", resolved, "trace_id", traceID)
		return turn, nil
	}
	slog.Error("Provider stream failed", "model", resolved, "error", err, "trace_id", traceID)

	if emitted || r.cfg.Fallback == "" || resolved == r.cfg.Fallback {
		return nil, err
	}

	r.mu.RLock()
	fallback, exists := r.providers[r.cfg.Fallback]
	r.mu.RUnlock()
	if !exists {
		return nil, err
	}

	slog.Info("Attempting fallback", "from", resolved, "to", r.cfg.Fallback, "trace_id", traceID)
	req.Model = r.cfg.Fallback
	return fallback.Stream(ctx, req, emit)
}

// ListModels returns all registered model names.
func (r *DefaultModelRouter) ListModels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make([]string, 0, len(r.providers))
	for name := range r.providers {
		models = append(models, name)
	}
	return models
}

// Health checks every registered provider.
func (r *DefaultModelRouter) Health(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for name, provider := range r.providers {
		if err := provider.Health(ctx); err != nil {
			slog.Warn("Provider unhealthy", "provider", name, "error", err)
			return kairoErrors.Transport(fmt.Sprintf("provider %s unhealthy", name))
		}
	}
	return nil
}

func (r *DefaultModelRouter) initProviders() error {
	for _, entry := range r.cfg.Registry {
		provider, err := r.createProvider(entry)
		if err != nil {
			slog.Warn("Failed to create provider", "provider", entry.Provider, "model", entry.Name, "error", err)
			continue
		}

		r.providers[entry.Name] = provider
		slog.Info("Provider initialized", "name", entry.Name, "type", entry.Provider)
	}

	if len(r.providers) == 0 && len(r.cfg.Registry) > 0 {
		return kairoErrors.ErrInternal
	}
	return nil
}

func (r *DefaultModelRouter) resolveProvider(model string) (Provider, string, error) {
	r.mu.RLock()
	provider, exists := r.providers[model]
	r.mu.RUnlock()
	if exists {
		return provider, model, nil
	}

	slog.Warn("Model not found", "model", model)
	if r.cfg.Fallback != "" && model != r.cfg.Fallback {
		r.mu.RLock()
		fallback, fallbackExists := r.providers[r.cfg.Fallback]
		r.mu.RUnlock()
		if fallbackExists {
			slog.Info("Using fallback model", "model", model, "fallback", r.cfg.Fallback)
			return fallback, r.cfg.Fallback, nil
		}
	}
	return nil, "", kairoErrors.NotFound(fmt.Sprintf("model %s", model))
}

func (r *DefaultModelRouter) createProvider(entry config.ModelRegistry) (Provider, error) {
	switch entry.Provider {
	case "anthropic":
		if entry.APIKey == "" {
			return nil, kairoErrors.InvalidInput("API key required for Anthropic provider")
		}
		return anthropicProvider.New(entry.APIKey, entry.BaseURL, entry.Name), nil

	case "openai":
		if entry.APIKey == "" {
			return nil, kairoErrors.InvalidInput("API key required for OpenAI provider")
		}
		return openaiProvider.New(entry.APIKey, entry.BaseURL, entry.Name), nil

	case "ollama":
		baseURL := entry.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434/v1"
		}
		apiKey := entry.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		return openaiProvider.New(apiKey, baseURL, entry.Name), nil

	case "gemini":
		if entry.APIKey == "" {
			return nil, kairoErrors.InvalidInput("API key required for Gemini provider")
		}
		return geminiProvider.New(entry.APIKey, entry.Name)

	default:
		return nil, kairoErrors.InvalidInput(fmt.Sprintf("unknown provider type: %s", entry.Provider))
	}
}
