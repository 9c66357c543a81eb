package main

import (
	"fmt"
	"log/slog"

	"github.com/kairodev/kairo/internal/agent"
	"github.com/kairodev/kairo/internal/config"
	"github.com/kairodev/kairo/internal/model"
	"github.com/kairodev/kairo/internal/skill"
	"github.com/kairodev/kairo/internal/store"
	"github.com/kairodev/kairo/internal/timeline"
	"github.com/kairodev/kairo/internal/tool"
	_ "github.com/kairodev/kairo/internal/tool/builtin" // registers the built-in tool catalog
)

// components wires the full stack for one process: store worker, skill
// registry, tool runner, model router, agent and timeline manager.
type components struct {
	cfg       *config.Config
	store     *store.Worker
	skills    *skill.Registry
	runner    *tool.Runner
	router    model.ModelRouter
	agent     *agent.Agent
	timelines *timeline.Manager
}

func buildComponents(cfg *config.Config) (*components, error) {
	lockTimeout, err := config.DurationOrDefault(cfg.Store.LockTimeout, config.DefaultStoreLockTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid store.lock_timeout: %w", err)
	}
	lockRetry, err := config.DurationOrDefault(cfg.Store.LockRetry, config.DefaultStoreLockRetry)
	if err != nil {
		return nil, fmt.Errorf("invalid store.lock_retry: %w", err)
	}
	worker, err := store.NewWorker(cfg.Store.BasePath, store.RuntimeConfig{
		LockTimeout:  lockTimeout,
		LockRetry:    lockRetry,
		LockMaxRetry: cfg.Store.LockMaxRetry,
		InboxSize:    cfg.Store.InboxSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	worker.Start()

	skills := skill.NewRegistry(cfg.Discovery.SkillSources...)
	if err := skills.Load(); err != nil {
		slog.Warn("Skill discovery failed", "error", err)
	}

	toolTimeout, err := config.DurationOrDefault(cfg.Agent.ToolTimeout, config.DefaultAgentToolTimeout)
	if err != nil {
		worker.Stop()
		return nil, fmt.Errorf("invalid agent.tool_timeout: %w", err)
	}
	registry, err := tool.NewRegistryWithBuiltins(tool.BuiltinOptions{
		Skills:      skills,
		WorkDir:     cfg.Agent.WorkingDir,
		BashTimeout: toolTimeout,
	})
	if err != nil {
		worker.Stop()
		return nil, fmt.Errorf("failed to initialize tools: %w", err)
	}
	runner := tool.NewRunner(registry, toolTimeout)

	router, err := model.NewModelRouter(cfg.Models)
	if err != nil {
		worker.Stop()
		return nil, fmt.Errorf("failed to initialize model router: %w", err)
	}

	return &components{
		cfg:       cfg,
		store:     worker,
		skills:    skills,
		runner:    runner,
		router:    router,
		agent:     agent.New(router, runner, skills, worker, *cfg),
		timelines: timeline.NewManager(),
	}, nil
}

func (c *components) Stop() {
	c.store.Stop()
}

// withComponents loads config, builds the stack, runs fn and tears
// down.
func withComponents(fn func(*components) error) error {
	c, err := buildComponents(cfg)
	if err != nil {
		return err
	}
	defer c.Stop()
	return fn(c)
}
