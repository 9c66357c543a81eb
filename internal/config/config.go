package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kairodev/kairo/internal/pathutil"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Models    ModelsConfig    `koanf:"models"`
	Agent     AgentConfig     `koanf:"agent"`
	Discovery DiscoveryConfig `koanf:"discovery"`
	Store     StoreConfig     `koanf:"store"`
	Prompts   PromptsConfig   `koanf:"prompts"`
}

type ServerConfig struct {
	Port            int    `koanf:"port"`
	LogLevel        string `koanf:"log_level"`
	ReadTimeout     string `koanf:"read_timeout"`
	WriteTimeout    string `koanf:"write_timeout"`
	ShutdownTimeout string `koanf:"shutdown_timeout"`
}

type ModelsConfig struct {
	Default        string          `koanf:"default"`
	Fallback       string          `koanf:"fallback"`
	MaxTokens      int             `koanf:"max_tokens"`
	Thinking       bool            `koanf:"thinking"`
	ThinkingBudget int             `koanf:"thinking_budget"`
	Registry       []ModelRegistry `koanf:"registry"`
}

type ModelRegistry struct {
	Name           string `koanf:"name"`
	Provider       string `koanf:"provider"`
	BaseURL        string `koanf:"base_url"`
	APIKey         string `koanf:"api_key"`
	RequestTimeout string `koanf:"request_timeout"`
}

type AgentConfig struct {
	MaxTurns       int    `koanf:"max_turns"`
	HistoryLimit   int    `koanf:"history_limit"`
	ToolTimeout    string `koanf:"tool_timeout"`
	WorkingDir     string `koanf:"working_dir"`
	ResultDisplayN int    `koanf:"result_display_chars"`
}

type DiscoveryConfig struct {
	ProjectPath  string   `koanf:"project_path"`
	SkillSources []string `koanf:"skill_sources"`
}

type StoreConfig struct {
	BasePath     string `koanf:"base_path"`
	LockTimeout  string `koanf:"lock_timeout"`
	LockRetry    string `koanf:"lock_retry"`
	LockMaxRetry int    `koanf:"lock_max_retry"`
	InboxSize    int    `koanf:"inbox_size"`
}

type PromptsConfig struct {
	System string `koanf:"system"`
}

const (
	DefaultServerPort            = 8080
	DefaultServerLogLevel        = "info"
	DefaultServerReadTimeout     = "10s"
	DefaultServerWriteTimeout    = "0s" // streaming responses must not be cut off
	DefaultServerShutdownTimeout = "5s"

	DefaultModelDefault   = "claude-sonnet-4-5-20250929"
	DefaultModelMaxTokens = 16000
	// Extended thinking requires temperature 1.0 upstream; the budget caps
	// how many tokens the model may spend thinking.
	DefaultModelThinking       = true
	DefaultModelThinkingBudget = 10000

	DefaultAgentMaxTurns       = 10
	DefaultAgentHistoryLimit   = 100
	DefaultAgentToolTimeout    = "5m"
	DefaultAgentResultDisplayN = 500

	DefaultStoreLockTimeout  = "30s"
	DefaultStoreLockRetry    = "100ms"
	DefaultStoreLockMaxRetry = 300
	DefaultStoreInboxSize    = 100

	DefaultSystemPrompt = `You are a helpful coding assistant with access to specialized skills.

Your capabilities include:
- Loading and using specialized skills for specific tasks
- Executing bash commands and scripts
- Reading and writing files
- Following skill instructions to complete complex tasks

When a user request matches a skill's description, use the load_skill tool to get detailed instructions before proceeding.`
)

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":             DefaultServerPort,
		"server.log_level":        DefaultServerLogLevel,
		"server.read_timeout":     DefaultServerReadTimeout,
		"server.write_timeout":    DefaultServerWriteTimeout,
		"server.shutdown_timeout": DefaultServerShutdownTimeout,
		"models.default":          DefaultModelDefault,
		"models.fallback":         "",
		"models.max_tokens":       DefaultModelMaxTokens,
		"models.thinking":         DefaultModelThinking,
		"models.thinking_budget":  DefaultModelThinkingBudget,
		"models.registry": []ModelRegistry{
			{Name: DefaultModelDefault, Provider: "anthropic"},
		},
		"agent.max_turns":            DefaultAgentMaxTurns,
		"agent.history_limit":        DefaultAgentHistoryLimit,
		"agent.tool_timeout":         DefaultAgentToolTimeout,
		"agent.result_display_chars": DefaultAgentResultDisplayN,
		"discovery.skill_sources":    []string{"~/.claude/skills", ".claude/skills"},
		"store.base_path":            filepath.Join(os.Getenv("HOME"), ".kairo"),
		"store.lock_timeout":         DefaultStoreLockTimeout,
		"store.lock_retry":           DefaultStoreLockRetry,
		"store.lock_max_retry":       DefaultStoreLockMaxRetry,
		"store.inbox_size":           DefaultStoreInboxSize,
		"prompts.system":             DefaultSystemPrompt,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			globalPath := filepath.Join(home, ".kairo", "config.yaml")
			if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
				slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
			}
		}
	}

	k.Load(env.Provider("KAIRO_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "KAIRO_")), "_", ".", -1)
	}), nil)

	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if err := normalizePathFields(&cfg); err != nil {
		return nil, err
	}

	// Inject standard env vars if the registry entry carries no key.
	// ANTHROPIC_AUTH_TOKEN covers third-party proxy auth.
	if key := firstEnv("ANTHROPIC_API_KEY", "ANTHROPIC_AUTH_TOKEN"); key != "" {
		for i, m := range cfg.Models.Registry {
			if m.Provider == "anthropic" && m.APIKey == "" {
				cfg.Models.Registry[i].APIKey = key
			}
		}
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		for i, m := range cfg.Models.Registry {
			if m.Provider == "openai" && m.APIKey == "" {
				cfg.Models.Registry[i].APIKey = key
			}
		}
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		for i, m := range cfg.Models.Registry {
			if m.Provider == "gemini" && m.APIKey == "" {
				cfg.Models.Registry[i].APIKey = key
			}
		}
	}
	if base := os.Getenv("ANTHROPIC_BASE_URL"); base != "" {
		for i, m := range cfg.Models.Registry {
			if m.Provider == "anthropic" && m.BaseURL == "" {
				cfg.Models.Registry[i].BaseURL = base
			}
		}
	}

	return &cfg, nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func normalizePathFields(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	projectPath, err := expandConfiguredPath(cfg.Discovery.ProjectPath)
	if err != nil {
		return err
	}
	if projectPath != "" {
		cfg.Discovery.ProjectPath = projectPath
	}

	basePath, err := expandConfiguredPath(cfg.Store.BasePath)
	if err != nil {
		return err
	}
	if basePath != "" {
		cfg.Store.BasePath = basePath
	}

	workingDir, err := expandConfiguredPath(cfg.Agent.WorkingDir)
	if err != nil {
		return err
	}
	if workingDir != "" {
		cfg.Agent.WorkingDir = workingDir
	}

	for i, source := range cfg.Discovery.SkillSources {
		expanded, err := expandConfiguredPath(source)
		if err != nil {
			return err
		}
		if expanded != "" {
			cfg.Discovery.SkillSources[i] = expanded
		}
	}

	return nil
}

func expandConfiguredPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	return pathutil.Expand(trimmed)
}
