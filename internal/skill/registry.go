package skill

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Registry holds the skills discovered across the configured source
// directories. Discovery walks each source for <dir>/<skill>/SKILL.md;
// a later source overrides an earlier one on name collision, so project
// skills shadow user skills.
type Registry struct {
	mu      sync.RWMutex
	skills  map[string]*Skill
	sources []string
}

func NewRegistry(sources ...string) *Registry {
	return &Registry{
		skills:  make(map[string]*Skill),
		sources: sources,
	}
}

// Load discovers skills from every configured source. A source that
// does not exist is skipped; a skill that fails to parse is logged and
// skipped so one broken SKILL.md never hides the rest.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.skills = make(map[string]*Skill)
	var loadErrors []error

	for _, source := range r.sources {
		if err := r.loadSource(source, &loadErrors); err != nil {
			return err
		}
	}

	slog.Info("Skills loaded",
		"count", len(r.skills),
		"errors", len(loadErrors),
		"sources", len(r.sources))

	if len(loadErrors) > 0 {
		slog.Warn("Some skills failed to load", "error", joinErrors(loadErrors))
	}
	return nil
}

func (r *Registry) loadSource(source string, loadErrors *[]error) error {
	entries, err := os.ReadDir(source)
	if os.IsNotExist(err) {
		slog.Debug("Skills directory does not exist", "path", source)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read skills directory %s: %w", source, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		skillPath := filepath.Join(source, entry.Name(), "SKILL.md")
		skill, err := LoadSkillFromFile(skillPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			*loadErrors = append(*loadErrors, &SkillLoadError{Path: skillPath, Message: "load failed", Cause: err})
			continue
		}
		if err := Validate(skill); err != nil {
			*loadErrors = append(*loadErrors, &SkillLoadError{Path: skillPath, Message: err.Error(), Cause: err})
			continue
		}
		if _, exists := r.skills[skill.Name]; exists {
			slog.Debug("Skill overridden by later source", "name", skill.Name, "path", skillPath)
		}
		r.skills[skill.Name] = skill
	}
	return nil
}

func (r *Registry) Register(skill *Skill) {
	if skill == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skills[skill.Name] = skill
}

func (r *Registry) Get(name string) (*Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	skill, ok := r.skills[name]
	if !ok {
		return nil, fmt.Errorf("skill not found: %s", name)
	}
	return skill, nil
}

// List returns all skills sorted by name.
func (r *Registry) List() []*Skill {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Skill, 0, len(r.skills))
	for _, skill := range r.skills {
		out = append(out, skill)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.skills)
}

// PromptSection renders the name/description listing embedded in the
// system prompt so the model knows which skills it can load. The full
// body stays out of the prompt until the skill is actually loaded.
func (r *Registry) PromptSection() string {
	skills := r.List()
	if len(skills) == 0 {
		return "No skills are currently available."
	}

	var b strings.Builder
	b.WriteString("Available skills:\n")
	for _, s := range skills {
		fmt.Fprintf(&b, "- %s: %s\n", s.Name, s.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

func joinErrors(errors []error) error {
	if len(errors) == 0 {
		return nil
	}
	var msgs []string
	for _, err := range errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Errorf("multiple errors: %s", strings.Join(msgs, "; "))
}
