package skill

import (
	"fmt"
	"regexp"
	"strings"
)

// Skill is one loadable capability: YAML frontmatter describing it plus
// the markdown body injected into the conversation when loaded.
type Skill struct {
	Name        string                 `yaml:"name"`
	Description string                 `yaml:"description"`
	Metadata    map[string]interface{} `yaml:"metadata"`
	Path        string                 `yaml:"-"`
	Content     string                 `yaml:"-"`
}

type SkillLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SkillLoadError) Error() string {
	return fmt.Sprintf("failed to load skill from %s: %s", e.Path, e.Message)
}

func (e *SkillLoadError) Unwrap() error {
	return e.Cause
}

type SkillValidationError struct {
	Field   string
	Message string
}

func (e *SkillValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

var skillNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func Validate(s *Skill) error {
	if s.Name == "" {
		return &SkillValidationError{Field: "name", Message: "cannot be empty"}
	}
	if !skillNamePattern.MatchString(s.Name) {
		return &SkillValidationError{
			Field:   "name",
			Message: "must only contain alphanumeric characters, underscores, and hyphens",
		}
	}
	if s.Description == "" {
		return &SkillValidationError{Field: "description", Message: "cannot be empty"}
	}
	return nil
}

type FrontmatterParser struct{}

func (fp *FrontmatterParser) Parse(content []byte) (string, string, error) {
	contentStr := strings.TrimSpace(string(content))

	if !strings.HasPrefix(contentStr, "---") {
		return "", "", fmt.Errorf("invalid frontmatter: must start with ---")
	}

	parts := strings.SplitN(contentStr, "---", 3)
	if len(parts) < 3 {
		return "", "", fmt.Errorf("invalid frontmatter: expected 3 parts separated by ---")
	}

	frontmatter := strings.TrimSpace(parts[1])
	if frontmatter == "" {
		return "", "", fmt.Errorf("invalid frontmatter: frontmatter is empty")
	}

	body := strings.TrimSpace(parts[2])

	return frontmatter, body, nil
}
