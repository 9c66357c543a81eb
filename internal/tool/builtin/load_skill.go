package builtin

import (
	"context"
	"fmt"

	"github.com/kairodev/kairo/internal/skill"
	toolcore "github.com/kairodev/kairo/internal/tool"
)

func init() {
	toolcore.RegisterBuiltin("load_skill", func(options toolcore.BuiltinOptions) (toolcore.Tool, error) {
		if options.Skills == nil {
			return nil, fmt.Errorf("load_skill requires a skill registry")
		}
		return &LoadSkillTool{skills: options.Skills}, nil
	})
}

// LoadSkillTool returns a skill's full instructions so the model can
// follow them for the rest of the conversation.
type LoadSkillTool struct {
	skills *skill.Registry
}

func (t *LoadSkillTool) Name() string {
	return "load_skill"
}

func (t *LoadSkillTool) Description() string {
	return "Load a skill by name and return its full instructions."
}

func (t *LoadSkillTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"skill_name": map[string]interface{}{
				"type":        "string",
				"description": "Name of the skill to load",
			},
		},
		"required": []string{"skill_name"},
	}
}

func (t *LoadSkillTool) Execute(_ context.Context, args map[string]interface{}) (string, error) {
	name, err := stringArg(args, "skill_name")
	if err != nil {
		return "", err
	}

	s, err := t.skills.Get(name)
	if err != nil {
		return "", fmt.Errorf("skill not found: %s. %s", name, t.skills.PromptSection())
	}
	return fmt.Sprintf("Skill %q loaded.\n\n%s", s.Name, s.Content), nil
}
