package selector

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/steward/pkg/models"
)

// RoleTemplate describes how a role shapes a spawned agent: its default
// complexity, the prompt prefix, the kind of output expected back, and the
// negative constraints injected into the prompt. The constraints are
// prompt-level policy only; nothing here sandboxes the agent.
type RoleTemplate struct {
	// Role is the template's role.
	Role models.Role `yaml:"role"`
	// DefaultComplexity is used when the subtask has no override.
	DefaultComplexity models.Complexity `yaml:"default_complexity"`
	// PromptPrefix is prepended to the subtask description.
	PromptPrefix string `yaml:"prompt_prefix"`
	// ExpectedOutput names the artifact kind the agent should produce.
	ExpectedOutput string `yaml:"expected_output"`
	// Constraints are negative instructions appended to every prompt.
	Constraints []string `yaml:"constraints"`
}

// baseConstraints apply to every role. Spawned agents must not write outside
// their workspace, message anyone, or spawn further agents on their own.
var baseConstraints = []string{
	"Do not write files outside your assigned workspace directory.",
	"Do not send messages or notifications to any external system.",
	"Do not spawn further sub-agents; return your result as text.",
}

// defaultRoleTemplates is the built-in role table. It is never reassigned;
// LoadRoleTemplates returns a copy when overriding from YAML.
var defaultRoleTemplates = map[models.Role]RoleTemplate{
	models.RoleResearcher: {
		Role:              models.RoleResearcher,
		DefaultComplexity: models.ComplexityModerate,
		PromptPrefix:      "You are a researcher. Gather the requested information and cite where each fact came from.",
		ExpectedOutput:    "markdown summary",
	},
	models.RoleCoder: {
		Role:              models.RoleCoder,
		DefaultComplexity: models.ComplexityModerate,
		PromptPrefix:      "You are a coder. Implement exactly what is asked and describe the changes you made.",
		ExpectedOutput:    "code with change notes",
	},
	models.RoleAnalyst: {
		Role:              models.RoleAnalyst,
		DefaultComplexity: models.ComplexityModerate,
		PromptPrefix:      "You are an analyst. Weigh the options and give a concrete recommendation with reasoning.",
		ExpectedOutput:    "analysis with recommendation",
	},
	models.RoleWriter: {
		Role:              models.RoleWriter,
		DefaultComplexity: models.ComplexityModerate,
		PromptPrefix:      "You are a writer. Produce the requested document in clear prose.",
		ExpectedOutput:    "prose document",
	},
	models.RoleReviewer: {
		Role:              models.RoleReviewer,
		DefaultComplexity: models.ComplexitySimple,
		PromptPrefix:      "You are a reviewer. Critique the provided work and list concrete issues in priority order.",
		ExpectedOutput:    "review findings",
	},
	models.RoleIntegrator: {
		Role:              models.RoleIntegrator,
		DefaultComplexity: models.ComplexityComplex,
		PromptPrefix:      "You are an integrator. Combine the earlier outputs into one coherent result, resolving conflicts explicitly.",
		ExpectedOutput:    "combined result",
	},
}

// RoleTemplates is a validated, closed set of role templates.
type RoleTemplates struct {
	templates map[models.Role]RoleTemplate
}

// DefaultRoleTemplates returns the built-in role table.
func DefaultRoleTemplates() *RoleTemplates {
	return &RoleTemplates{templates: defaultRoleTemplates}
}

// LoadRoleTemplates reads role template overrides from a YAML file and
// merges them over the defaults. Unknown role names are a load-time error:
// a typo in roles.yaml should fail startup, not fall back silently.
func LoadRoleTemplates(path string) (*RoleTemplates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read role templates: %w", err)
	}

	var file struct {
		Roles []RoleTemplate `yaml:"roles"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse role templates: %w", err)
	}

	merged := make(map[models.Role]RoleTemplate, len(defaultRoleTemplates))
	for role, tmpl := range defaultRoleTemplates {
		merged[role] = tmpl
	}
	for _, tmpl := range file.Roles {
		if !tmpl.Role.Valid() {
			return nil, fmt.Errorf("unknown role %q in %s", tmpl.Role, path)
		}
		if tmpl.DefaultComplexity != "" && !tmpl.DefaultComplexity.Valid() {
			return nil, fmt.Errorf("unknown complexity %q for role %q in %s", tmpl.DefaultComplexity, tmpl.Role, path)
		}
		base := merged[tmpl.Role]
		if tmpl.DefaultComplexity != "" {
			base.DefaultComplexity = tmpl.DefaultComplexity
		}
		if tmpl.PromptPrefix != "" {
			base.PromptPrefix = tmpl.PromptPrefix
		}
		if tmpl.ExpectedOutput != "" {
			base.ExpectedOutput = tmpl.ExpectedOutput
		}
		if len(tmpl.Constraints) > 0 {
			base.Constraints = tmpl.Constraints
		}
		merged[tmpl.Role] = base
	}

	return &RoleTemplates{templates: merged}, nil
}

// Get returns the template for a role. Unknown roles are an error.
func (r *RoleTemplates) Get(role models.Role) (RoleTemplate, error) {
	tmpl, ok := r.templates[role]
	if !ok {
		return RoleTemplate{}, fmt.Errorf("no template for role %q", role)
	}
	return tmpl, nil
}

// AllConstraints returns the full constraint list for a role: the base
// constraints every role carries plus the template's own.
func (t RoleTemplate) AllConstraints() []string {
	out := make([]string, 0, len(baseConstraints)+len(t.Constraints))
	out = append(out, baseConstraints...)
	out = append(out, t.Constraints...)
	return out
}

// BuildPrompt renders the full prompt for a subtask under this template:
// prefix, task text, expected output, then the constraint block.
func (t RoleTemplate) BuildPrompt(task string) string {
	var b strings.Builder
	b.WriteString(t.PromptPrefix)
	b.WriteString("\n\n")
	b.WriteString(task)
	b.WriteString("\n\nExpected output: ")
	b.WriteString(t.ExpectedOutput)
	b.WriteString("\n\nConstraints:\n")
	for _, c := range t.AllConstraints() {
		b.WriteString("- ")
		b.WriteString(c)
		b.WriteString("\n")
	}
	return b.String()
}
