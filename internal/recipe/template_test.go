package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTemplateVariables(t *testing.T) {
	assert.Equal(t, []string{"name", "app"},
		ExtractTemplateVariables("Hello {{name}}, {{app}}"))

	// piped and dotted expressions belong to the agent template engine
	assert.Empty(t, ExtractTemplateVariables("{{a.b | c}}"))
	assert.Equal(t, []string{"x"}, ExtractTemplateVariables("{{x}} and {{a.b}}"))

	// deduplicated in order of first appearance
	assert.Equal(t, []string{"b", "a"},
		ExtractTemplateVariables("{{b}} {{a}} {{b}}"))

	// whitespace inside braces is tolerated
	assert.Equal(t, []string{"name"}, ExtractTemplateVariables("{{ name }}"))

	assert.Empty(t, ExtractTemplateVariables("no placeholders here"))
}

func TestSubstituteParameters(t *testing.T) {
	out := SubstituteParameters("Hi {{name}}", map[string]string{"name": "Bob"})
	assert.Equal(t, "Hi Bob", out)

	// unmatched placeholders stay verbatim
	out = SubstituteParameters("Hi {{name}}, welcome to {{app}}",
		map[string]string{"name": "Bob"})
	assert.Equal(t, "Hi Bob, welcome to {{app}}", out)

	out = SubstituteParameters("{{ spaced }}", map[string]string{"spaced": "ok"})
	assert.Equal(t, "ok", out)
}

func TestRecipeApply(t *testing.T) {
	r := &Recipe{
		Title:        "t",
		Description:  "d",
		Instructions: "Review {{repo}} on {{branch}}",
		Prompt:       "Start with {{repo}}",
		Parameters: []Parameter{
			{Key: "repo", Requirement: RequirementRequired},
			{Key: "branch", Requirement: RequirementOptional, Default: "main"},
		},
	}

	applied := r.Apply(map[string]string{"repo": "goosectl"})
	assert.Equal(t, "Review goosectl on main", applied.Instructions)
	assert.Equal(t, "Start with goosectl", applied.Prompt)

	// caller values win over defaults
	applied = r.Apply(map[string]string{"repo": "goosectl", "branch": "dev"})
	assert.Equal(t, "Review goosectl on dev", applied.Instructions)

	// the original is untouched
	assert.Equal(t, "Review {{repo}} on {{branch}}", r.Instructions)
}

func TestMissingParameters(t *testing.T) {
	r := &Recipe{
		Parameters: []Parameter{
			{Key: "repo"}, // requirement defaults to required
			{Key: "branch", Requirement: RequirementOptional, Default: "main"},
			{Key: "style", Requirement: RequirementUserPrompt},
		},
	}

	assert.Equal(t, []string{"repo"}, r.MissingParameters(nil))
	assert.Empty(t, r.MissingParameters(map[string]string{"repo": "x"}))
}

func TestRecipeTemplateVariables(t *testing.T) {
	r := &Recipe{Instructions: "use {{repo}}", Prompt: "and {{branch}} plus {{repo}}"}
	assert.Equal(t, []string{"repo", "branch"}, r.TemplateVariables())
}
