package recipe

import (
	"regexp"
	"strings"
)

// templateVarPattern matches simple {{name}} placeholders. Dotted or
// piped expressions like {{a.b | c}} are deliberately not matched; those
// belong to the agent-side template engine, not to parameter
// substitution.
var templateVarPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

// ExtractTemplateVariables returns the placeholder names found in text,
// deduplicated, in order of first appearance.
func ExtractTemplateVariables(text string) []string {
	matches := templateVarPattern.FindAllStringSubmatch(text, -1)
	seen := map[string]bool{}
	var vars []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			vars = append(vars, m[1])
		}
	}
	return vars
}

// SubstituteParameters replaces {{name}} placeholders with the given
// values. Placeholders without a value are left verbatim.
func SubstituteParameters(text string, values map[string]string) string {
	return templateVarPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := templateVarPattern.FindStringSubmatch(match)[1]
		if v, ok := values[name]; ok {
			return v
		}
		return match
	})
}

// TemplateVariables returns every placeholder used across the recipe's
// instructions and prompt.
func (r *Recipe) TemplateVariables() []string {
	return ExtractTemplateVariables(strings.Join([]string{r.Instructions, r.Prompt}, "\n"))
}

// Apply returns a copy of the recipe with parameter values substituted
// into its instructions and prompt. Declared defaults fill in values the
// caller did not provide.
func (r *Recipe) Apply(values map[string]string) *Recipe {
	merged := map[string]string{}
	for _, p := range r.Parameters {
		if p.Default != "" {
			merged[p.Key] = p.Default
		}
	}
	for k, v := range values {
		merged[k] = v
	}

	out := *r
	out.Instructions = SubstituteParameters(r.Instructions, merged)
	out.Prompt = SubstituteParameters(r.Prompt, merged)
	return &out
}

// MissingParameters returns declared required parameters that neither
// have a value in values nor a default.
func (r *Recipe) MissingParameters(values map[string]string) []string {
	var missing []string
	for _, p := range r.Parameters {
		req := p.Requirement
		if req == "" {
			req = RequirementRequired
		}
		if req != RequirementRequired {
			continue
		}
		if _, ok := values[p.Key]; !ok && p.Default == "" {
			missing = append(missing, p.Key)
		}
	}
	return missing
}
