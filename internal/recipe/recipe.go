// Package recipe implements the parameterized prompt bundles an agent
// session can be started from: parsing, validation, template parameter
// substitution, deep-link encoding, and the on-disk recipe library.
package recipe

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/okapian/goosectl/internal/extension"
)

// Parameter requirement levels.
const (
	RequirementRequired   = "required"
	RequirementOptional   = "optional"
	RequirementUserPrompt = "user_prompt"
)

// Parameter is one template variable a recipe declares.
type Parameter struct {
	Key         string `yaml:"key" json:"key"`
	InputType   string `yaml:"input_type,omitempty" json:"input_type,omitempty"`
	Requirement string `yaml:"requirement,omitempty" json:"requirement,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Default     string `yaml:"default,omitempty" json:"default,omitempty"`
}

// SubRecipe references another recipe to be run as a step of this one.
type SubRecipe struct {
	Name   string            `yaml:"name" json:"name"`
	Path   string            `yaml:"path" json:"path"`
	Values map[string]string `yaml:"values,omitempty" json:"values,omitempty"`
}

// Response constrains the final agent answer to a JSON schema.
type Response struct {
	JSONSchema map[string]any `yaml:"json_schema,omitempty" json:"json_schema,omitempty"`
}

// Author records recipe provenance.
type Author struct {
	Contact  string `yaml:"contact,omitempty" json:"contact,omitempty"`
	Metadata string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Recipe is a persisted prompt/instruction bundle plus the extensions a
// session started from it needs.
type Recipe struct {
	Version      string             `yaml:"version,omitempty" json:"version,omitempty"`
	Title        string             `yaml:"title" json:"title"`
	Description  string             `yaml:"description" json:"description"`
	Instructions string             `yaml:"instructions,omitempty" json:"instructions,omitempty"`
	Prompt       string             `yaml:"prompt,omitempty" json:"prompt,omitempty"`
	Activities   []string           `yaml:"activities,omitempty" json:"activities,omitempty"`
	Parameters   []Parameter        `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Extensions   []extension.Config `yaml:"extensions,omitempty" json:"extensions,omitempty"`
	SubRecipes   []SubRecipe        `yaml:"sub_recipes,omitempty" json:"sub_recipes,omitempty"`
	Response     *Response          `yaml:"response,omitempty" json:"response,omitempty"`
	Author       *Author            `yaml:"author,omitempty" json:"author,omitempty"`
}

// ValidationError aggregates everything wrong with a recipe.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid recipe: %s", strings.Join(e.Issues, "; "))
}

// Validate checks the recipe's required fields, parameter declarations,
// embedded extension configs, and response schema. It never touches the
// filesystem, so callers can rely on validation happening before any
// save.
func (r *Recipe) Validate() error {
	var issues []string

	if strings.TrimSpace(r.Title) == "" {
		issues = append(issues, "title is required")
	}
	if strings.TrimSpace(r.Description) == "" {
		issues = append(issues, "description is required")
	}
	if strings.TrimSpace(r.Instructions) == "" && strings.TrimSpace(r.Prompt) == "" {
		issues = append(issues, "either instructions or prompt is required")
	}

	seen := map[string]bool{}
	for _, p := range r.Parameters {
		if strings.TrimSpace(p.Key) == "" {
			issues = append(issues, "parameter key is required")
			continue
		}
		if seen[p.Key] {
			issues = append(issues, fmt.Sprintf("duplicate parameter %q", p.Key))
		}
		seen[p.Key] = true
		switch p.Requirement {
		case "", RequirementRequired, RequirementUserPrompt:
		case RequirementOptional:
			if p.Default == "" {
				issues = append(issues, fmt.Sprintf("optional parameter %q needs a default", p.Key))
			}
		default:
			issues = append(issues, fmt.Sprintf("parameter %q: unknown requirement %q", p.Key, p.Requirement))
		}
	}

	for _, ext := range r.Extensions {
		if err := ext.Validate(); err != nil {
			issues = append(issues, err.Error())
		}
	}

	for _, sub := range r.SubRecipes {
		if strings.TrimSpace(sub.Path) == "" {
			issues = append(issues, fmt.Sprintf("sub-recipe %q needs a path", sub.Name))
		}
	}

	if r.Response != nil && r.Response.JSONSchema != nil {
		loader := gojsonschema.NewGoLoader(r.Response.JSONSchema)
		if _, err := gojsonschema.NewSchema(loader); err != nil {
			issues = append(issues, fmt.Sprintf("response schema does not compile: %v", err))
		}
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}
