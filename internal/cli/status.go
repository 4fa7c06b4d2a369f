package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okapian/goosectl/internal/agent"
	"github.com/okapian/goosectl/internal/config"
	"github.com/okapian/goosectl/internal/extension"
	"github.com/okapian/goosectl/internal/version"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show goosectl status and configuration summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("goosectl %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Printf("Config:  %s\n", paths.Config)
			fmt.Printf("Recipes: %s\n", paths.Recipes)
			fmt.Printf("Data:    %s\n", paths.Data)
			fmt.Println()

			baseURL := resolveAgentURL()
			if err := agent.Detect(cmd.Context(), baseURL); err != nil {
				fmt.Printf("Agent:   not running at %s\n", baseURL)
			} else {
				fmt.Printf("Agent:   running at %s\n", baseURL)
			}

			if host, err := agent.DetectOllama(cmd.Context()); err == nil {
				fmt.Printf("Ollama:  running at %s\n", host)
			} else {
				fmt.Println("Ollama:  (not detected)")
			}

			provider := cfg.Provider.Name
			if provider == "" {
				provider = "(unset)"
			}
			model := cfg.Provider.Model
			if model == "" {
				model = "(unset)"
			}
			fmt.Printf("Provider: %s model=%s mode=%s maxTurns=%d\n",
				provider, model, cfg.Provider.Mode, cfg.Provider.MaxTurns)

			store := extension.NewStore(paths.Config)
			entries, err := store.All()
			if err == nil {
				enabled := 0
				for _, e := range entries {
					if e.Enabled {
						enabled++
					}
				}
				fmt.Printf("Extensions: %d configured, %d enabled\n", len(entries), enabled)
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Printf("\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Printf("  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}
}
