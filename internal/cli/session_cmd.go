package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okapian/goosectl/internal/confirm"
	"github.com/okapian/goosectl/internal/recipe"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and start agent sessions",
	}

	cmd.AddCommand(newSessionListCmd())
	cmd.AddCommand(newSessionToolsCmd())
	cmd.AddCommand(newSessionStartCmd())
	cmd.AddCommand(newSessionConfirmCmd())

	return cmd
}

func newSessionConfirmCmd() *cobra.Command {
	var decisionFlag string
	cmd := &cobra.Command{
		Use:   "confirm <session-id>",
		Short: "Answer pending tool confirmations in a session",
		Long: "Applies a decision to every pending tool confirmation in the\n" +
			"session. An always-allow decision for a tool carries over to the\n" +
			"other pending confirmations for the same tool.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decision, err := confirm.ParseDecision(decisionFlag)
			if err != nil {
				return err
			}

			client, err := newAgentClient()
			if err != nil {
				return err
			}

			pending, err := client.PendingConfirmations(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				fmt.Println("No pending confirmations.")
				return nil
			}

			decisions := confirm.NewStore()
			for _, p := range pending {
				d := decision
				if decisions.AllowedForTool(p.ToolName) {
					d = confirm.AllowOnce
				}
				if err := decisions.Record(p.ID, p.ToolName, p.Prompt, d); err != nil {
					return err
				}
				if err := client.SubmitConfirmation(cmd.Context(), p.ID, d.Action()); err != nil {
					return err
				}
				fmt.Printf("%s %s: %s\n", p.ID, p.ToolName, d)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&decisionFlag, "decision", string(confirm.AllowOnce),
		"decision to apply (allow-once, always-allow, deny)")
	return cmd
}

func newSessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the daemon's sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAgentClient()
			if err != nil {
				return err
			}

			sessions, err := client.ListSessions(cmd.Context())
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("No sessions.")
				return nil
			}
			for _, s := range sessions {
				fmt.Printf("%-36s %-40s %s\n", s.ID, s.Description, s.WorkingDir)
			}
			return nil
		},
	}
}

func newSessionToolsCmd() *cobra.Command {
	var extensionName string
	cmd := &cobra.Command{
		Use:   "tools <session-id>",
		Short: "List the tools visible in a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAgentClient()
			if err != nil {
				return err
			}

			tools, err := client.ListTools(cmd.Context(), args[0], extensionName)
			if err != nil {
				return err
			}
			if len(tools) == 0 {
				fmt.Println("No tools.")
				return nil
			}
			for _, tool := range tools {
				fmt.Printf("%-32s %s\n", tool.Name, tool.Description)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&extensionName, "extension", "", "only show tools from this extension")
	return cmd
}

func newSessionStartCmd() *cobra.Command {
	var (
		workingDir string
		recipePath string
		params     []string
	)
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a new agent session, optionally from a recipe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAgentClient()
			if err != nil {
				return err
			}

			if workingDir == "" {
				workingDir, err = os.Getwd()
				if err != nil {
					return err
				}
			}

			var r *recipe.Recipe
			if recipePath != "" {
				r, err = recipe.FromFile(recipePath)
				if err != nil {
					return err
				}
				if err := r.Validate(); err != nil {
					return err
				}

				values, err := parsePairs(params, "--param")
				if err != nil {
					return err
				}
				if missing := r.MissingParameters(values); len(missing) > 0 {
					return fmt.Errorf("missing required parameters: %v", missing)
				}
				r = r.Apply(values)
			}

			s, err := client.StartAgent(cmd.Context(), workingDir, r)
			if err != nil {
				return err
			}

			fmt.Printf("Started session %s in %s\n", s.ID, workingDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&workingDir, "dir", "", "working directory for the session (default: current)")
	cmd.Flags().StringVar(&recipePath, "recipe", "", "recipe file to start the session from")
	cmd.Flags().StringArrayVar(&params, "param", nil, "recipe parameter KEY=VALUE (repeatable)")
	return cmd
}
