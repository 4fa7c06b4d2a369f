// Package cli wires the goosectl commands together.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okapian/goosectl/internal/agent"
	"github.com/okapian/goosectl/internal/config"
	"github.com/okapian/goosectl/internal/logging"
)

// secretKeyEnv is the environment variable the daemon exports its key
// under when it spawns helpers.
const secretKeyEnv = "GOOSE_SERVER__SECRET_KEY"

var (
	cfgFile       string
	logLevel      string
	agentURL      string
	secretKeyFile string

	// loaded at init time
	paths config.Paths
	cfg   config.Config
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goosectl",
		Short: "goosectl — control a local goose agent daemon",
		Long: "goosectl manages a local goose agent daemon: its configuration,\n" +
			"extensions, recipes, and sessions, over the daemon's HTTP API.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}

			cfg, err = config.Load(paths.Config)
			if err != nil {
				return err
			}

			level := logLevel
			if level == "" {
				level = cfg.Logging.Level
			}
			log = logging.NewStyled(cfg.Logging.ConsoleStyle, level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/goose/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")
	cmd.PersistentFlags().StringVar(&agentURL, "agent-url", "", "agent daemon base URL (default from config)")
	cmd.PersistentFlags().StringVar(&secretKeyFile, "secret-key-file", "", "file holding the agent secret key")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newExtensionCmd())
	cmd.AddCommand(newRecipeCmd())
	cmd.AddCommand(newSessionCmd())
	cmd.AddCommand(newUICmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

// resolveAgentURL picks the daemon base URL from the flag or config.
func resolveAgentURL() string {
	if agentURL != "" {
		return strings.TrimRight(agentURL, "/")
	}
	return cfg.Agent.URL()
}

// resolveSecret finds the daemon secret key: the flag file wins, then
// the config's secretKeyFile, then the daemon's own environment export.
func resolveSecret() (string, error) {
	for _, path := range []string{secretKeyFile, cfg.Agent.SecretKeyFile} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading secret key file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	if v := os.Getenv(secretKeyEnv); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("no secret key: pass --secret-key-file, set agent.secretKeyFile, or export %s", secretKeyEnv)
}

// newAgentClient builds an authenticated client for the daemon.
func newAgentClient() (*agent.Client, error) {
	secret, err := resolveSecret()
	if err != nil {
		return nil, err
	}
	return agent.New(resolveAgentURL(), secret, log), nil
}
