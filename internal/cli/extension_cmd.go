package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okapian/goosectl/internal/extension"
)

func newExtensionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "extension",
		Aliases: []string{"ext"},
		Short:   "Manage agent extensions",
	}

	cmd.AddCommand(newExtensionListCmd())
	cmd.AddCommand(newExtensionAddCmd())
	cmd.AddCommand(newExtensionEnableCmd())
	cmd.AddCommand(newExtensionDisableCmd())
	cmd.AddCommand(newExtensionUpdateCmd())
	cmd.AddCommand(newExtensionRemoveCmd())
	cmd.AddCommand(newExtensionProbeCmd())
	cmd.AddCommand(newExtensionRegisterCmd())

	return cmd
}

// newExtensionManager assembles the manager from the live agent client
// and the persisted registry.
func newExtensionManager() (*extension.Manager, error) {
	client, err := newAgentClient()
	if err != nil {
		return nil, err
	}
	store := extension.NewStore(paths.Config)
	retries := cfg.Agent.StartupRetries
	if retries <= 0 {
		retries = 5
	}
	return extension.NewManager(client, store, log,
		extension.WithMaxRetries(retries)), nil
}

func newExtensionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured extensions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := extension.NewStore(paths.Config)
			entries, err := store.All()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No extensions configured.")
				return nil
			}
			for _, e := range entries {
				state := "disabled"
				if e.Enabled {
					state = "enabled"
				}
				target := e.Config.Cmd
				if target == "" {
					target = e.Config.URI
				}
				fmt.Printf("%-24s %-16s %-9s %s\n", e.Config.Name, e.Config.Type, state, target)
			}
			return nil
		},
	}
}

// extensionFlags collects the config-building flags shared by add and
// update.
type extensionFlags struct {
	extType     string
	description string
	cmdLine     string
	args        []string
	envs        []string
	envKeys     []string
	uri         string
	headers     []string
	timeout     int
}

func (f *extensionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.extType, "type", "stdio", "extension type (builtin, stdio, sse, streamable-http)")
	cmd.Flags().StringVar(&f.description, "description", "", "extension description")
	cmd.Flags().StringVar(&f.cmdLine, "cmd", "", "command to launch (stdio)")
	cmd.Flags().StringArrayVar(&f.args, "arg", nil, "command argument (stdio, repeatable)")
	cmd.Flags().StringArrayVar(&f.envs, "env", nil, "environment variable KEY=VALUE (repeatable)")
	cmd.Flags().StringArrayVar(&f.envKeys, "env-key", nil, "secret name the agent resolves at launch (repeatable)")
	cmd.Flags().StringVar(&f.uri, "uri", "", "endpoint URI (sse, streamable-http)")
	cmd.Flags().StringArrayVar(&f.headers, "header", nil, "request header KEY=VALUE (repeatable)")
	cmd.Flags().IntVar(&f.timeout, "timeout", 0, "startup timeout in seconds")
}

func (f *extensionFlags) build(name string) (extension.Config, error) {
	envs, err := parsePairs(f.envs, "--env")
	if err != nil {
		return extension.Config{}, err
	}
	headers, err := parsePairs(f.headers, "--header")
	if err != nil {
		return extension.Config{}, err
	}

	extType := extension.Type(strings.ReplaceAll(f.extType, "-", "_"))
	cfg := extension.Config{
		Type:        extType,
		Name:        name,
		Description: f.description,
		Cmd:         f.cmdLine,
		Args:        f.args,
		Envs:        envs,
		EnvKeys:     f.envKeys,
		URI:         f.uri,
		Headers:     headers,
		Timeout:     f.timeout,
	}
	return cfg, cfg.Validate()
}

func parsePairs(pairs []string, flag string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := map[string]string{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%s must be KEY=VALUE, got %q", flag, p)
		}
		out[k] = v
	}
	return out, nil
}

func newExtensionAddCmd() *cobra.Command {
	var flags extensionFlags
	var sessionID string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an extension and register it with the running agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extCfg, err := flags.build(args[0])
			if err != nil {
				return err
			}

			mgr, err := newExtensionManager()
			if err != nil {
				return err
			}
			if err := mgr.Activate(cmd.Context(), sessionID, extCfg); err != nil {
				return err
			}

			fmt.Printf("Added extension %s\n", extCfg.Name)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&sessionID, "session", "", "session to register the extension in")
	return cmd
}

func newExtensionEnableCmd() *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "enable <name>",
		Short: "Enable a configured extension",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := extension.NewStore(paths.Config)
			key := extension.Config{Name: args[0]}.Key()
			entry, ok, err := store.Get(key)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("unknown extension %q", args[0])
			}

			mgr, err := newExtensionManager()
			if err != nil {
				return err
			}
			if err := mgr.Activate(cmd.Context(), sessionID, entry.Config); err != nil {
				return err
			}

			fmt.Printf("Enabled extension %s\n", entry.Config.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session to register the extension in")
	return cmd
}

func newExtensionDisableCmd() *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "disable <name>",
		Short: "Disable an extension and deregister it from the agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newExtensionManager()
			if err != nil {
				return err
			}
			key := extension.Config{Name: args[0]}.Key()
			if err := mgr.Deactivate(cmd.Context(), sessionID, key); err != nil {
				return err
			}

			fmt.Printf("Disabled extension %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session to deregister the extension from")
	return cmd
}

func newExtensionUpdateCmd() *cobra.Command {
	var flags extensionFlags
	var sessionID string
	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Replace an extension's configuration and re-register it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extCfg, err := flags.build(args[0])
			if err != nil {
				return err
			}

			mgr, err := newExtensionManager()
			if err != nil {
				return err
			}
			if err := mgr.Update(cmd.Context(), sessionID, extCfg); err != nil {
				return err
			}

			fmt.Printf("Updated extension %s\n", extCfg.Name)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&sessionID, "session", "", "session to register the extension in")
	return cmd
}

func newExtensionRemoveCmd() *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove an extension from the registry and the agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newExtensionManager()
			if err != nil {
				return err
			}
			key := extension.Config{Name: args[0]}.Key()
			if err := mgr.Delete(cmd.Context(), sessionID, key); err != nil {
				return err
			}

			fmt.Printf("Removed extension %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session to deregister the extension from")
	return cmd
}

func newExtensionProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe <name>",
		Short: "Connect to an extension directly and list its tools",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := extension.NewStore(paths.Config)
			key := extension.Config{Name: args[0]}.Key()
			entry, ok, err := store.Get(key)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("unknown extension %q", args[0])
			}

			res, err := extension.Probe(cmd.Context(), entry.Config)
			if err != nil {
				return err
			}

			fmt.Printf("Server:  %s %s\n", res.ServerName, res.ServerVersion)
			if len(res.Tools) == 0 {
				fmt.Println("Tools:   (none)")
				return nil
			}
			fmt.Printf("Tools:   %d\n", len(res.Tools))
			for _, tool := range res.Tools {
				fmt.Printf("  - %s\n", tool)
			}
			return nil
		},
	}
}

func newExtensionRegisterCmd() *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register every enabled extension with the agent",
		Long: "Registers every enabled extension with the running agent, retrying\n" +
			"with backoff while the agent reports it is still initializing.\n" +
			"Extensions that exhaust the retry budget are disabled.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newExtensionManager()
			if err != nil {
				return err
			}

			res, err := mgr.RegisterStartup(cmd.Context(), sessionID)
			if err != nil {
				return err
			}

			for _, name := range res.Registered {
				fmt.Printf("Registered %s\n", name)
			}
			for _, f := range res.Failures {
				fmt.Printf("Failed %s: %v (disabled)\n", f.Name, f.Err)
			}
			if len(res.Failures) > 0 {
				return fmt.Errorf("%d extension(s) failed to register", len(res.Failures))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session to register extensions in")
	return cmd
}
