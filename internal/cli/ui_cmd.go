package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/okapian/goosectl/internal/state"
)

// releaseEndpoint is where the latest goose release is looked up.
const releaseEndpoint = "https://api.github.com/repos/block/goose/releases/latest"

func newUICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Manage client-side preferences",
	}

	cmd.AddCommand(newUIThemeCmd())
	cmd.AddCommand(newUIDictationCmd())
	cmd.AddCommand(newUIUpdateCheckCmd())

	return cmd
}

// openState opens the app-state database under the data directory.
func openState() (*state.DB, error) {
	if err := paths.EnsureDirs(); err != nil {
		return nil, err
	}
	return state.Open(filepath.Join(paths.Data, "state.db"), log)
}

func newUIThemeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "theme [light|dark|system]",
		Short: "Show or set the UI theme",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openState()
			if err != nil {
				return err
			}
			defer db.Close()

			if len(args) == 0 {
				theme, err := db.Theme()
				if err != nil {
					return err
				}
				fmt.Println(theme)
				return nil
			}

			switch args[0] {
			case "light", "dark", "system":
			default:
				return fmt.Errorf("theme must be light, dark, or system")
			}
			if err := db.SetTheme(args[0]); err != nil {
				return err
			}
			fmt.Printf("Theme set to %s\n", args[0])
			return nil
		},
	}
}

func newUIDictationCmd() *cobra.Command {
	var (
		enable   bool
		disable  bool
		provider string
		locale   string
	)
	cmd := &cobra.Command{
		Use:   "dictation",
		Short: "Show or change dictation settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if enable && disable {
				return fmt.Errorf("--enable and --disable are mutually exclusive")
			}

			db, err := openState()
			if err != nil {
				return err
			}
			defer db.Close()

			d, err := db.Dictation()
			if err != nil {
				return err
			}

			changed := false
			if enable {
				d.Enabled = true
				changed = true
			}
			if disable {
				d.Enabled = false
				changed = true
			}
			if provider != "" {
				d.Provider = provider
				changed = true
			}
			if locale != "" {
				d.Locale = locale
				changed = true
			}

			if changed {
				if err := db.SetDictation(d); err != nil {
					return err
				}
			}

			status := "disabled"
			if d.Enabled {
				status = "enabled"
			}
			fmt.Printf("Dictation: %s", status)
			if d.Provider != "" {
				fmt.Printf(" provider=%s", d.Provider)
			}
			if d.Locale != "" {
				fmt.Printf(" locale=%s", d.Locale)
			}
			fmt.Println()
			return nil
		},
	}
	cmd.Flags().BoolVar(&enable, "enable", false, "turn dictation on")
	cmd.Flags().BoolVar(&disable, "disable", false, "turn dictation off")
	cmd.Flags().StringVar(&provider, "provider", "", "dictation provider")
	cmd.Flags().StringVar(&locale, "locale", "", "dictation locale, e.g. en-US")
	return cmd
}

func newUIUpdateCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update-check",
		Short: "Print the latest release page URL",
		Long: "Looks up the latest release and prints its page URL. The lookup\n" +
			"result is cached for an hour.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openState()
			if err != nil {
				return err
			}
			defer db.Close()

			if url, ok, err := db.CachedURL(state.ReleaseURLKey); err != nil {
				return err
			} else if ok {
				fmt.Println(url)
				return nil
			}

			url, err := fetchLatestReleaseURL(cmd)
			if err != nil {
				return err
			}
			if err := db.CacheURL(state.ReleaseURLKey, url); err != nil {
				log.Warn().Err(err).Msg("could not cache release url")
			}
			fmt.Println(url)
			return nil
		},
	}
}

func fetchLatestReleaseURL(cmd *cobra.Command) (string, error) {
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, releaseEndpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	if err != nil {
		return "", fmt.Errorf("release lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release lookup returned HTTP %d", resp.StatusCode)
	}

	var release struct {
		HTMLURL string `json:"html_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", fmt.Errorf("parsing release response: %w", err)
	}
	if release.HTMLURL == "" {
		return "", fmt.Errorf("release response missing html_url")
	}
	return release.HTMLURL, nil
}
