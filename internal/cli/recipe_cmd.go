package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/okapian/goosectl/internal/config"
	"github.com/okapian/goosectl/internal/recipe"
)

func newRecipeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipe",
		Short: "Manage the recipe library",
	}

	cmd.AddCommand(newRecipeListCmd())
	cmd.AddCommand(newRecipeShowCmd())
	cmd.AddCommand(newRecipeValidateCmd())
	cmd.AddCommand(newRecipeImportCmd())
	cmd.AddCommand(newRecipeEncodeCmd())
	cmd.AddCommand(newRecipeDecodeCmd())
	cmd.AddCommand(newRecipeDeleteCmd())

	return cmd
}

// newRecipeStore builds the store over the global library and the
// project-local one under the working directory.
func newRecipeStore() *recipe.Store {
	localDir := ""
	if wd, err := os.Getwd(); err == nil {
		localDir = filepath.Join(wd, config.LocalRecipeDir)
	}
	return recipe.NewStore(paths.Recipes, localDir, log)
}

func newRecipeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved recipes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manifests, err := newRecipeStore().List()
			if err != nil {
				return err
			}
			if len(manifests) == 0 {
				fmt.Println("No recipes saved.")
				return nil
			}
			for _, m := range manifests {
				scope := "local"
				if m.IsGlobal {
					scope = "global"
				}
				fmt.Printf("%s  %-7s %-30s %s\n",
					m.ID, scope, m.Name, m.LastModified.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newRecipeShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a saved recipe as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newRecipeStore().Get(args[0])
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(m.Recipe)
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}
}

func newRecipeValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a recipe file without saving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := recipe.FromFile(args[0])
			if err != nil {
				return err
			}
			if err := r.Validate(); err != nil {
				return err
			}

			fmt.Printf("Recipe %q is valid.\n", r.Title)
			if vars := r.TemplateVariables(); len(vars) > 0 {
				fmt.Printf("Template variables: %s\n", strings.Join(vars, ", "))
			}
			return nil
		},
	}
}

func newRecipeImportCmd() *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "import <file-or-deeplink>",
		Short: "Import a recipe from a file or a goose:// deep link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newRecipeStore().Import(args[0], !local)
			if err != nil {
				return err
			}

			fmt.Printf("Imported %q to %s\n", m.Name, m.Path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "save to the project-local library instead of the global one")
	return cmd
}

func newRecipeEncodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode <file>",
		Short: "Encode a recipe file as a shareable deep link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := recipe.FromFile(args[0])
			if err != nil {
				return err
			}
			if err := r.Validate(); err != nil {
				return err
			}

			link, err := recipe.EncodeDeeplink(r)
			if err != nil {
				return err
			}
			fmt.Println(link)
			return nil
		},
	}
}

func newRecipeDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <deeplink>",
		Short: "Decode a deep link and print the recipe as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := recipe.DecodeDeeplink(args[0])
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(r)
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}
}

func newRecipeDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved recipe by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newRecipeStore().Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted recipe %s\n", args[0])
			return nil
		},
	}
}
