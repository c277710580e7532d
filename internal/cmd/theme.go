package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wethinkt/thinkt-live/internal/cli"
	"github.com/wethinkt/thinkt-live/internal/config"
	"github.com/wethinkt/thinkt-live/internal/tui/theme"
)

// Theme command
var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Show and select viewer themes",
	Long: `Show and select viewer themes.

The theme controls colors for transcript rows, labels, borders and the
connection indicator. User themes are JSON files in ~/.thinkt-live/themes/
and only need the fields they change; everything else comes from "dark".

Examples:
  thinkt-live theme            # Show the active theme
  thinkt-live theme list       # List all available themes
  thinkt-live theme set light  # Switch to a theme`,
	Args: cobra.NoArgs,
	RunE: runThemeShow,
}

var themeShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Display a theme with styled samples",
	Long: `Display a theme with styled samples.

If no name is provided, shows the active theme.

Examples:
  thinkt-live theme show          # Show active theme
  thinkt-live theme show light    # Show the light theme
  thinkt-live theme show --json   # Output active theme as JSON`,
	Args: cobra.MaximumNArgs(1),
	RunE: runThemeShow,
}

var themeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available themes",
	Long:  `List all built-in and user themes. The active theme is marked with *.`,
	Args:  cobra.NoArgs,
	RunE:  runThemeList,
}

var themeSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Set the active theme",
	Args:  cobra.ExactArgs(1),
	RunE:  runThemeSet,
}

func init() {
	themeCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output theme as JSON")
	themeCmd.AddCommand(themeShowCmd)
	themeCmd.AddCommand(themeListCmd)
	themeCmd.AddCommand(themeSetCmd)
}

// runThemeShow displays a theme by name, or the active theme if no name given.
func runThemeShow(cmd *cobra.Command, args []string) error {
	name := cfg.Theme
	if len(args) > 0 {
		name = args[0]
	}
	t, err := theme.LoadByName(name)
	if err != nil {
		return err
	}

	display := cli.NewThemeDisplay(cmd.OutOrStdout(), t)
	if outputJSON {
		return display.ShowJSON()
	}
	return display.Show()
}

func runThemeList(cmd *cobra.Command, args []string) error {
	return cli.ListThemes(cmd.OutOrStdout(), cfg.Theme)
}

// runThemeSet validates the theme and stores it in the config file.
func runThemeSet(cmd *cobra.Command, args []string) error {
	name := args[0]
	if _, err := theme.LoadByName(name); err != nil {
		return err
	}

	cfg.Theme = name
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Theme set to: %s\n", name)
	return nil
}
