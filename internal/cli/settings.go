package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/famtree/pkg/settings"
)

func (c *CLI) settingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change user settings",
	}
	cmd.AddCommand(c.settingsShowCommand())
	cmd.AddCommand(c.settingsSetCommand())
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(c.SettingsPath)
		},
	})
	return cmd
}

func (c *CLI) settingsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print every setting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, key := range settings.Keys() {
				v, err := c.Settings.Get(key)
				if err != nil {
					return err
				}
				printKeyValue(key, v)
			}
			printDetail("%s", c.SettingsPath)
			return nil
		},
	}
}

func (c *CLI) settingsSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Example: `  famtree settings set language en
  famtree settings set node_color_theme high_contrast
  famtree settings set tree family.db`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return settings.Keys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveDefault
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.Settings.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := c.Settings.Save(c.SettingsPath); err != nil {
				return err
			}
			v, _ := c.Settings.Get(args[0])
			printSuccess("%s = %s", args[0], StyleHighlight.Render(v))
			return nil
		},
	}
}
