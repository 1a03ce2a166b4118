package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kaltenberg/overmark/pkg/errors"
	"github.com/kaltenberg/overmark/pkg/mark"
	"github.com/kaltenberg/overmark/pkg/preset"
)

// presetCommand creates the preset command with its subcommands.
func (c *CLI) presetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage named watermark presets",
	}

	cmd.AddCommand(c.presetSaveCommand())
	cmd.AddCommand(c.presetListCommand())
	cmd.AddCommand(c.presetShowCommand())
	cmd.AddCommand(c.presetDeleteCommand())

	return cmd
}

// presetSaveCommand stores the flag-built spec under a name.
func (c *CLI) presetSaveCommand() *cobra.Command {
	var flags markFlags

	cmd := &cobra.Command{
		Use:   "save [name]",
		Short: "Save the given watermark settings as a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := c.resolveSpec(cmd, &flags)
			if err != nil {
				return err
			}

			store, err := c.newPresetStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Save(cmd.Context(), preset.Preset{Name: args[0], Spec: spec}); err != nil {
				return err
			}
			printSuccess("Saved preset %q", args[0])
			printNextStep("Apply it", fmt.Sprintf("overmark apply photo.png --preset %s", args[0]))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// presetListCommand lists stored preset names. With --interactive it opens a
// picker and shows the chosen preset.
func (c *CLI) presetListCommand() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.newPresetStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			names, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				printInfo("No presets stored")
				printNextStep("Create one", "overmark preset save draft --text DRAFT --angle 45")
				return nil
			}

			if interactive {
				name, ok, err := pickPreset(names)
				if err != nil || !ok {
					return err
				}
				p, err := store.Load(cmd.Context(), name)
				if err != nil {
					return err
				}
				return printPreset(p)
			}

			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick a preset interactively")
	return cmd
}

// presetShowCommand prints one preset as JSON.
func (c *CLI) presetShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Show a stored preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.newPresetStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			p, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printPreset(p)
		},
	}
}

// presetDeleteCommand removes a stored preset.
func (c *CLI) presetDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a stored preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.newPresetStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, errors.ErrCodePresetNotFound) {
					printWarning("Preset %q not found", args[0])
					return nil
				}
				return err
			}
			printSuccess("Deleted preset %q", args[0])
			return nil
		},
	}
}

// printPreset renders a preset for terminal display.
func printPreset(p preset.Preset) error {
	fmt.Println(StyleTitle.Render(p.Name))
	printKeyValue("text", p.Spec.Text)
	printKeyValue("mode", string(p.Spec.Mode))
	if p.Spec.Mode == mark.ModeSingle {
		printKeyValue("anchor", string(p.Spec.Anchor))
	}
	printKeyValue("font size", fmt.Sprintf("%g", p.Spec.FontSize))
	printKeyValue("color", p.Spec.Color.Hex())
	printKeyValue("opacity", fmt.Sprintf("%g", p.Spec.Opacity))
	printKeyValue("angle", fmt.Sprintf("%g", p.Spec.Angle))

	data, err := json.MarshalIndent(p.Spec, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(StyleDim.Render(string(data)))
	return nil
}
