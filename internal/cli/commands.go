package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/klauern/synkron/internal/config"
	"github.com/klauern/synkron/internal/module"
	"github.com/klauern/synkron/internal/settings"
	"github.com/klauern/synkron/internal/ui"
	"github.com/klauern/synkron/internal/validation"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Display current configuration and the resolved settings store",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := appConfig(ctx, cmd)
			if err != nil {
				return err
			}

			shown := *cfg
			if shown.Remote.SecretKey != "" {
				shown.Remote.SecretKey = "********"
			}
			data, err := yaml.Marshal(&shown)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}

			fmt.Println(ui.Header("Config file:"), config.FilePath())
			if !config.Exists() {
				fmt.Println(ui.Dim("  (not present, using defaults)"))
			}
			fmt.Println()
			fmt.Print(string(data))
			fmt.Println()

			return withModule(ctx, cmd, false, func(m *module.Module) error {
				loc := m.Location()
				kind := "user"
				if loc.Portable {
					kind = "portable"
				}
				fmt.Println(ui.Header("Settings store:"), loc.Path)
				fmt.Printf("  format: %s\n", loc.Format)
				fmt.Printf("  location: %s\n", kind)
				return nil
			})
		},
	}
}

func settingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Read and write general application settings",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Print one setting",
				ArgsUsage: "<key>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					key := cmd.Args().First()
					if key == "" {
						return errors.New("missing argument <key>")
					}
					return withModule(ctx, cmd, false, func(m *module.Module) error {
						v, ok := m.Value(key)
						if !ok {
							return fmt.Errorf("setting %q is not set", key)
						}
						fmt.Println(settings.String(v))
						return nil
					})
				},
			},
			{
				Name:      "set",
				Usage:     "Set a setting; several values store a list",
				ArgsUsage: "<key> <value>...",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					args := cmd.Args().Slice()
					if len(args) < 2 {
						return errors.New("set requires a key and at least one value")
					}
					key := args[0]
					if err := validation.SettingKey(key); err != nil {
						return err
					}
					return withModule(ctx, cmd, true, func(m *module.Module) error {
						var value any = args[1:]
						if len(args) == 2 {
							value = args[1]
						}
						if err := m.SetValue(key, value); err != nil {
							return err
						}
						fmt.Println(ui.StatusSuccess(fmt.Sprintf("%s updated", key)))
						return nil
					})
				},
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List all general settings",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					format, err := outputFormat(ctx, cmd)
					if err != nil {
						return err
					}
					return withModule(ctx, cmd, false, func(m *module.Module) error {
						data := make(map[string]any, len(m.Keys()))
						var rows [][]string
						for _, k := range m.Keys() {
							v, _ := m.Value(k)
							data[k] = v
							rows = append(rows, []string{k, settings.String(v)})
						}
						return render(format, data, func() error {
							return printTable([]string{"KEY", "VALUE"}, rows, "No settings stored")
						})
					})
				},
			},
		},
	}
}
