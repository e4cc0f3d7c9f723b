package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/klauern/synkron/internal/exceptions"
	"github.com/klauern/synkron/internal/module"
	"github.com/klauern/synkron/internal/ui"
	"github.com/klauern/synkron/internal/validation"
)

func exceptionsCommand() *cli.Command {
	ruleFlags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "Wildcard pattern matched against file and folder names (repeatable)",
		},
		&cli.StringSliceFlag{
			Name:  "folder",
			Usage: "Folder path relative to a sync folder (repeatable)",
		},
		&cli.StringSliceFlag{
			Name:  "file",
			Usage: "File path relative to a sync folder (repeatable)",
		},
	}

	return &cli.Command{
		Name:    "exceptions",
		Aliases: []string{"exc"},
		Usage:   "Manage exception bundles shared by all sync profiles",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List exception bundles",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					format, err := outputFormat(ctx, cmd)
					if err != nil {
						return err
					}
					return withModule(ctx, cmd, false, func(m *module.Module) error {
						bundles := m.Exceptions().Bundles()
						var rows [][]string
						for _, b := range bundles {
							rows = append(rows, []string{
								strconv.Itoa(b.ID),
								b.Name,
								strings.Join(b.Filters, " "),
								strings.Join(b.Folders, " "),
								strings.Join(b.Files, " "),
							})
						}
						return render(format, bundles, func() error {
							return printTable([]string{"ID", "NAME", "FILTERS", "FOLDERS", "FILES"}, rows, "No exception bundles")
						})
					})
				},
			},
			{
				Name:      "add",
				Usage:     "Create an exception bundle",
				ArgsUsage: "<name>",
				Flags:     ruleFlags,
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name := cmd.Args().First()
					if name == "" {
						return errors.New("missing argument <name>")
					}
					return withModule(ctx, cmd, true, func(m *module.Module) error {
						b := &exceptions.Bundle{
							Name:    name,
							Filters: cmd.StringSlice("filter"),
							Folders: cmd.StringSlice("folder"),
							Files:   cmd.StringSlice("file"),
						}
						if err := checkBundle(b); err != nil {
							return err
						}
						if err := m.Exceptions().AddBundle(b); err != nil {
							return err
						}
						fmt.Println(ui.StatusSuccess(fmt.Sprintf("Created exception bundle %d (%s)", b.ID, b.Name)))
						return nil
					})
				},
			},
			{
				Name:      "edit",
				Usage:     "Change an exception bundle; given rule lists replace the old ones",
				ArgsUsage: "<bundle>",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "New bundle name",
					},
				}, ruleFlags...),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := intArg(cmd, 0, "bundle")
					if err != nil {
						return err
					}
					return withModule(ctx, cmd, true, func(m *module.Module) error {
						current, ok := m.Exceptions().Bundle(id)
						if !ok {
							return fmt.Errorf("%w: %d", exceptions.ErrBundleNotFound, id)
						}
						b := current.Clone()
						if cmd.IsSet("name") {
							b.Name = cmd.String("name")
						}
						if cmd.IsSet("filter") {
							b.Filters = cmd.StringSlice("filter")
						}
						if cmd.IsSet("folder") {
							b.Folders = cmd.StringSlice("folder")
						}
						if cmd.IsSet("file") {
							b.Files = cmd.StringSlice("file")
						}
						if err := checkBundle(b); err != nil {
							return err
						}
						if err := m.Exceptions().ChangeBundle(b); err != nil {
							return err
						}
						fmt.Println(ui.StatusSuccess(fmt.Sprintf("Updated exception bundle %d", id)))
						return nil
					})
				},
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove an exception bundle from every sync profile",
				ArgsUsage: "<bundle>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := intArg(cmd, 0, "bundle")
					if err != nil {
						return err
					}
					return withModule(ctx, cmd, true, func(m *module.Module) error {
						if err := m.Exceptions().RemoveBundle(id); err != nil {
							return err
						}
						fmt.Println(ui.StatusSuccess(fmt.Sprintf("Removed exception bundle %d", id)))
						return nil
					})
				},
			},
		},
	}
}

// checkBundle prints validation warnings and returns validation errors.
func checkBundle(b *exceptions.Bundle) error {
	r := validation.Bundle(b)
	for _, w := range r.Warnings {
		fmt.Println(ui.StatusWarning(w))
	}
	return r.Err()
}
