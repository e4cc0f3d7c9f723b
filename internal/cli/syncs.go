package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/klauern/synkron/internal/module"
	"github.com/klauern/synkron/internal/profile"
	"github.com/klauern/synkron/internal/ui"
	"github.com/klauern/synkron/internal/validation"
)

// syncOutput is the JSON/YAML view of one sync profile.
type syncOutput struct {
	ID      int             `json:"id" yaml:"id"`
	Name    string          `json:"name" yaml:"name"`
	Options profile.Options `json:"options" yaml:"options"`
	Bundles []int           `json:"bundles" yaml:"bundles"`
	Folders []folderOutput  `json:"folders" yaml:"folders"`
}

type folderOutput struct {
	ID      int    `json:"id" yaml:"id"`
	Path    string `json:"path" yaml:"path"`
	Label   string `json:"label,omitempty" yaml:"label,omitempty"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

func newSyncOutput(p *profile.Profile) syncOutput {
	out := syncOutput{ID: p.ID(), Name: p.Name, Options: p.Options, Bundles: []int{}, Folders: []folderOutput{}}
	for _, b := range p.ActiveBundles() {
		out.Bundles = append(out.Bundles, b.ID)
	}
	for _, f := range p.Folders() {
		out.Folders = append(out.Folders, folderOutput{ID: f.ID, Path: f.Path, Label: f.Label, Enabled: f.Enabled})
	}
	return out
}

// profileOf returns sync id as a profile.
func profileOf(m *module.Module, id int) (*profile.Profile, error) {
	s, ok := m.Sync(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", module.ErrSyncNotFound, id)
	}
	p, ok := s.(*profile.Profile)
	if !ok {
		return nil, fmt.Errorf("sync %d is not a profile", id)
	}
	return p, nil
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Manage sync profiles",
		Commands: []*cli.Command{
			syncListCommand(),
			syncAddCommand(),
			syncRemoveCommand(),
			syncShowCommand(),
			syncUseCommand(),
			syncFolderCommand(),
		},
	}
}

func syncListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List sync profiles",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := outputFormat(ctx, cmd)
			if err != nil {
				return err
			}
			return withModule(ctx, cmd, false, func(m *module.Module) error {
				outputs := []syncOutput{}
				var rows [][]string
				for id := range m.Syncs() {
					p, err := profileOf(m, id)
					if err != nil {
						return err
					}
					o := newSyncOutput(p)
					outputs = append(outputs, o)
					rows = append(rows, []string{
						strconv.Itoa(o.ID), o.Name, strconv.Itoa(len(o.Folders)), joinInts(o.Bundles),
					})
				}
				return render(format, outputs, func() error {
					return printTable([]string{"ID", "NAME", "FOLDERS", "BUNDLES"}, rows, "No syncs configured")
				})
			})
		},
	}
}

func syncAddCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Create a sync profile with the next free id",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Profile name",
			},
			&cli.BoolFlag{
				Name:  "sync-hidden",
				Usage: "Synchronize hidden files and folders",
			},
			&cli.IntFlag{
				Name:  "period",
				Usage: "Synchronize periodically every N minutes (0 disables)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withModule(ctx, cmd, true, func(m *module.Module) error {
				s, err := m.AddSync()
				if err != nil {
					return err
				}
				p, err := profileOf(m, s.ID())
				if err != nil {
					return err
				}
				if name := cmd.String("name"); name != "" {
					p.Name = name
				}
				p.Options.SyncHidden = cmd.Bool("sync-hidden")
				if period := cmd.Int("period"); period > 0 {
					p.Options.Periodical = true
					p.Options.PeriodMinutes = period
				}
				fmt.Println(ui.StatusSuccess(fmt.Sprintf("Created sync %d (%s)", p.ID(), p.Name)))
				return nil
			})
		},
	}
}

func syncRemoveCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Aliases:   []string{"rm"},
		Usage:     "Remove a sync profile",
		ArgsUsage: "<sync>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := intArg(cmd, 0, "sync")
			if err != nil {
				return err
			}
			return withModule(ctx, cmd, true, func(m *module.Module) error {
				if _, ok := m.Sync(id); !ok {
					return fmt.Errorf("%w: %d", module.ErrSyncNotFound, id)
				}
				m.CloseSync(id)
				fmt.Println(ui.StatusSuccess(fmt.Sprintf("Removed sync %d", id)))
				return nil
			})
		},
	}
}

func syncShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one sync profile",
		ArgsUsage: "<sync>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := intArg(cmd, 0, "sync")
			if err != nil {
				return err
			}
			format, err := outputFormat(ctx, cmd)
			if err != nil {
				return err
			}
			return withModule(ctx, cmd, false, func(m *module.Module) error {
				p, err := profileOf(m, id)
				if err != nil {
					return err
				}
				o := newSyncOutput(p)
				return render(format, o, func() error {
					fmt.Printf("%s %d: %s\n", ui.Header("Sync"), o.ID, ui.Bold(o.Name))
					fmt.Printf("  sync hidden: %t\n", o.Options.SyncHidden)
					fmt.Printf("  no subdirectories: %t\n", o.Options.SyncNoSubdirs)
					fmt.Printf("  ignore exceptions: %t\n", o.Options.IgnoreBlacklist)
					fmt.Printf("  backup folders: %t\n", o.Options.BackupFolders)
					fmt.Printf("  update only: %t\n", o.Options.UpdateOnly)
					if o.Options.Periodical {
						fmt.Printf("  period: every %d minutes\n", o.Options.PeriodMinutes)
					}
					fmt.Printf("  exception bundles: %s\n", joinInts(o.Bundles))
					fmt.Println()

					var rows [][]string
					for _, f := range o.Folders {
						status := ui.StatusSuccess("")
						if !f.Enabled {
							status = ui.StatusSkipped("")
						}
						rows = append(rows, []string{strconv.Itoa(f.ID), f.Path, f.Label, status})
					}
					return printTable([]string{"ID", "PATH", "LABEL", "ENABLED"}, rows, "No folders")
				})
			})
		},
	}
}

func syncUseCommand() *cli.Command {
	return &cli.Command{
		Name:      "use",
		Usage:     "Apply an exception bundle to a sync profile",
		ArgsUsage: "<sync> <bundle>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "off",
				Usage: "Stop applying the bundle",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			syncID, err := intArg(cmd, 0, "sync")
			if err != nil {
				return err
			}
			bundleID, err := intArg(cmd, 1, "bundle")
			if err != nil {
				return err
			}
			return withModule(ctx, cmd, true, func(m *module.Module) error {
				p, err := profileOf(m, syncID)
				if err != nil {
					return err
				}
				on := !cmd.Bool("off")
				if err := p.UseBundle(bundleID, on); err != nil {
					return err
				}
				verb := "now applies"
				if !on {
					verb = "no longer applies"
				}
				fmt.Println(ui.StatusSuccess(fmt.Sprintf("Sync %d %s bundle %d", syncID, verb, bundleID)))
				return nil
			})
		},
	}
}

func syncFolderCommand() *cli.Command {
	return &cli.Command{
		Name:  "folder",
		Usage: "Manage the folders of a sync profile",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add or update a folder",
				ArgsUsage: "<sync> <folder> <path>",
				Flags:     folderFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					syncID, err := intArg(cmd, 0, "sync")
					if err != nil {
						return err
					}
					folderID, err := intArg(cmd, 1, "folder")
					if err != nil {
						return err
					}
					path, err := folderPathArg(cmd, 2)
					if err != nil {
						return err
					}
					return withModule(ctx, cmd, true, func(m *module.Module) error {
						f, err := m.AddSyncFolder(syncID, folderID)
						if err != nil {
							return err
						}
						applyFolderFlags(cmd, f, path)
						fmt.Println(ui.StatusSuccess(fmt.Sprintf("Sync %d folder %d: %s", syncID, folderID, path)))
						return nil
					})
				},
			},
			{
				Name:      "append",
				Usage:     "Add a folder under the next free folder id",
				ArgsUsage: "<sync> <path>",
				Flags:     folderFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					syncID, err := intArg(cmd, 0, "sync")
					if err != nil {
						return err
					}
					path, err := folderPathArg(cmd, 1)
					if err != nil {
						return err
					}
					return withModule(ctx, cmd, true, func(m *module.Module) error {
						p, err := profileOf(m, syncID)
						if err != nil {
							return err
						}
						folderID := p.NextFolderID()
						applyFolderFlags(cmd, p.AddFolder(folderID), path)
						fmt.Println(ui.StatusSuccess(fmt.Sprintf("Sync %d folder %d: %s", syncID, folderID, path)))
						return nil
					})
				},
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a folder",
				ArgsUsage: "<sync> <folder>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					syncID, err := intArg(cmd, 0, "sync")
					if err != nil {
						return err
					}
					folderID, err := intArg(cmd, 1, "folder")
					if err != nil {
						return err
					}
					return withModule(ctx, cmd, true, func(m *module.Module) error {
						if err := m.CloseSyncFolder(syncID, folderID); err != nil {
							return err
						}
						fmt.Println(ui.StatusSuccess(fmt.Sprintf("Removed folder %d from sync %d", folderID, syncID)))
						return nil
					})
				},
			},
		},
	}
}

func folderFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "label",
			Usage: "Folder label",
		},
		&cli.BoolFlag{
			Name:  "disabled",
			Usage: "Add the folder disabled",
		},
	}
}

// folderPathArg reads and checks the folder path argument, printing
// any warnings.
func folderPathArg(cmd *cli.Command, n int) (string, error) {
	path := cmd.Args().Get(n)
	if path == "" {
		return "", errors.New("missing argument <path>")
	}
	check := validation.FolderPath(path)
	if err := check.Err(); err != nil {
		return "", err
	}
	for _, w := range check.Warnings {
		fmt.Println(ui.StatusWarning(w))
	}
	return path, nil
}

func applyFolderFlags(cmd *cli.Command, f *profile.Folder, path string) {
	f.Path = path
	f.Label = cmd.String("label")
	f.Enabled = !cmd.Bool("disabled")
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
