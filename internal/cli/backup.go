package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/klauern/synkron/internal/backup"
	"github.com/klauern/synkron/internal/module"
	"github.com/klauern/synkron/internal/ui"
)

// policyOutput is the JSON/YAML view of the backup policy.
type policyOutput struct {
	Enabled            bool   `json:"enabled" yaml:"enabled"`
	Location           string `json:"location" yaml:"location"`
	MaxBackups         int    `json:"max_backups" yaml:"max_backups"`
	MaxAge             string `json:"max_age" yaml:"max_age"`
	KeepAtLeastOne     bool   `json:"keep_at_least_one" yaml:"keep_at_least_one"`
	RestoreCleanFolder bool   `json:"restore_clean_folder" yaml:"restore_clean_folder"`
}

func newPolicyOutput(p *backup.Policy) policyOutput {
	return policyOutput{
		Enabled:            p.Enabled,
		Location:           p.Location,
		MaxBackups:         p.MaxBackups,
		MaxAge:             p.MaxAge.String(),
		KeepAtLeastOne:     p.KeepAtLeastOne,
		RestoreCleanFolder: p.RestoreCleanFolder,
	}
}

func backupCommand() *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Show or change the backup and restore policy",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the backup policy",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					format, err := outputFormat(ctx, cmd)
					if err != nil {
						return err
					}
					return withModule(ctx, cmd, false, func(m *module.Module) error {
						o := newPolicyOutput(m.Backup())
						return render(format, o, func() error {
							rows := [][]string{
								{ui.Title("enabled"), strconv.FormatBool(o.Enabled)},
								{ui.Title("location"), o.Location},
								{ui.Title("max_backups"), strconv.Itoa(o.MaxBackups)},
								{ui.Title("max_age"), o.MaxAge},
								{ui.Title("keep_at_least_one"), strconv.FormatBool(o.KeepAtLeastOne)},
								{ui.Title("restore_clean_folder"), strconv.FormatBool(o.RestoreCleanFolder)},
							}
							return printTable([]string{"SETTING", "VALUE"}, rows, "")
						})
					})
				},
			},
			{
				Name:  "set",
				Usage: "Change the backup policy; only given flags are applied",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "enabled",
						Usage: "Back up files before a sync overwrites them",
					},
					&cli.StringFlag{
						Name:  "location",
						Usage: "Directory backups are written to",
					},
					&cli.IntFlag{
						Name:  "max-backups",
						Usage: "Backups kept per source (0 = unlimited)",
					},
					&cli.DurationFlag{
						Name:  "max-age",
						Usage: "Maximum backup age, for example 720h (0 = unlimited)",
					},
					&cli.BoolFlag{
						Name:  "keep-at-least-one",
						Usage: "Keep the newest backup of a source even when too old",
					},
					&cli.BoolFlag{
						Name:  "restore-clean-folder",
						Usage: "Empty a folder before restoring into it",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withModule(ctx, cmd, true, func(m *module.Module) error {
						p := *m.Backup()
						if cmd.IsSet("enabled") {
							p.Enabled = cmd.Bool("enabled")
						}
						if cmd.IsSet("location") {
							p.Location = cmd.String("location")
						}
						if cmd.IsSet("max-backups") {
							p.MaxBackups = cmd.Int("max-backups")
						}
						if cmd.IsSet("max-age") {
							p.MaxAge = cmd.Duration("max-age")
						}
						if cmd.IsSet("keep-at-least-one") {
							p.KeepAtLeastOne = cmd.Bool("keep-at-least-one")
						}
						if cmd.IsSet("restore-clean-folder") {
							p.RestoreCleanFolder = cmd.Bool("restore-clean-folder")
						}
						if err := p.Validate(); err != nil {
							return err
						}
						*m.Backup() = p
						fmt.Println(ui.StatusSuccess("Backup policy updated"))
						return nil
					})
				},
			},
			{
				Name:  "prune",
				Usage: "List backups in the backup location the policy would remove",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withModule(ctx, cmd, false, func(m *module.Module) error {
						entries, err := backup.Scan(m.Backup().Location)
						if err != nil {
							return err
						}
						doomed := m.Backup().Prune(entries, time.Now())
						if len(doomed) == 0 {
							fmt.Println(ui.Dim("Nothing to prune"))
							return nil
						}
						for _, id := range doomed {
							fmt.Println(ui.StatusWarning(id))
						}
						return nil
					})
				},
			},
		},
	}
}
