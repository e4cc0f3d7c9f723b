package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/klauern/synkron/internal/logging"
	"github.com/klauern/synkron/internal/module"
	"github.com/klauern/synkron/internal/remote"
	"github.com/klauern/synkron/internal/settings"
	"github.com/klauern/synkron/internal/ui"
)

func storeCommand() *cli.Command {
	return &cli.Command{
		Name:  "store",
		Usage: "Convert or mirror the settings store",
		Commands: []*cli.Command{
			storeConvertCommand(),
			storePushCommand(),
			storePullCommand(),
		},
	}
}

func storeConvertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Copy the settings store into a store of another format",
		ArgsUsage: "<target-path>",
		Description: `Copies every group and key of the current store into <target-path>.
   When <target-path> is a directory the fixed store file name is used, so the
   result can serve as a portable store next to the binary. Without --to the
   format follows the extension of <target-path>.

   Examples:
     synkron store convert --to yaml ./portable
     synkron --format ini store convert /tmp/settings.db`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "to",
				Usage: "Target format: ini, yaml, toml, sqlite (default: from the target extension)",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing target",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			target := cmd.Args().First()
			if target == "" {
				return errors.New("missing argument <target-path>")
			}
			info, err := os.Stat(target)
			isDir := err == nil && info.IsDir()
			format, err := targetFormat(cmd, target, isDir)
			if err != nil {
				return err
			}
			if isDir {
				target = filepath.Join(target, settings.StoreFileName(format))
			}
			if _, err := os.Stat(target); err == nil && !cmd.Bool("force") {
				return fmt.Errorf("%s already exists (use --force to overwrite)", target)
			}

			return withModule(ctx, cmd, false, func(m *module.Module) error {
				if abs, err := filepath.Abs(target); err == nil && abs == m.Location().Path {
					return errors.New("target is the current store")
				}
				if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("failed to replace %s: %w", target, err)
				}

				dst, err := module.OpenStore(settings.Location{Path: target, Format: format})
				if err != nil {
					return err
				}
				settings.Copy(dst, m.Store())
				flushErr := dst.Flush()
				if c, ok := dst.(io.Closer); ok {
					if err := c.Close(); err != nil && flushErr == nil {
						flushErr = err
					}
				}
				if flushErr != nil {
					return fmt.Errorf("failed to write %s: %w", target, flushErr)
				}

				logging.Info("store converted", logging.Path(target), logging.Format(string(format)))
				fmt.Println(ui.StatusSuccess(fmt.Sprintf("Wrote %s store to %s", format, target)))
				return nil
			})
		},
	}
}

func targetFormat(cmd *cli.Command, target string, isDir bool) (settings.Format, error) {
	if cmd.IsSet("to") {
		return settings.ParseFormat(cmd.String("to"))
	}
	if !isDir {
		if f, ok := settings.FormatFromPath(target); ok {
			return f, nil
		}
	}
	return "", fmt.Errorf("cannot tell the store format of %s (use --to)", target)
}

// storeLocation resolves the store file without loading it.
func storeLocation(ctx context.Context, cmd *cli.Command) (settings.Location, *remote.Mirror, error) {
	cfg, err := appConfig(ctx, cmd)
	if err != nil {
		return settings.Location{}, nil, err
	}
	format, err := cfg.StoreFormat()
	if err != nil {
		return settings.Location{}, nil, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return settings.Location{}, nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	loc, err := settings.Locate(cfg.StorePath(cwd), format)
	if err != nil {
		return settings.Location{}, nil, err
	}
	mirror, err := remote.New(cfg.Remote, logging.WithContext(ctx).With(logging.Operation(cmd.FullName())))
	if err != nil {
		return settings.Location{}, nil, err
	}
	return loc, mirror, nil
}

func storePushCommand() *cli.Command {
	return &cli.Command{
		Name:  "push",
		Usage: "Upload the settings store to the configured S3 bucket",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			loc, mirror, err := storeLocation(ctx, cmd)
			if err != nil {
				return err
			}
			if _, err := os.Stat(loc.Path); err != nil {
				return fmt.Errorf("nothing to push: %w", err)
			}
			n, err := mirror.Push(ctx, loc.Path)
			if err != nil {
				return err
			}
			fmt.Println(ui.StatusSuccess(fmt.Sprintf("Pushed %s (%d bytes)", loc.Path, n)))
			return nil
		},
	}
}

func storePullCommand() *cli.Command {
	return &cli.Command{
		Name:  "pull",
		Usage: "Replace the settings store with the copy in the configured S3 bucket",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			loc, mirror, err := storeLocation(ctx, cmd)
			if err != nil {
				return err
			}
			n, err := mirror.Pull(ctx, loc.Path)
			if err != nil {
				return err
			}
			fmt.Println(ui.StatusSuccess(fmt.Sprintf("Pulled %s (%d bytes)", loc.Path, n)))
			return nil
		},
	}
}
