package cli

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/klauern/synkron/internal/settings"
)

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Display version and build information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			formats := make([]string, 0, len(settings.AllFormats()))
			for _, f := range settings.AllFormats() {
				formats = append(formats, string(f))
			}
			fmt.Printf("synkron version %s\n", Version)
			fmt.Printf("  commit: %s\n", Commit)
			fmt.Printf("  built: %s\n", BuildDate)
			fmt.Printf("  go: %s\n", runtime.Version())
			fmt.Printf("  store formats: %s\n", strings.Join(formats, ", "))
			return nil
		},
	}
}
