package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/klauern/synkron/internal/ui"
)

// outputFormat returns the output format selected by --output or config.
func outputFormat(ctx context.Context, cmd *cli.Command) (string, error) {
	cfg, err := appConfig(ctx, cmd)
	if err != nil {
		return "", err
	}
	switch cfg.Output.Format {
	case "", "table":
		return "table", nil
	case "json", "yaml":
		return cfg.Output.Format, nil
	}
	return "", fmt.Errorf("unsupported format: %s (use table, json, or yaml)", cfg.Output.Format)
}

// render writes data as JSON or YAML, or calls table for the table format.
func render(format string, data any, table func() error) error {
	switch format {
	case "json":
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(out))
		return nil
	case "yaml":
		out, err := yaml.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		fmt.Print(string(out))
		return nil
	default:
		return table()
	}
}

// printTable prints rows under headers, or a dimmed note when empty.
func printTable(headers []string, rows [][]string, empty string) error {
	if len(rows) == 0 {
		fmt.Println(ui.Dim(empty))
		return nil
	}
	_, err := fmt.Fprintln(os.Stdout, ui.Table(headers, rows))
	return err
}

// intArg parses positional argument n as a positive id.
func intArg(cmd *cli.Command, n int, name string) (int, error) {
	s := cmd.Args().Get(n)
	if s == "" {
		return 0, fmt.Errorf("missing argument <%s>", name)
	}
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", name, s)
	}
	return id, nil
}
