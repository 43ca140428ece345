// Command pongctl is the operator tool for Pong Arena.
//
// It mints player credentials for local testing, validates the game
// configurations in a configs directory and runs headless matches between two
// simple bots to sanity check a configuration's pacing.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/pongarena/auth"
	"github.com/wricardo/mcp-training/pongarena/game/config"
	"github.com/wricardo/mcp-training/pongarena/game/engine"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "pongctl",
		Usage: "Pong Arena operator tool",
		Commands: []*cli.Command{
			tokenCommand(),
			validateCommand(),
			simulateCommand(),
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Mint a signed player credential",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "identity id (token subject)", Required: true},
			&cli.StringFlag{Name: "name", Usage: "display name (defaults to id)"},
			&cli.DurationFlag{Name: "ttl", Usage: "token lifetime", Value: 24 * time.Hour},
			&cli.StringFlag{Name: "secret", Usage: "HS256 signing secret", Sources: cli.EnvVars("JWT_SECRET"), Required: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.String("name")
			if name == "" {
				name = cmd.String("id")
			}
			token, err := auth.NewIssuer([]byte(cmd.String("secret"))).Issue(
				auth.Identity{ID: cmd.String("id"), Name: name},
				cmd.Duration("ttl"),
			)
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}
			fmt.Fprintln(out(cmd), token)
			return nil
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate every game configuration in a directory",
		ArgsUsage: "[file ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Usage: "configuration directory", Value: "configs", Sources: cli.EnvVars("CONFIG_DIR")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files := cmd.Args().Slice()
			if len(files) == 0 {
				var err error
				if files, err = configFiles(cmd.String("config-dir")); err != nil {
					return err
				}
			}
			if len(files) == 0 {
				return fmt.Errorf("no configuration files found in %s", cmd.String("config-dir"))
			}

			w := out(cmd)
			failed := 0
			for _, path := range files {
				cfg, err := engine.LoadGameConfig(path)
				if err != nil {
					failed++
					fmt.Fprintf(w, "✗ %s\n", filepath.Base(path))
					for _, line := range strings.Split(err.Error(), "; ") {
						fmt.Fprintf(w, "    %s\n", line)
					}
					continue
				}
				fmt.Fprintf(w, "✓ %s (%s, %.0fx%.0f, first to %d)\n",
					filepath.Base(path), cfg.Name, cfg.FieldWidth, cfg.FieldHeight, cfg.WinningScore)
			}

			fmt.Fprintf(w, "\n%d valid, %d invalid\n", len(files)-failed, failed)
			if failed > 0 {
				return fmt.Errorf("%d invalid configuration(s)", failed)
			}
			return nil
		},
	}
}

func simulateCommand() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "Run a headless match between two tracking bots",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Usage: "configuration directory", Value: "configs", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "config", Usage: "configuration name (default config when empty)", Sources: cli.EnvVars("GAME_CONFIG")},
			&cli.IntFlag{Name: "max-ticks", Usage: "stop after this many ticks", Value: 60 * 60 * 10},
			&cli.StringFlag{Name: "idle", Usage: "side whose bot never moves (a or b)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			manager, err := config.NewManager(cmd.String("config-dir"))
			if err != nil {
				return err
			}
			cfg, err := manager.Resolve(cmd.String("config"))
			if err != nil {
				return fmt.Errorf("failed to resolve config: %w", err)
			}

			idle := engine.SideNone
			switch strings.ToLower(cmd.String("idle")) {
			case "":
			case "a":
				idle = engine.SideA
			case "b":
				idle = engine.SideB
			default:
				return errors.New("idle must be a or b")
			}

			report, err := simulate(ctx, cfg, int(cmd.Int("max-ticks")), idle)
			if err != nil {
				return err
			}
			report.print(out(cmd))
			return nil
		},
	}
}

func out(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func configFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
