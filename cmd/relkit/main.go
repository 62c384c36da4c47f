// Command relkit generates record declarations from a relkit.yaml config.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/relkit/relkit/compiler/gen"
	"github.com/relkit/relkit/compiler/load"
)

var (
	configPath string
	outDir     string
	workers    int
	watch      bool
)

var rootCmd = &cobra.Command{
	Use:           "relkit",
	Short:         "relkit generates CRUD declarations for record types",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "generate capability markers and column handles",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !watch {
			return generate(cmd.Context())
		}
		return watchLoop(cmd)
	},
}

func init() {
	genCmd.Flags().StringVarP(&configPath, "config", "c", "relkit.yaml", "generation config file")
	genCmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (defaults to the package directory)")
	genCmd.Flags().IntVar(&workers, "workers", 0, "max concurrent file writes (0 = GOMAXPROCS)")
	genCmd.Flags().BoolVarP(&watch, "watch", "w", false, "regenerate when the package sources change")
	rootCmd.AddCommand(genCmd)
}

func generate(ctx context.Context) error {
	cfg, err := load.ReadConfig(configPath)
	if err != nil {
		return err
	}
	if outDir != "" {
		cfg.Output = outDir
	}
	records, err := load.Load(cfg)
	if err != nil {
		return err
	}
	g := gen.New(records, cfg.Output, gen.WithWorkers(workers))
	return g.Generate(ctx)
}

// watchLoop regenerates on every source change in the loaded package
// directories. Events are debounced since editors emit several writes
// per save.
func watchLoop(cmd *cobra.Command) error {
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
	if err := generate(cmd.Context()); err != nil {
		log.Error("generate", "error", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	dirs, err := watchDirs()
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		log.Info("watching", "dir", dir)
	}
	var timer *time.Timer
	pending := make(chan struct{}, 1)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(ev.Name) != ".go" && ev.Name != configPath {
				continue
			}
			// Skip our own output files.
			if generated(ev.Name) {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(250*time.Millisecond, func() {
					pending <- struct{}{}
				})
			} else {
				timer.Reset(250 * time.Millisecond)
			}
		case <-pending:
			timer = nil
			if err := generate(cmd.Context()); err != nil {
				log.Error("generate", "error", err)
			} else {
				log.Info("generated", "config", configPath)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Error("watch", "error", err)
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		}
	}
}

func watchDirs() ([]string, error) {
	cfg, err := load.ReadConfig(configPath)
	if err != nil {
		return nil, err
	}
	records, err := load.Load(cfg)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var dirs []string
	if dir := filepath.Dir(configPath); !seen[dir] {
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	for _, rec := range records {
		if rec.Dir != "" && !seen[rec.Dir] {
			seen[rec.Dir] = true
			dirs = append(dirs, rec.Dir)
		}
	}
	return dirs, nil
}

func generated(name string) bool {
	return strings.HasSuffix(filepath.Base(name), "_relkit.go")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "relkit:", err)
		os.Exit(1)
	}
}
