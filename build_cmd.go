package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/keypiano/internal/cache"
	"github.com/dgnsrekt/keypiano/internal/notes"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Short:   "Render every note into the cache without starting the piano",
	Long:    paragraph(fmt.Sprintf("\n%s every note into the cache directory and exit. Notes already rendered with the same settings are kept unless --rebuild is set.", keyword("Render"))),
	Example: paragraph("keypiano build\nkeypiano build --timbre organ --rebuild"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logToStderr()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		c, err := cache.New(cfg, notes.Default(), nil)
		if err != nil {
			return err
		}

		res, err := buildCache(ctx, c)
		if err != nil {
			return err
		}

		stats, err := c.Stats()
		if err != nil {
			return fmt.Errorf("unable to read cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d notes (%d up to date), %s in %s\n",
			keyword("Rendered"), res.Written, res.Skipped, humanize.Bytes(uint64(stats.Bytes)), c.Dir()) //nolint:gosec
		return nil
	},
}

// buildCache builds c, logging progress, and checks that no entry is
// missing afterwards.
func buildCache(ctx context.Context, c *cache.NoteCache) (cache.BuildResult, error) {
	progress := make(chan cache.Progress)
	logged := make(chan struct{})
	go func() {
		defer close(logged)
		for p := range progress {
			log.Info("note ready", "note", p.Note, "progress", fmt.Sprintf("%d/%d", p.Done, p.Total), "cached", p.Skipped)
		}
	}()

	res, err := c.Build(ctx, progress)
	close(progress)
	<-logged
	if err != nil {
		return res, fmt.Errorf("unable to build note cache: %w", err)
	}

	if missing := c.Missing(); len(missing) > 0 {
		return res, fmt.Errorf("%w: %s", cache.ErrMissingEntry, strings.Join(missing, ", "))
	}
	return res, nil
}
