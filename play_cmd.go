package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/keypiano/internal/cache"
	"github.com/dgnsrekt/keypiano/internal/notes"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:     "play NOTE|KEY...",
	Short:   "Play notes one after another",
	Long:    paragraph(fmt.Sprintf("\n%s the given notes in order. Each argument is a note name like C4 or the key that plays it.", keyword("Play"))),
	Example: paragraph("keypiano play C4 E4 G4\nkeypiano play a d g k"),
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logToStderr()

		table := notes.Default()
		tune := make([]notes.Note, 0, len(args))
		for _, arg := range args {
			n, err := table.Resolve(arg)
			if err != nil {
				return err //nolint:wrapcheck
			}
			tune = append(tune, n)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		player, err := openPlayer()
		if err != nil {
			return err
		}
		defer func() { _ = player.Close() }()

		c, err := cache.New(cfg, table, player)
		if err != nil {
			return err
		}

		if missing := c.Missing(); len(missing) > 0 || cfg.Rebuild {
			log.Info("rendering notes before playing", "missing", len(missing))
			if _, err := buildCache(ctx, c); err != nil {
				return err
			}
		}

		for _, n := range tune {
			log.Info("playing", "note", n.Name, "key", string(n.Key))
			if err := c.Play(ctx, n.Name); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("unable to play %s: %w", n.Name, err)
			}
		}
		return nil
	},
}
