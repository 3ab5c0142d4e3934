// Package main provides the entry point for the keypiano CLI application.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/keypiano/internal/audio"
	"github.com/dgnsrekt/keypiano/internal/cache"
	"github.com/dgnsrekt/keypiano/internal/config"
	"github.com/dgnsrekt/keypiano/internal/notes"
	"github.com/dgnsrekt/keypiano/ui"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	debug      bool
	cfg        config.Config

	rootCmd = &cobra.Command{
		Use:   "keypiano",
		Short: "Play the piano with your computer keyboard",
		Long: paragraph(
			fmt.Sprintf("\nPlay the piano with your %s!\n\nEvery note is rendered once into a WAV cache, then each key plays its note.", keyword("computer keyboard")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

var errNotATerminal = errors.New("keypiano needs an interactive terminal; use 'keypiano build' or 'keypiano play' instead")

func validateOptions(cmd *cobra.Command) error {
	// An explicit --config replaces whatever was discovered
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file %s: %w", configFile, err)
		}
	}

	debug = viper.GetBool("debug")
	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	c, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	cfg = c
	log.Debug("configuration loaded",
		"cacheDir", cfg.CacheDir,
		"sampleRate", cfg.SampleRate,
		"timbre", cfg.Timbre,
		"duration", cfg.Duration,
		"workers", cfg.Workers,
	)
	return nil
}

func execute(*cobra.Command, []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errNotATerminal
	}
	return runTUI()
}

// openPlayer opens the audio device at the cache's sample rate.
func openPlayer() (*audio.Player, error) {
	pc := audio.DefaultPlayerConfig()
	pc.SampleRate = cfg.SampleRate
	pc.Volume = cfg.DeviceVolume

	p, err := audio.NewPlayer(pc)
	if err != nil {
		return nil, fmt.Errorf("unable to open audio device: %w", err)
	}
	return p, nil
}

func runTUI() error {
	// Read environment to get debugging stuff
	uiCfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}
	uiCfg.EnableMouse = viper.GetBool("mouse")

	player, err := openPlayer()
	if err != nil {
		return err
	}
	defer func() { _ = player.Close() }()

	table := notes.Default()
	c, err := cache.New(cfg, table, player)
	if err != nil {
		return err
	}

	return ui.Run(uiCfg, c, table)
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	d := config.Default()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	flags.String("cache-dir", d.CacheDir, "directory holding the rendered notes")
	flags.StringP("timbre", "t", d.Timbre.String(), "note timbre (piano or organ)")
	flags.Float64P("volume", "v", d.Volume, "synthesis volume (0.0 to 1.0)")
	flags.DurationP("duration", "d", d.Duration, "length of every note")
	flags.Int("sample-rate", d.SampleRate, "sample rate in Hz")
	flags.IntP("workers", "j", d.Workers, "notes rendered in parallel")
	flags.Bool("rebuild", d.Rebuild, "re-render every note even if it is cached")
	flags.Bool("debug", false, "log debug output")
	rootCmd.Flags().BoolP("mouse", "m", true, "play notes by clicking their keys")

	// Config bindings
	_ = viper.BindPFlag("cache_dir", flags.Lookup("cache-dir"))
	_ = viper.BindPFlag("timbre", flags.Lookup("timbre"))
	_ = viper.BindPFlag("volume", flags.Lookup("volume"))
	_ = viper.BindPFlag("duration", flags.Lookup("duration"))
	_ = viper.BindPFlag("sample_rate", flags.Lookup("sample-rate"))
	_ = viper.BindPFlag("workers", flags.Lookup("workers"))
	_ = viper.BindPFlag("rebuild", flags.Lookup("rebuild"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))

	config.SetDefaults(viper.GetViper())
	viper.SetDefault("debug", false)
	viper.SetDefault("mouse", true)

	rootCmd.AddCommand(buildCmd, playCmd, keysCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "keypiano")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "keypiano")}, dirs...)
	}

	if c := os.Getenv("KEYPIANO_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("keypiano")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("keypiano")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "keypiano.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
