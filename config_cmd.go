package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/editor"
	"github.com/dgnsrekt/keypiano/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# directory holding one <Note>.wav per note
cache_dir: "piano_cache"
# synthesis sample rate in Hz (44100 or 48000 for playback)
sample_rate: 44100
# synthesis volume (0.0 to 1.0)
volume: 0.5
# length of every note
duration: "500ms"
# note timbre: piano or organ
timbre: "piano"
# notes rendered in parallel
workers: 1
# re-render every note on start, even if it is cached
rebuild: false
# playback gain applied by the audio device (0.0 to 1.0)
device_volume: 1.0
# play notes by clicking their keys (TUI only)
mouse: true
# log debug output
debug: false
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the keypiano config file",
	Long:    paragraph(fmt.Sprintf("\n%s the keypiano config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("keypiano config\nkeypiano config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	// The file being edited may not be valid yet
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("keypiano", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		if err := validateConfigFile(configFile); err != nil {
			log.Warn("config file is not valid", "path", configFile, "error", err)
			return err
		}
		return nil
	},
}

// validateConfigFile reads path on its own and checks every setting in it.
func validateConfigFile(path string) error {
	v := viper.New()
	config.SetDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("unable to parse config file: %w", err)
	}
	_, err := config.Load(v)
	return err //nolint:wrapcheck
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
