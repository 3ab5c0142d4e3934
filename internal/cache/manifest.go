package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dgnsrekt/keypiano/internal/synth"
	"gopkg.in/yaml.v3"
)

// manifest records which synthesis parameters produced each entry so a
// later build can tell whether the entry is stale.
type manifest struct {
	Version int               `yaml:"version"`
	Entries map[string]string `yaml:"entries"` // note name -> fingerprint
}

func newManifest() *manifest {
	return &manifest{Version: formatVersion, Entries: make(map[string]string)}
}

// Fingerprint identifies the parameters a cache entry was rendered from.
func Fingerprint(p synth.Params) string {
	key := fmt.Sprintf("v%d|%.6f|%.6f|%d|%.6f|%s",
		formatVersion, p.Frequency, p.Duration, p.SampleRate, p.Volume, p.Timbre)
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:16])
}

func loadManifest(dir string) (*manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return newManifest(), nil
	}
	if err != nil {
		return nil, err
	}

	m := newManifest()
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("unable to parse manifest: %w", err)
	}
	if m.Version != formatVersion {
		// Entries from another format version are never trusted
		return newManifest(), nil
	}
	if m.Entries == nil {
		m.Entries = make(map[string]string)
	}
	return m, nil
}

func (m *manifest) save(dir string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("unable to encode manifest: %w", err)
	}
	return writeFile(filepath.Join(dir, manifestFile), func(f *os.File) error {
		_, err := f.Write(data)
		return err
	})
}
