package agent

import (
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/msp-agents/msp/internal/errors"
)

// DefaultCommand is the executable name a worker directory must contain
// when its agent.yaml does not override it.
const DefaultCommand = "agent"

// SpecConfig mirrors the optional agent.yaml manifest inside a worker
// directory. Absent fields keep their zero-config defaults.
type SpecConfig struct {
	Command        string   `yaml:"command"`
	AcceptsBridges bool     `yaml:"accepts_bridges"`
	Capabilities   []string `yaml:"capabilities"`
}

// Spec describes one discovered worker: its name (the directory name),
// its directory, and its effective manifest.
type Spec struct {
	Name   string
	Dir    string
	Config SpecConfig
}

// CommandPath returns the absolute path of the worker executable.
func (s Spec) CommandPath() string {
	return filepath.Join(s.Dir, s.Config.Command)
}

// Discover scans agentsDir for worker directories and returns their
// specs sorted by name. A missing agentsDir yields an empty slice, not
// an error, so a fresh workdir starts without ceremony.
func Discover(agentsDir string) ([]Spec, error) {
	entries, err := os.ReadDir(agentsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading agents directory %s", agentsDir)
	}

	var specs []Spec
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(agentsDir, entry.Name())
		cfg, err := loadSpecConfig(filepath.Join(dir, "agent.yaml"))
		if err != nil {
			return nil, errors.Wrapf(err, "agent %s", entry.Name())
		}
		specs = append(specs, Spec{Name: entry.Name(), Dir: dir, Config: cfg})
	}

	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs, nil
}

// loadSpecConfig reads an agent.yaml manifest, applying defaults for a
// missing file or absent fields.
func loadSpecConfig(path string) (SpecConfig, error) {
	cfg := SpecConfig{}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No manifest is fine; defaults apply.
	case err != nil:
		return cfg, errors.Wrap(err, "reading agent.yaml")
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrap(err, "parsing agent.yaml")
		}
	}

	if cfg.Command == "" {
		cfg.Command = DefaultCommand
	}
	if len(cfg.Capabilities) == 0 {
		cfg.Capabilities = []string{"basic"}
	}
	return cfg, nil
}
