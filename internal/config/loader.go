package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load resolves the session configuration. An explicit path must load
// cleanly or the call fails. Without one, the first readable file wins:
// ~/.pingpong/configs/pingpong.yaml, then ./configs/pingpong.yaml, then
// the embedded default.
func Load(customPath string) (Config, error) {
	var cfg Config

	if customPath != "" {
		err := readInto(customPath, &cfg)
		return cfg, err
	}

	for _, path := range searchPaths() {
		if readInto(path, &cfg) == nil {
			return cfg, nil
		}
	}

	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		return Default(), nil
	}
	return cfg, nil
}

// searchPaths lists the implicit config locations, most specific first.
func searchPaths() []string {
	paths := make([]string, 0, 2)
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".pingpong", "configs", "pingpong.yaml"))
	}
	return append(paths, filepath.Join("configs", "pingpong.yaml"))
}

// readInto loads and parses one YAML config file into cfg.
func readInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}
