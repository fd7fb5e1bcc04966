package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is rbqlcli's own small on-disk config file: default dialect
// settings plus a table registry mapping a JOIN clause's table id to the
// file it should read from. Grounded on the teacher's cli/cmd/config.go
// Config/LoadConfig shape, narrowed from a database-connection registry
// down to a file-path registry.
type Config struct {
	DefaultDelim  string            `yaml:"default_delim"`
	DefaultPolicy string            `yaml:"default_policy"`
	Tables        map[string]string `yaml:"tables"`
}

// LoadConfig reads rbqlcli's config file, tolerating a missing file (first
// run) the same way LoadConfig tolerated a missing sqlcode.yaml.
func LoadConfig(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}
