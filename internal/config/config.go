package config

import (
	"encoding/json"
	"os"
)

// Config holds the optional settings the CLI reads from a JSON file.
type Config struct {
	// Exclude patterns applied to every scan.
	Exclude []string `json:"exclude"`

	// Workers is the hashing concurrency; 0 or 1 means sequential.
	Workers int `json:"workers"`

	// SnapshotDB is the directory of the snapshot store database.
	SnapshotDB string `json:"snapshot_db"`

	LogLevel string `json:"log_level"` // debug, info, warn, error
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		SnapshotDB: ".treetool/snapshots",
		LogLevel:   "info",
	}
}

// Load reads the config file at path. A missing file is not an error:
// the defaults apply.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	defer file.Close()

	config := Default()
	if err := json.NewDecoder(file).Decode(config); err != nil {
		return nil, err
	}
	return config, nil
}
