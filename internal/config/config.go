package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
)

// DefaultPath is the config file looked up when no path is given.
const DefaultPath = "kmerctx.json"

type Config struct {
	LogFile    string `json:"log_file"`
	LogLevel   string `json:"log_level"`
	SQLitePath string `json:"sqlite_path"`
	Progress   bool   `json:"progress"`
}

// LoadConfig loads a JSON config from the given path. If path is empty, looks for ./kmerctx.json (DefaultPath).
// A missing file is not an error: defaults are returned. A file that exists but cannot be
// decoded is.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	defer f.Close()
	var c Config
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
