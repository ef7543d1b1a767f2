package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Vault    VaultConfig    `yaml:"vault" toml:"vault" json:"vault"`
	Mount    MountConfig    `yaml:"mount" toml:"mount" json:"mount"`
	Status   StatusConfig   `yaml:"status" toml:"status" json:"status"`
	Database DatabaseConfig `yaml:"database" toml:"database" json:"database"`
}

func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic("cannot read config: " + err.Error())
	}
	return cfg
}

// Load reads a YAML, TOML or JSON config file, expands ${VAR} references in it and
// then applies environment overrides and defaults.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, errors.New("config path is empty")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read data from config file %s: %w", configPath, err)
	}

	// Enrich with env variables
	data = expandEnvVars(data)

	var cfg Config
	if err := parse(configPath, data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment to config: %w", err)
	}

	return &cfg, nil
}

func parse(configPath string, data []byte, cfg *Config) error {
	r := bytes.NewReader(data)

	switch ext := strings.ToLower(filepath.Ext(configPath)); ext {
	case ".yaml", ".yml":
		return cleanenv.ParseYAML(r, cfg)
	case ".toml":
		return cleanenv.ParseTOML(r, cfg)
	case ".json":
		return cleanenv.ParseJSON(r, cfg)
	default:
		return fmt.Errorf("unsupported config file extension %q", ext)
	}
}

func expandEnvVars(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}
