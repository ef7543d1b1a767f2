package config

import (
	"time"
)

type VaultConfig struct {
	Address string        `yaml:"address" toml:"address" json:"address" env:"VAULT_ADDR" env-required:"true"`
	Token   string        `yaml:"token" toml:"token" json:"token" env:"VAULT_TOKEN" env-required:"true"`
	KVMount string        `yaml:"kv_mount" toml:"kv_mount" json:"kv_mount" env:"VAULTFS_KV_MOUNT" env-default:"secret"`
	Timeout time.Duration `yaml:"timeout" toml:"timeout" json:"timeout" env:"VAULTFS_VAULT_TIMEOUT" env-default:"10s"`
}
