package config

import (
	"time"
)

type MountConfig struct {
	FsName       string        `yaml:"fs_name" toml:"fs_name" json:"fs_name" env-default:"vaultfs"`
	EntryTimeout time.Duration `yaml:"entry_timeout" toml:"entry_timeout" json:"entry_timeout" env-default:"1s"`
	AttrTimeout  time.Duration `yaml:"attr_timeout" toml:"attr_timeout" json:"attr_timeout" env-default:"1s"`
	AllowOther   bool          `yaml:"allow_other" toml:"allow_other" json:"allow_other" env:"VAULTFS_ALLOW_OTHER"`
}

type StatusConfig struct {
	// Addr is the listen address of the status server. Empty disables it.
	Addr              string        `yaml:"addr" toml:"addr" json:"addr" env:"VAULTFS_STATUS_ADDR"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" toml:"read_header_timeout" json:"read_header_timeout" env-default:"5s"`
}
