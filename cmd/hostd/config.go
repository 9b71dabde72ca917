package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type hostdConfig struct {
	Name             string
	ListenAddr       string
	PublicURL        string
	Safe             bool
	RegistryURL      string
	AnnounceInterval time.Duration
	Debug            bool
}

func defaultConfig() hostdConfig {
	return hostdConfig{
		Name:             "host",
		ListenAddr:       ":7480",
		PublicURL:        "http://127.0.0.1:7480",
		Safe:             true,
		RegistryURL:      "http://127.0.0.1:7470",
		AnnounceInterval: 20 * time.Second,
	}
}

type fileConfig struct {
	Name             string `toml:"name"`
	ListenAddr       string `toml:"listen_addr"`
	PublicURL        string `toml:"public_url"`
	Safe             *bool  `toml:"safe"`
	RegistryURL      string `toml:"registry_url"`
	AnnounceInterval string `toml:"announce_interval"`
	Debug            *bool  `toml:"debug"`
}

func loadConfig(path string) (hostdConfig, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return hostdConfig{}, fmt.Errorf("load hostd config: %w", err)
	}

	if v := strings.TrimSpace(raw.Name); v != "" {
		cfg.Name = v
	}
	if v := strings.TrimSpace(raw.ListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(raw.PublicURL); v != "" {
		cfg.PublicURL = strings.TrimRight(v, "/")
	}
	if raw.Safe != nil {
		cfg.Safe = *raw.Safe
	}
	if v := strings.TrimSpace(raw.RegistryURL); v != "" {
		cfg.RegistryURL = strings.TrimRight(v, "/")
	}
	if meta.IsDefined("announce_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.AnnounceInterval))
		if err != nil {
			return hostdConfig{}, fmt.Errorf("parse announce_interval: %w", err)
		}
		cfg.AnnounceInterval = d
	}
	if raw.Debug != nil {
		cfg.Debug = *raw.Debug
	}

	return cfg, nil
}
