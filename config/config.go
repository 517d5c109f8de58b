// Package config loads the on-disk settings that bootstrap a Treasury:
// the signer roster, thresholds, and emergency sub-quorum. It mirrors the
// Load/createDefault pattern used elsewhere in this codebase for node
// configuration, adapted to the treasury's own shape.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the on-disk shape of a treasury's bootstrap settings.
type Config struct {
	TreasuryID               string   `toml:"TreasuryID"`
	Signers                  []string `toml:"Signers"`
	Threshold                int      `toml:"Threshold"`
	EmergencySigners         []string `toml:"EmergencySigners"`
	EmergencyThreshold       int      `toml:"EmergencyThreshold"`
	EmergencyCooldownSeconds int64    `toml:"EmergencyCooldownSeconds"`
	ListenAddress            string   `toml:"ListenAddress"`
	DataDir                  string   `toml:"DataDir"`
}

// Load reads the configuration at path, creating a default file in its
// place if none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// createDefault writes and returns a single-signer development default,
// useful for local experimentation with the treasuryctl shell.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		TreasuryID:               "dev-treasury",
		Signers:                  []string{"dev-signer"},
		Threshold:                1,
		EmergencySigners:         []string{"dev-signer"},
		EmergencyThreshold:       1,
		EmergencyCooldownSeconds: 86400,
		ListenAddress:            ":8090",
		DataDir:                  "./treasuryguard-data",
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
