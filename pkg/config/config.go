package config

// Package config provides a reusable loader for chainforge configuration
// files and environment variables. It is versioned so that applications can
// depend on a stable API contract.
//
// Version: v0.1.0

import (
	"fmt"

	"github.com/spf13/viper"

	"chainforge/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config represents the unified configuration for a chainforge nexus, as
// Load reads it from YAML files under cmd/config or config.
type Config struct {
	Nexus struct {
		OwnerKeyFile string   `mapstructure:"owner_key_file" json:"owner_key_file"`
		ChildChains  []string `mapstructure:"child_chains" json:"child_chains"`
		SoulSupply   string   `mapstructure:"soul_supply" json:"soul_supply"`
		KcalSupply   string   `mapstructure:"kcal_supply" json:"kcal_supply"`
	} `mapstructure:"nexus" json:"nexus"`

	VM struct {
		DefaultGasLimit uint64 `mapstructure:"default_gas_limit" json:"default_gas_limit"`
		GasPrice        uint64 `mapstructure:"gas_price" json:"gas_price"`
	} `mapstructure:"vm" json:"vm"`

	Explorer struct {
		BindAddr string `mapstructure:"bind_addr" json:"bind_addr"`
	} `mapstructure:"explorer" json:"explorer"`

	Metrics struct {
		Enabled  bool   `mapstructure:"enabled" json:"enabled"`
		BindAddr string `mapstructure:"bind_addr" json:"bind_addr"`
	} `mapstructure:"metrics" json:"metrics"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and returned.
//
// The function uses the provided environment name to merge additional config
// files. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // picks up from .env

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the CHAINFORGE_ENV environment
// variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("CHAINFORGE_ENV", ""))
}
