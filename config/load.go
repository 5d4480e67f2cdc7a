package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//EnvPrefix prefixes the environment overrides, e.g. ICRH_SYNC_MAX_FILES
const EnvPrefix = "ICRH"

//DefaultFileName is searched in the working directory if no config file is given
const DefaultFileName = "icrhDiag"

//Load builds the configuration from the defaults, the config file, the environment and the flags bound to v.
//If file is empty a missing icrhDiag.yaml in the working directory is not an error
func Load(v *viper.Viper, file string) (*Config, error) {
	cfg := DefaultConfig()
	if err := setDefaults(v, cfg); err != nil {
		return nil, err
	}
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(DefaultFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config : %w", err)
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config : %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

//setDefaults registers every key of cfg with v so that environment variables can override keys that are
//missing from the config file
func setDefaults(v *viper.Viper, cfg *Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	tree := make(map[string]interface{})
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return err
	}
	var walk func(prefix string, node map[string]interface{})
	walk = func(prefix string, node map[string]interface{}) {
		for key, value := range node {
			if child, ok := value.(map[string]interface{}); ok {
				walk(prefix+key+".", child)
				continue
			}
			v.SetDefault(prefix+key, value)
		}
	}
	walk("", tree)
	return nil
}

//Dump renders cfg as yaml
func Dump(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
