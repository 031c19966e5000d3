package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables overriding configuration
// keys, e.g. IMAPCTL_SERVER_ADDRESS for server.address.
const EnvPrefix = "IMAPCTL"

// Load reads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Every key needs a default so that AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "")
	v.SetDefault("server.tls", TLSModeImplicit)
	v.SetDefault("server.insecure_skip_verify", false)
	v.SetDefault("server.timeout", 60*time.Second)

	v.SetDefault("auth.mode", AuthModeDefault)
	v.SetDefault("auth.username", "")
	v.SetDefault("auth.password", "")
	v.SetDefault("auth.methods", []string{})

	v.SetDefault("client.compress", true)
	v.SetDefault("client.client_side_sort", true)
	v.SetDefault("client.idle_after", time.Duration(0))
	v.SetDefault("client.debug", false)
	v.SetDefault("client.max_connections", 4)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.add_source", false)
}
