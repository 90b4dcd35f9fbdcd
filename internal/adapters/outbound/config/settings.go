package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/gatekeep/gatekeep/internal/domain"
)

// EnvPrefix namespaces environment overrides, e.g. GATEKEEP_WORKERS.
const EnvPrefix = "GATEKEEP"

// LoadSettings layers defaults, the settings block of .gatekeep.yaml and
// GATEKEEP_* environment variables, in increasing priority.
func LoadSettings(file map[string]any) (domain.Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if len(file) > 0 {
		if err := v.MergeConfigMap(file); err != nil {
			return domain.Settings{}, fmt.Errorf("reading settings: %w", err)
		}
	}

	var s domain.Settings
	if err := v.Unmarshal(&s); err != nil {
		return domain.Settings{}, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return domain.Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// setDefaults registers every key so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("workers", 0)
	v.SetDefault("check_timeout", domain.DefaultCheckTimeout.String())
	v.SetDefault("state_dir", domain.DefaultStateDir)
	v.SetDefault("history_max_age", domain.DefaultHistoryMaxAge.String())
	v.SetDefault("history_limit", domain.DefaultHistoryLimit)
	v.SetDefault("log_level", domain.DefaultLogLevel)
	v.SetDefault("container_runtime", "")
	v.SetDefault("container_image", "")
	v.SetDefault("mode", "")
}
