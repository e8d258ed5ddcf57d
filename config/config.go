package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/reel-cli/reel/constant"
	"github.com/reel-cli/reel/filesystem"
	"github.com/reel-cli/reel/where"
	"github.com/spf13/viper"
)

// EnvKeyReplacer turns a config key into the suffix of its environment variable.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup loads defaults, binds the environment and reads reel.toml from where.Config if present.
func Setup() error {
	viper.SetFs(filesystem.API())
	viper.SetConfigName(constant.Reel)
	viper.SetConfigType("toml")
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.Reel)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	viper.SetTypeByDefaultValue(true)

	for _, f := range fields {
		viper.SetDefault(f.Key, f.Value)
		viper.MustBindEnv(f.Key)
	}

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}

// Parse converts command line values into the type of the field's default.
func (f Field) Parse(values []string) (any, error) {
	if _, ok := f.Value.([]string); ok {
		return values, nil
	}

	if len(values) != 1 {
		return nil, fmt.Errorf("%s takes exactly one value, got %d", f.Key, len(values))
	}
	raw := values[0]

	switch f.Value.(type) {
	case string:
		return raw, nil
	case int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s expects an integer, got %q", f.Key, raw)
		}
		return n, nil
	case bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s expects a boolean, got %q", f.Key, raw)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%s has unsupported type %s", f.Key, f.Type())
	}
}
