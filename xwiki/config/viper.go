package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes the environment variables read by NewViper.
	EnvPrefix = "WIKIBRIDGE"
	// ConfigEnv names a configuration file that replaces the discovery.
	ConfigEnv = EnvPrefix + "_CONFIG"
)

// NewViper creates a viper instance reading file (or, when empty, the file
// named by WIKIBRIDGE_CONFIG, or wikibridge.yaml in the working directory,
// $HOME/.wikibridge and /etc/wikibridge) and WIKIBRIDGE_* environment
// variables. A missing discovered file is not an error.
func NewViper(file string) (*viper.Viper, error) {
	v := viper.New()
	if file == "" {
		file = os.Getenv(ConfigEnv)
	}
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("wikibridge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.wikibridge")
		v.AddConfigPath("/etc/wikibridge")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix(EnvPrefix)
	// model.wiki.default is read from WIKIBRIDGE_MODEL_WIKI_DEFAULT
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read configuration: %w", err)
		}
	}
	return v, nil
}

// ViperSource exposes a viper instance as a Source.
type ViperSource struct {
	v *viper.Viper
}

func NewViperSource(v *viper.Viper) *ViperSource {
	return &ViperSource{v: v}
}

func (s *ViperSource) Viper() *viper.Viper {
	return s.v
}

func (s *ViperSource) Keys() []string {
	keys := s.v.AllKeys()
	slices.Sort(keys)
	return keys
}

func (s *ViperSource) ContainsKey(key string) bool {
	return s.v.IsSet(key)
}

func (s *ViperSource) IsEmpty() bool {
	return len(s.v.AllKeys()) == 0
}

func (s *ViperSource) Get(key string) (any, bool) {
	if !s.v.IsSet(key) {
		return nil, false
	}
	return s.v.Get(key), true
}
