package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	log "github.com/sirupsen/logrus"
)

const (
	EnvConfig = "LIVECAM_CONFIG"
	EnvModel  = "LIVECAM_MODEL"
)

var (
	json     = jsoniter.ConfigCompatibleWithStandardLibrary
	validate = validator.New(validator.WithRequiredStructEnabled())
)

// configFromFile overlays the JSON file at path onto the defaults. Unknown
// keys are rejected so typos don't silently fall back to a default.
func configFromFile(path string) (*Config, error) {
	config := Default()
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p := json.NewDecoder(f)
	p.DisallowUnknownFields()
	if err := p.Decode(config); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return config, nil
}

// Load builds the run configuration. An empty path falls back to $LIVECAM_CONFIG
// and then to the defaults. $LIVECAM_MODEL overrides the model path.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	config := Default()
	if path != "" {
		var err error
		if config, err = configFromFile(path); err != nil {
			return nil, err
		}
	}
	if m := strings.TrimSpace(os.Getenv(EnvModel)); m != "" {
		config.Model.Path = m
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	log.Infof("Loaded configuration: %v", spew.Sdump(config))
	return config, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
