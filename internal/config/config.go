package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/tunnel-launcher/internal/model"
)

const (
	// DefaultFileName is the config file looked up in the working directory
	// when --config is not given.
	DefaultFileName = "tunnel-launcher.yaml"

	// DefaultBinary is the tunneling executable started by the launcher.
	DefaultBinary = "ngrok"

	// DefaultProtocol is the ngrok tunnel type passed before the port.
	DefaultProtocol = "http"
)

// validProtocols lists the ngrok tunnel subcommands that take a bare
// local port as their only argument.
var validProtocols = []string{"http", "tcp", "tls"}

// Config holds launcher settings read from a config file.
// Zero values mean "not set" and are filled in by ApplyDefaults.
type Config struct {
	// Port is the local port to expose. 0 means the built-in default.
	Port model.Port `yaml:"port" json:"port"`

	// Binary is the tunneling executable name or path.
	Binary string `yaml:"binary" json:"binary"`

	// Protocol is the tunnel type (http, tcp, tls).
	Protocol string `yaml:"protocol" json:"protocol"`

	// EnvFile is an optional dotenv file whose entries are added to the
	// tunneling process environment (e.g., NGROK_AUTHTOKEN). A relative
	// path is resolved against the config file's directory.
	EnvFile string `yaml:"envFile" json:"envFile"`

	// portSet records that the config file named a port, even the default.
	portSet bool
}

// Default returns a Config with every field set to its built-in value.
func Default() *Config {
	return &Config{
		Port:     model.DefaultPort,
		Binary:   DefaultBinary,
		Protocol: DefaultProtocol,
	}
}

// PortSet reports whether the port was given by the config file or
// SetPort rather than filled in by ApplyDefaults.
func (c *Config) PortSet() bool {
	return c.portSet
}

// SetPort sets an explicit port.
func (c *Config) SetPort(p model.Port) {
	c.Port = p
	c.portSet = true
}

// ApplyDefaults fills unset fields with built-in values.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = model.DefaultPort
	}
	if c.Binary == "" {
		c.Binary = DefaultBinary
	}
	if c.Protocol == "" {
		c.Protocol = DefaultProtocol
	}
}

// Validate checks field values. An unset port (0) is accepted.
func (c *Config) Validate() error {
	if c.Port != 0 {
		if err := c.Port.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if strings.TrimSpace(c.Binary) == "" {
		return fmt.Errorf("config: binary must not be empty")
	}
	if !isValidProtocol(c.Protocol) {
		return fmt.Errorf("config: invalid protocol %q (valid: %s)",
			c.Protocol, strings.Join(validProtocols, ", "))
	}
	return nil
}

func isValidProtocol(p string) bool {
	for _, v := range validProtocols {
		if p == v {
			return true
		}
	}
	return false
}

// Load reads the config file at path, applies defaults, and validates it.
//
// When explicit is false a missing file is not an error and the built-in
// defaults are returned; this is the discovery case where the file is
// optional. Every other failure is a CLIError with ExitConfigError.
func Load(path string, explicit bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return Default(), nil
		}
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("failed to read config file %s", path), err)
	}

	cfg, err := parse(path, data)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("failed to parse config file %s", path), err)
	}

	cfg.portSet = cfg.Port != 0
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("invalid config file %s", path), err)
	}

	if cfg.EnvFile != "" && !filepath.IsAbs(cfg.EnvFile) {
		cfg.EnvFile = filepath.Join(filepath.Dir(path), cfg.EnvFile)
	}

	return cfg, nil
}

// parse decodes data as JSONC or YAML depending on the file extension.
func parse(path string, data []byte) (*Config, error) {
	var cfg Config

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// jsonc.ToJSON strips // and /* */ comments and trailing commas so
		// encoding/json can decode hand-edited files.
		if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// LoadEnvFile reads KEY=VALUE entries from a dotenv file and returns them
// as "KEY=VALUE" strings sorted by key, ready to append to exec.Cmd.Env.
// The entries are never applied to the launcher's own environment.
func LoadEnvFile(path string) ([]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("failed to read env file %s", path), err)
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+vars[k])
	}
	return env, nil
}
