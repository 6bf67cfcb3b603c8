package gocucm

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Config carries everything the transports need to reach a cluster. The core
// never inspects credentials itself; they flow straight to the transport
// collaborators.
type Config struct {
	Host      string `yaml:"host" env:"CUCM_HOST"`
	Port      int    `yaml:"port" env:"CUCM_PORT"`
	Username  string `yaml:"username" env:"CUCM_USERNAME"`
	Password  string `yaml:"password" env:"CUCM_PASSWORD"`
	Version   string `yaml:"version" env:"CUCM_VERSION"`
	UnityHost string `yaml:"unity_host" env:"UNITY_HOST"`
	Insecure  bool   `yaml:"insecure" env:"CUCM_INSECURE"`
}

// DefaultPort is the HTTPS port CUCM services listen on unless overridden.
const DefaultPort = 8443

// LoadConfig reads the YAML config file at path (missing file is fine) and
// overlays any CUCM_* environment variables on top. Environment wins: it is
// the override channel for containers and CI.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// no file: env-only configuration
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			dec := yaml.NewDecoder(bytes.NewReader(data))
			dec.KnownFields(true)
			if err := dec.Decode(cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	var env Config
	if err := envdecode.Decode(&env); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("environment config: %w", err)
	}
	cfg.merge(&env)

	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	return cfg, nil
}

func (c *Config) merge(o *Config) {
	if o.Host != "" {
		c.Host = o.Host
	}
	if o.Port != 0 {
		c.Port = o.Port
	}
	if o.Username != "" {
		c.Username = o.Username
	}
	if o.Password != "" {
		c.Password = o.Password
	}
	if o.Version != "" {
		c.Version = o.Version
	}
	if o.UnityHost != "" {
		c.UnityHost = o.UnityHost
	}
	if o.Insecure {
		c.Insecure = true
	}
}

// Validate reports the settings a working AXL session cannot do without.
func (c *Config) Validate() error {
	var missing []string
	if c.Host == "" {
		missing = append(missing, "host")
	}
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// BaseURL renders the https root of the CUCM server.
func (c *Config) BaseURL() string {
	host := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(c.Host, "https://"), "http://"), "/")
	return fmt.Sprintf("https://%s:%d", host, c.Port)
}

// AXLURL renders the AXL service endpoint.
func (c *Config) AXLURL() string { return c.BaseURL() + "/axl/" }

// UDSURL renders the user data services root, used for version probing.
func (c *Config) UDSURL() string { return c.BaseURL() + "/cucm-uds" }

// RisURL renders the RisPort70 service endpoint.
func (c *Config) RisURL() string { return c.BaseURL() + "/realtimeservice2/services/RISService70" }

// VMRestURL renders the Unity Connection provisioning root.
func (c *Config) VMRestURL() string {
	host := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(c.UnityHost, "https://"), "http://"), "/")
	return fmt.Sprintf("https://%s/vmrest/", host)
}
