// Package config provides configuration file support for netreco,
// generalizing the teacher's single-trace-profile config file to the
// port/host/ping/trace/nei/domain verb set (spec §6).
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the netreco configuration file structure.
type Config struct {
	Defaults Defaults          `yaml:"defaults"`
	Aliases  map[string]string `yaml:"aliases,omitempty"`
}

// Defaults holds the default values read from the config file. Only
// TaskTimeout is consumed (as the port command's task timeout); the CLI
// flags carry their own built-in defaults and do not read the other
// fields.
type Defaults struct {
	Interface string `yaml:"interface"`
	NoColor   bool   `yaml:"no_color"`
	JSON      bool   `yaml:"json"`
	CSV       bool   `yaml:"csv"`

	Proto string `yaml:"proto"` // icmp, udp, tcp

	PortConcurrency int           `yaml:"port_concurrency"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	WaitTime        time.Duration `yaml:"wait_time"`
	SendRate        time.Duration `yaml:"send_rate"`
	TaskTimeout     time.Duration `yaml:"task_timeout"`
	Randomize       bool          `yaml:"randomize"`

	MaxHops        int           `yaml:"max_hops"`
	ReceiveTimeout time.Duration `yaml:"receive_timeout"`

	PingCount    int           `yaml:"ping_count"`
	PingInterval time.Duration `yaml:"ping_interval"`

	Enrichment EnrichmentConfig `yaml:"enrichment"`
}

// EnrichmentConfig holds post-scan enrichment toggles; no command reads
// them.
type EnrichmentConfig struct {
	Enabled bool `yaml:"enabled"`
	RDNS    bool `yaml:"rdns"`
	Vendor  bool `yaml:"vendor"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Defaults: Defaults{
			Proto:           "tcp",
			PortConcurrency: 100,
			ConnectTimeout:  2 * time.Second,
			WaitTime:        1 * time.Second,
			SendRate:        0,
			TaskTimeout:     30 * time.Second,
			Randomize:       false,
			MaxHops:         30,
			ReceiveTimeout:  1 * time.Second,
			PingCount:       4,
			PingInterval:    1 * time.Second,
			Enrichment: EnrichmentConfig{
				Enabled: true,
				RDNS:    true,
				Vendor:  true,
			},
		},
		Aliases: make(map[string]string),
	}
}

// Load searches the default config file locations and returns the first
// one found, or defaults if none exist (spec's ambient config stack).
func Load() (*Config, error) {
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			return LoadFrom(path)
		}
	}
	return DefaultConfig(), nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the default user config path.
func (c *Config) Save() error { return c.SaveTo(getUserConfigPath()) }

// SaveTo writes the configuration to a specific file path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func getConfigPaths() []string {
	paths := []string{"netreco.yaml", "netreco.yml", ".netreco.yaml", ".netreco.yml"}
	if userPath := getUserConfigPath(); userPath != "" {
		paths = append(paths, userPath)
	}
	return paths
}

func getUserConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "netreco", "config.yaml")
		}
	default:
		home, err := os.UserHomeDir()
		if err == nil {
			if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
				return filepath.Join(xdg, "netreco", "config.yaml")
			}
			return filepath.Join(home, ".config", "netreco", "config.yaml")
		}
	}
	return ""
}

// GetConfigPath returns the path where user config would be saved.
func GetConfigPath() string { return getUserConfigPath() }

// GenerateExample renders an example configuration file.
func GenerateExample() string {
	return `# netreco configuration file
# Location: ~/.config/netreco/config.yaml (Linux/macOS)
#           %APPDATA%\netreco\config.yaml (Windows)
#           ./netreco.yaml (current directory)

defaults:
  interface: ""           # empty selects the default route interface
  no_color: false
  json: false
  csv: false

  proto: tcp               # icmp, udp, tcp

  port_concurrency: 100
  connect_timeout: 2s
  wait_time: 1s
  send_rate: 0s            # 0 means as fast as the sender accepts
  task_timeout: 30s
  randomize: false

  max_hops: 30
  receive_timeout: 1s

  ping_count: 4
  ping_interval: 1s

  enrichment:
    enabled: true
    rdns: true
    vendor: true

# Target aliases (optional)
aliases:
  dns: 8.8.8.8
  cf: 1.1.1.1
`
}
