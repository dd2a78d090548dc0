// Package config loads the tool's own settings: filesystem locations,
// port policy and defaults offered at the interactive prompts. Values
// come from built-in defaults, an optional /etc/wg-engarde/wg-engarde.yaml
// and WG_ENGARDE_* environment variables, merged by viper and validated
// once into a plain struct that the rest of the code passes by value.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"wg-engarde/pkg/model"
)

// Config is the validated tool configuration.
type Config struct {
	ConfigDir  string `mapstructure:"config_dir"`
	KeyDir     string `mapstructure:"key_dir"`
	MarkerPath string `mapstructure:"marker_path"`
	JournalDB  string `mapstructure:"journal_db"`
	BinDir     string `mapstructure:"bin_dir"`

	Interface  string `mapstructure:"interface"`   // WireGuard interface name
	TunnelConf string `mapstructure:"tunnel_conf"` // wg-quick config path
	RelayConf  string `mapstructure:"relay_conf"`  // engarde YAML path
	UnitDir    string `mapstructure:"unit_dir"`    // systemd unit directory

	BasePort       int `mapstructure:"base_port"`
	ManagementPort int `mapstructure:"management_port"`
	PortMin        int `mapstructure:"port_min"`
	PortMax        int `mapstructure:"port_max"`

	ServerIP string `mapstructure:"server_ip"`
	ClientIP string `mapstructure:"client_ip"`
	CIDRBits int    `mapstructure:"cidr_bits"`
	MTU      int    `mapstructure:"mtu"`

	ClientTimeoutSec int `mapstructure:"client_timeout_sec"`
	WriteTimeoutMS   int `mapstructure:"write_timeout_ms"`

	// Platform floor: minimum major VERSION_ID per /etc/os-release ID.
	Platforms map[string]int `mapstructure:"platforms"`
}

// Load merges defaults, the optional config file and environment
// overrides, then validates.
func Load() (Config, error) {
	v := viper.New()
	v.SetDefault("config_dir", "/etc/wg-engarde")
	v.SetDefault("key_dir", "/etc/wg-engarde/keys")
	v.SetDefault("marker_path", "/etc/wg-engarde/.provisioned")
	v.SetDefault("journal_db", "/var/lib/wg-engarde/state.db")
	v.SetDefault("bin_dir", "/usr/local/bin")
	v.SetDefault("interface", "wg0")
	v.SetDefault("tunnel_conf", "/etc/wireguard/wg0.conf")
	v.SetDefault("relay_conf", "/etc/wg-engarde/engarde.yml")
	v.SetDefault("unit_dir", "/etc/systemd/system")
	v.SetDefault("base_port", 39000)
	v.SetDefault("management_port", 22)
	v.SetDefault("port_min", 1024)
	v.SetDefault("port_max", 65535)
	v.SetDefault("server_ip", "10.99.0.1")
	v.SetDefault("client_ip", "10.99.0.2")
	v.SetDefault("cidr_bits", 24)
	v.SetDefault("mtu", 1360)
	v.SetDefault("client_timeout_sec", 30)
	v.SetDefault("write_timeout_ms", 10)
	v.SetDefault("platforms", map[string]int{
		"ubuntu": 20,
		"debian": 10,
		"centos": 7,
	})

	v.SetConfigName("wg-engarde")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/wg-engarde")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}
	v.SetEnvPrefix("WG_ENGARDE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the allocator or reconciler could
// not act on deterministically.
func (c Config) Validate() error {
	if c.PortMin < 1 || c.PortMax > 65535 || c.PortMin >= c.PortMax {
		return fmt.Errorf("%w: port range %d-%d", model.ErrInvalidInput, c.PortMin, c.PortMax)
	}
	if c.ManagementPort < 1 || c.ManagementPort > 65535 {
		return fmt.Errorf("%w: management port %d", model.ErrInvalidInput, c.ManagementPort)
	}
	if c.ConfigDir == "" || c.KeyDir == "" || c.MarkerPath == "" {
		return fmt.Errorf("%w: config, key and marker paths must be set", model.ErrMissingConfig)
	}
	if c.Interface == "" || c.TunnelConf == "" || c.RelayConf == "" || c.UnitDir == "" {
		return fmt.Errorf("%w: artifact paths must be set", model.ErrMissingConfig)
	}
	return nil
}

// TunnelUnit returns the systemd unit managing the WireGuard interface.
func (c Config) TunnelUnit() string {
	return "wg-quick@" + c.Interface
}

// InputsPath is where the persisted provisioning inputs live.
func (c Config) InputsPath() string {
	return c.ConfigDir + "/provision.yaml"
}
