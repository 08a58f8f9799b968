package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultNetwork   = "bnb"
	defaultMode      = "mainnet"
	defaultAlgorithm = "fastest"
	defaultLogLevel  = "info"
)

// ErrUnknownKey is returned by Set for keys that are not settable.
var ErrUnknownKey = errors.New("unknown config key")

// Config holds all devfund settings.
type Config struct {
	Network          string              `json:"network"            mapstructure:"network"`
	NetworkMode      string              `json:"network_mode"       mapstructure:"network_mode"`  // "mainnet" | "testnet"
	RPCAlgorithm     string              `json:"rpc_algorithm"      mapstructure:"rpc_algorithm"` // "fastest" | "failover"
	DefaultWallet    string              `json:"default_wallet"     mapstructure:"default_wallet"`
	CustomRPCs       map[string][]string `json:"custom_rpcs"        mapstructure:"custom_rpcs"`
	GasLimitFallback uint64              `json:"gas_limit_fallback" mapstructure:"gas_limit_fallback"`
	ConfirmTimeout   int                 `json:"confirm_timeout"    mapstructure:"confirm_timeout"` // seconds
	LogLevel         string              `json:"log_level"          mapstructure:"log_level"`

	configDir string
	// onDisk holds the file values (defaults filled in, no env overrides).
	// Save writes onDisk plus the keys in dirty.
	onDisk *Config
	dirty  map[string]bool
}

// DefaultDir returns $DEVFUND_CONFIG_DIR or ~/.devfund.
func DefaultDir() (string, error) {
	if dir := os.Getenv(DirEnvVar); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home dir: %w", err)
	}
	return filepath.Join(home, ".devfund"), nil
}

// Load reads config.json from dir (DefaultDir when empty). Missing keys take
// their defaults and every key can be overridden by DEVFUND_<KEY>.
func Load(dir string) (*Config, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg, err := read(dir, true)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.onDisk, err = read(dir, false); err != nil {
		return nil, err
	}
	cfg.dirty = make(map[string]bool)
	return cfg, nil
}

// read decodes config.json over the defaults, with DEVFUND_* overrides when env is set.
func read(dir string, env bool) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, configFile))
	v.SetConfigType("json")
	if env {
		v.SetEnvPrefix(EnvPrefix)
		v.AutomaticEnv()
	}
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.configDir = dir
	if cfg.CustomRPCs == nil {
		cfg.CustomRPCs = make(map[string][]string)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("network", defaultNetwork)
	v.SetDefault("network_mode", defaultMode)
	v.SetDefault("rpc_algorithm", defaultAlgorithm)
	v.SetDefault("default_wallet", "")
	v.SetDefault("custom_rpcs", map[string][]string{})
	v.SetDefault("gas_limit_fallback", GasLimitContractCall)
	v.SetDefault("confirm_timeout", int(TxConfirmTimeout/time.Second))
	v.SetDefault("log_level", defaultLogLevel)
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	var errs []error
	if c.NetworkMode != "mainnet" && c.NetworkMode != "testnet" {
		errs = append(errs, fmt.Errorf("network_mode must be mainnet or testnet, got %q", c.NetworkMode))
	}
	if c.RPCAlgorithm != "fastest" && c.RPCAlgorithm != "failover" {
		errs = append(errs, fmt.Errorf("rpc_algorithm must be fastest or failover, got %q", c.RPCAlgorithm))
	}
	if c.ConfirmTimeout <= 0 {
		errs = append(errs, fmt.Errorf("confirm_timeout must be positive, got %d", c.ConfirmTimeout))
	}
	if !slices.Contains([]string{"trace", "debug", "info", "warn", "warning", "error"}, strings.ToLower(c.LogLevel)) {
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Persist marks keys whose current value the next Save writes. Set, AddRPC
// and RemoveRPC mark their own keys; fields assigned directly (per-run
// overrides) stay out of the file unless persisted here.
func (c *Config) Persist(keys ...string) {
	if c.dirty == nil {
		c.dirty = make(map[string]bool)
	}
	for _, k := range keys {
		c.dirty[k] = true
	}
}

// Save writes the file values plus every persisted key. Env overrides and
// unpersisted field changes are not written.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	out := *c
	if c.onDisk != nil {
		out = *c.onDisk
	}
	out.configDir = c.configDir
	out.CustomRPCs = cloneRPCs(out.CustomRPCs)
	for k := range c.dirty {
		switch k {
		case "network":
			out.Network = c.Network
		case "network_mode":
			out.NetworkMode = c.NetworkMode
		case "rpc_algorithm":
			out.RPCAlgorithm = c.RPCAlgorithm
		case "default_wallet":
			out.DefaultWallet = c.DefaultWallet
		case "custom_rpcs":
			out.CustomRPCs = cloneRPCs(c.CustomRPCs)
		case "gas_limit_fallback":
			out.GasLimitFallback = c.GasLimitFallback
		case "confirm_timeout":
			out.ConfirmTimeout = c.ConfirmTimeout
		case "log_level":
			out.LogLevel = c.LogLevel
		}
	}
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600); err != nil {
		return err
	}
	out.onDisk, out.dirty = nil, nil
	c.onDisk = &out
	c.dirty = make(map[string]bool)
	return nil
}

func cloneRPCs(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

// Keys lists the keys Set accepts, sorted.
func Keys() []string {
	keys := []string{"network", "network_mode", "rpc_algorithm", "default_wallet", "gas_limit_fallback", "confirm_timeout", "log_level"}
	sort.Strings(keys)
	return keys
}

// Get returns a scalar setting as a string.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "network":
		return c.Network, nil
	case "network_mode":
		return c.NetworkMode, nil
	case "rpc_algorithm":
		return c.RPCAlgorithm, nil
	case "default_wallet":
		return c.DefaultWallet, nil
	case "gas_limit_fallback":
		return strconv.FormatUint(c.GasLimitFallback, 10), nil
	case "confirm_timeout":
		return strconv.Itoa(c.ConfirmTimeout), nil
	case "log_level":
		return c.LogLevel, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// Set updates a scalar setting from its string form and validates the result.
// The config is unchanged when an error is returned.
func (c *Config) Set(key, value string) error {
	next := *c
	switch key {
	case "network":
		next.Network = strings.ToLower(value)
	case "network_mode":
		next.NetworkMode = value
	case "rpc_algorithm":
		next.RPCAlgorithm = value
	case "default_wallet":
		next.DefaultWallet = value
	case "gas_limit_fallback":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil || n == 0 {
			return fmt.Errorf("gas_limit_fallback must be a positive integer, got %q", value)
		}
		next.GasLimitFallback = n
	case "confirm_timeout":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("confirm_timeout must be seconds, got %q", value)
		}
		next.ConfirmTimeout = n
	case "log_level":
		next.LogLevel = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	c.Persist(key)
	return nil
}

// AddRPC adds a custom RPC URL for a network.
func (c *Config) AddRPC(network, url string) error {
	if c.CustomRPCs == nil {
		c.CustomRPCs = make(map[string][]string)
	}
	if slices.Contains(c.CustomRPCs[network], url) {
		return fmt.Errorf("RPC %s already exists for network %s", url, network)
	}
	c.CustomRPCs[network] = append(c.CustomRPCs[network], url)
	c.Persist("custom_rpcs")
	return nil
}

// RemoveRPC removes a custom RPC URL for a network.
func (c *Config) RemoveRPC(network, url string) error {
	rpcs := c.CustomRPCs[network]
	idx := slices.Index(rpcs, url)
	if idx == -1 {
		return fmt.Errorf("RPC %s not found for network %s", url, network)
	}
	c.CustomRPCs[network] = slices.Delete(rpcs, idx, idx+1)
	if len(c.CustomRPCs[network]) == 0 {
		delete(c.CustomRPCs, network)
	}
	c.Persist("custom_rpcs")
	return nil
}

// GetRPCs returns custom RPCs for a network.
func (c *Config) GetRPCs(network string) []string {
	return c.CustomRPCs[network]
}

// Timeout returns ConfirmTimeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.ConfirmTimeout) * time.Second
}

// Dir returns the config directory.
func (c *Config) Dir() string { return c.configDir }

// WalletsPath is the wallet metadata file.
func (c *Config) WalletsPath() string { return filepath.Join(c.configDir, walletsFile) }

// DeploymentsPath is the per-network address override file.
func (c *Config) DeploymentsPath() string { return filepath.Join(c.configDir, deploymentsFile) }

// KeysDir holds the encrypted file keystore when no OS keychain is available.
func (c *Config) KeysDir() string { return filepath.Join(c.configDir, keysDir) }
