package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// FileName is the config file kept in the home directory
const FileName = ".dapp-console.json"

// Config represents the application configuration
type Config struct {
	RPCURLs               []RPCUrl        `json:"rpc_urls"`
	Contracts             []ContractEntry `json:"contracts"`
	Logger                bool            `json:"logger"`
	ConfirmTimeoutSeconds int             `json:"confirm_timeout_seconds,omitempty"`
	PollIntervalMs        int             `json:"poll_interval_ms,omitempty"`
	AccountPollMs         int             `json:"account_poll_ms,omitempty"`
}

// RPCUrl represents a wallet RPC endpoint
type RPCUrl struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
}

// ContractEntry binds one deployed contract to a console page
type ContractEntry struct {
	Name    string            `json:"name"`
	Kind    string            `json:"kind"` // registry, escrow or counter
	Address string            `json:"address"`
	ABIPath string            `json:"abi_path,omitempty"`
	Methods map[string]string `json:"methods,omitempty"`
}

// Method returns the configured contract method for a logical role, or def
func (c ContractEntry) Method(role, def string) string {
	if m, ok := c.Methods[role]; ok && m != "" {
		return m
	}
	return def
}

// Path resolves the config file location: DAPP_CONSOLE_CONFIG, then the home directory
func Path() string {
	if p := os.Getenv("DAPP_CONSOLE_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return FileName
	}
	return filepath.Join(home, FileName)
}

// Load reads the config from the specified path
func Load(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}

	return cfg
}

// Save writes the config to the specified path
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns a new configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		RPCURLs: []RPCUrl{
			{
				Name:   "Local wallet",
				URL:    "http://127.0.0.1:8545",
				Active: true,
			},
		},
		Contracts: []ContractEntry{
			{
				Name:    "Attendance",
				Kind:    "registry",
				Address: "0xB3db8F37Dd2e10274eA24275c0686139bF0F9F82",
			},
			{
				Name:    "Escrow",
				Kind:    "escrow",
				Address: "0x2dFb0fC8839CC1A62c8bc26EfccfF32c8F9bB609",
			},
			{
				Name:    "Like",
				Kind:    "counter",
				Address: "0xB7A30D30E70a4cE21769B2D44efff8C367C237D1",
			},
		},
		Logger:                false,
		ConfirmTimeoutSeconds: 120,
		PollIntervalMs:        2000,
		AccountPollMs:         2000,
	}
}

// LoadOrCreate loads config from path, or creates a default one if not found
func LoadOrCreate(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		cfg := DefaultConfig()
		_ = Save(path, cfg)
		return cfg
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		// Invalid config, return default
		return DefaultConfig()
	}

	return cfg
}

// ActiveRPC returns the active endpoint URL. ETH_RPC_URL wins over the file.
func (c Config) ActiveRPC() string {
	if url := os.Getenv("ETH_RPC_URL"); url != "" {
		return url
	}
	for _, r := range c.RPCURLs {
		if r.Active {
			return r.URL
		}
	}
	if len(c.RPCURLs) > 0 {
		return c.RPCURLs[0].URL
	}
	return ""
}

// Contract returns the first entry of the given kind
func (c Config) Contract(kind string) (ContractEntry, bool) {
	for _, e := range c.Contracts {
		if e.Kind == kind {
			return e, true
		}
	}
	return ContractEntry{}, false
}

// ConfirmTimeout is the local wait for a receipt
func (c Config) ConfirmTimeout() time.Duration {
	return millisOr(c.ConfirmTimeoutSeconds*1000, 2*time.Minute)
}

// PollInterval is how often receipts are polled
func (c Config) PollInterval() time.Duration {
	return millisOr(c.PollIntervalMs, 2*time.Second)
}

// AccountPoll is how often the wallet's account set is polled
func (c Config) AccountPoll() time.Duration {
	return millisOr(c.AccountPollMs, 2*time.Second)
}

func millisOr(ms int, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}
