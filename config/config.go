package config

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/treasury/chain"
)

// Config represents the complete sim-runner configuration.
type Config struct {
	Account  AccountConfig  `json:"account" yaml:"account"`
	Token    TokenConfig    `json:"token" yaml:"token"`
	Venue    VenueConfig    `json:"venue" yaml:"venue"`
	Schedule ScheduleConfig `json:"schedule" yaml:"schedule"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`
	Log      LogConfig      `json:"log" yaml:"log"`
}

// AccountConfig names the two fixed identities.
type AccountConfig struct {
	Owner     string `json:"owner" yaml:"owner"`
	Automator string `json:"automator" yaml:"automator"`
}

// TokenConfig describes the input asset and the simulated treasury
// seeded into the automator's custody.
type TokenConfig struct {
	Address         string `json:"address" yaml:"address"`
	Symbol          string `json:"symbol" yaml:"symbol"`
	Decimals        int32  `json:"decimals" yaml:"decimals"`
	InitialTreasury string `json:"initial_treasury" yaml:"initial_treasury"` // whole units
}

// VenueConfig describes the simulated exchange: fixed rate in wei per
// base unit of input token, and the native liquidity minted to it.
type VenueConfig struct {
	Address            string `json:"address" yaml:"address"`
	WrappedNative      string `json:"wrapped_native" yaml:"wrapped_native"`
	RateWeiPerUnit     string `json:"rate_wei_per_unit" yaml:"rate_wei_per_unit"`
	NativeLiquidityWei string `json:"native_liquidity_wei" yaml:"native_liquidity_wei"`
}

// ScheduleConfig drives the automation loop.
type ScheduleConfig struct {
	Cron             string `json:"cron" yaml:"cron"`
	Interval         string `json:"interval" yaml:"interval"` // e.g. "24h"
	InvestmentAmount string `json:"investment_amount" yaml:"investment_amount"` // whole token units
	MinOutputWei     string `json:"min_output_wei" yaml:"min_output_wei"`
	DeadlineWindow   string `json:"deadline_window" yaml:"deadline_window"` // e.g. "1h"
}

// JournalConfig selects the persistence backend.
type JournalConfig struct {
	Type           string `json:"type" yaml:"type"` // "sqlite", "csv", or "none"
	DBPath         string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	ExecutionsFile string `json:"executions_file,omitempty" yaml:"executions_file,omitempty"`
	EventsFile     string `json:"events_file,omitempty" yaml:"events_file,omitempty"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on
// content; YAML is tried first).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on
// extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Account.Owner == "" {
		return fmt.Errorf("account.owner is required")
	}
	if c.Account.Automator == "" {
		return fmt.Errorf("account.automator is required")
	}
	if c.Token.Address == "" {
		return fmt.Errorf("token.address is required")
	}
	if c.Token.Decimals < 0 || c.Token.Decimals > 30 {
		return fmt.Errorf("token.decimals out of range: %d", c.Token.Decimals)
	}
	if _, err := c.InitialTreasury(); err != nil {
		return err
	}
	if c.Venue.Address == "" || c.Venue.WrappedNative == "" {
		return fmt.Errorf("venue.address and venue.wrapped_native are required")
	}
	if _, err := c.Rate(); err != nil {
		return err
	}
	if _, err := c.NativeLiquidity(); err != nil {
		return err
	}
	if c.Schedule.Cron == "" {
		return fmt.Errorf("schedule.cron is required")
	}
	if _, err := c.Interval(); err != nil {
		return err
	}
	if _, err := c.InvestmentAmount(); err != nil {
		return err
	}
	if _, err := c.MinOutput(); err != nil {
		return err
	}
	if _, err := c.DeadlineWindow(); err != nil {
		return err
	}
	switch c.Journal.Type {
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite type")
		}
	case "csv":
		if c.Journal.ExecutionsFile == "" || c.Journal.EventsFile == "" {
			return fmt.Errorf("journal executions_file and events_file required for csv type")
		}
	case "none":
	default:
		return fmt.Errorf("journal.type must be 'sqlite', 'csv', or 'none'")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr required when metrics are enabled")
	}
	return nil
}

// OwnerAddress returns the owner identity.
func (c *Config) OwnerAddress() chain.Address { return chain.Address(c.Account.Owner) }

// AutomatorAddress returns the automator's account identity.
func (c *Config) AutomatorAddress() chain.Address { return chain.Address(c.Account.Automator) }

// InitialTreasury returns the seeded custody balance in base units.
func (c *Config) InitialTreasury() (*big.Int, error) {
	if c.Token.InitialTreasury == "" {
		return new(big.Int), nil
	}
	return chain.ParseUnits(c.Token.InitialTreasury, c.Token.Decimals)
}

// Rate returns the venue's wei-per-base-unit conversion rate.
func (c *Config) Rate() (*big.Int, error) {
	return parseWei("venue.rate_wei_per_unit", c.Venue.RateWeiPerUnit)
}

// NativeLiquidity returns the native balance minted to the venue.
func (c *Config) NativeLiquidity() (*big.Int, error) {
	return parseWei("venue.native_liquidity_wei", c.Venue.NativeLiquidityWei)
}

// Interval returns the configured execution interval.
func (c *Config) Interval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Schedule.Interval)
	if err != nil {
		return 0, fmt.Errorf("schedule.interval: %w", err)
	}
	return d, nil
}

// InvestmentAmount returns the per-execution size in base units.
func (c *Config) InvestmentAmount() (*big.Int, error) {
	return chain.ParseUnits(c.Schedule.InvestmentAmount, c.Token.Decimals)
}

// MinOutput returns the minimum acceptable native output in wei.
func (c *Config) MinOutput() (*big.Int, error) {
	return parseWei("schedule.min_output_wei", c.Schedule.MinOutputWei)
}

// DeadlineWindow returns how far past "now" each swap's deadline sits.
func (c *Config) DeadlineWindow() (time.Duration, error) {
	d, err := time.ParseDuration(c.Schedule.DeadlineWindow)
	if err != nil {
		return 0, fmt.Errorf("schedule.deadline_window: %w", err)
	}
	return d, nil
}

func parseWei(field, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%s: not a non-negative integer: %q", field, s)
	}
	return v, nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Owner:     "0xOWNER",
			Automator: "0xTREASURY",
		},
		Token: TokenConfig{
			Address:         "0xUSDC",
			Symbol:          "USDC",
			Decimals:        6,
			InitialTreasury: "10000",
		},
		Venue: VenueConfig{
			Address:            "0xROUTER",
			WrappedNative:      "0xWETH",
			RateWeiPerUnit:     "400000000",                // 500 USDC -> 0.2 ETH
			NativeLiquidityWei: "100000000000000000000",    // 100 ether
		},
		Schedule: ScheduleConfig{
			Cron:             "0 0 * * *",
			Interval:         "24h",
			InvestmentAmount: "500",
			MinOutputWei:     "1",
			DeadlineWindow:   "1h",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./treasury.sqlite",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
		Log: LogConfig{Level: "info"},
	}
}
