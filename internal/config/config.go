package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultGenesis anchors the wall clock when none is configured. It is fixed
// so slot numbers survive restarts.
var DefaultGenesis = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Game     GameConfig     `yaml:"game"`
	Keeper   KeeperConfig   `yaml:"keeper"`
	Database DatabaseConfig `yaml:"database"`
	Telegram TelegramConfig `yaml:"telegram"`
	Proxy    string         `yaml:"proxy" env:"HTTPS_PROXY"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"KOTB_HTTP_ADDR"`
	EnableFaucet    bool          `yaml:"enable_faucet" env:"KOTB_ENABLE_FAUCET"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"KOTB_SHUTDOWN_TIMEOUT"`
}

type LedgerConfig struct {
	StateFile    string        `yaml:"state_file" env:"KOTB_LEDGER_STATE_FILE"`
	ProgramID    string        `yaml:"program_id" env:"KOTB_PROGRAM_ID"`
	SlotDuration time.Duration `yaml:"slot_duration" env:"KOTB_SLOT_DURATION"`
	Genesis      time.Time     `yaml:"genesis" env:"KOTB_GENESIS"`
	MinReserve   uint64        `yaml:"min_reserve" env:"KOTB_MIN_RESERVE"`
}

type GameConfig struct {
	// AutoInitialize bootstraps the game at start-up if it does not exist.
	AutoInitialize bool   `yaml:"auto_initialize" env:"KOTB_AUTO_INITIALIZE"`
	Payer          string `yaml:"payer" env:"KOTB_PAYER"`
	Authority      string `yaml:"authority" env:"KOTB_AUTHORITY"`
	FeeAccount     string `yaml:"fee_account" env:"KOTB_FEE_ACCOUNT"`
}

type KeeperConfig struct {
	SettleCron   string `yaml:"settle_cron" env:"KOTB_CRON_SETTLE"`
	SnapshotCron string `yaml:"snapshot_cron" env:"KOTB_CRON_SNAPSHOT"`
	SummaryCron  string `yaml:"summary_cron" env:"KOTB_CRON_SUMMARY"`
}

type DatabaseConfig struct {
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	ChatID   string `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Ledger.StateFile == "" {
		c.Ledger.StateFile = "data/ledger.json"
	}
	if c.Ledger.ProgramID == "" {
		c.Ledger.ProgramID = "kotb"
	}
	if c.Ledger.SlotDuration == 0 {
		c.Ledger.SlotDuration = 400 * time.Millisecond
	}
	if c.Ledger.Genesis.IsZero() {
		c.Ledger.Genesis = DefaultGenesis
	}
	if c.Ledger.MinReserve == 0 {
		c.Ledger.MinReserve = 1_000_000
	}
	if c.Keeper.SettleCron == "" {
		c.Keeper.SettleCron = "*/5 * * * * *"
	}
	if c.Keeper.SnapshotCron == "" {
		c.Keeper.SnapshotCron = "0 */10 * * * *"
	}
	if c.Keeper.SummaryCron == "" {
		c.Keeper.SummaryCron = "0 0 9 * * *"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/kotb.db"
	}
}

// TelegramEnabled reports whether announcements should be sent.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Ledger.ProgramID == "" {
		return fmt.Errorf("ledger.program_id is required")
	}
	if c.Ledger.SlotDuration <= 0 {
		return fmt.Errorf("ledger.slot_duration must be positive")
	}
	if c.Ledger.MinReserve == 0 {
		return fmt.Errorf("ledger.min_reserve must be positive")
	}
	if c.Game.AutoInitialize {
		if c.Game.Payer == "" {
			return fmt.Errorf("game.payer is required when auto_initialize is set")
		}
		if c.Game.Authority == "" {
			return fmt.Errorf("game.authority is required when auto_initialize is set")
		}
		if c.Game.FeeAccount == "" {
			return fmt.Errorf("game.fee_account is required when auto_initialize is set")
		}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}
