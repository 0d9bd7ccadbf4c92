package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"main/internal/model"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Broker         string           `json:"broker"` // sim | rest | socket
	Domain         string           `json:"domain"`
	StreamDomain   string           `json:"streamDomain"`
	SocketURL      string           `json:"socketUrl"`
	AccessToken    string           `json:"accessToken"`
	AccountID      string           `json:"accountId"`
	Pairs          []string         `json:"pairs"`
	OrderRouting   string           `json:"orderRouting"`
	Currency       string           `json:"currency"`
	DefaultUnits   int64            `json:"defaultUnits"`
	UnitsPerPair   map[string]int64 `json:"unitsPerPair"`
	QueueCapacity  int              `json:"queueCapacity"`
	SubmitRetries  int              `json:"submitRetries"`
	AckWaitSeconds int              `json:"ackWaitSeconds"`
}

// Config is the resolved configuration ready for use.
type Config struct {
	Broker        string
	Domain        string
	StreamDomain  string
	SocketURL     string
	AccessToken   string
	AccountID     string
	Pairs         []string
	OrderRouting  string
	Currency      string
	DefaultUnits  int64
	UnitsPerPair  map[string]int64
	QueueCapacity int
	SubmitRetries int
	AckWait       time.Duration
}

// Load reads a JSON config file, applies env overrides for secrets and
// validates it.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var file FileConfig
	if err := json.Unmarshal(data, &file); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return resolve(file)
}

func resolve(file FileConfig) (Config, error) {
	cfg := Config{
		Broker:        file.Broker,
		Domain:        file.Domain,
		StreamDomain:  file.StreamDomain,
		SocketURL:     file.SocketURL,
		AccessToken:   file.AccessToken,
		AccountID:     file.AccountID,
		Pairs:         file.Pairs,
		OrderRouting:  file.OrderRouting,
		Currency:      file.Currency,
		DefaultUnits:  file.DefaultUnits,
		UnitsPerPair:  file.UnitsPerPair,
		QueueCapacity: file.QueueCapacity,
		SubmitRetries: file.SubmitRetries,
		AckWait:       time.Duration(file.AckWaitSeconds) * time.Second,
	}

	if v := os.Getenv("BROKER_ACCESS_TOKEN"); v != "" {
		cfg.AccessToken = v
	}
	if v := os.Getenv("BROKER_ACCOUNT_ID"); v != "" {
		cfg.AccountID = v
	}
	if v := os.Getenv("BROKER_DOMAIN"); v != "" {
		cfg.Domain = v
	}

	if cfg.Broker == "" {
		cfg.Broker = "sim"
	}
	switch cfg.Broker {
	case "sim", "rest", "socket":
	default:
		return Config{}, fmt.Errorf("unknown broker %q", cfg.Broker)
	}
	if cfg.StreamDomain == "" {
		cfg.StreamDomain = cfg.Domain
	}
	if cfg.Broker == "rest" {
		if cfg.Domain == "" {
			return Config{}, fmt.Errorf("domain is empty")
		}
		if cfg.AccessToken == "" {
			return Config{}, fmt.Errorf("access token is empty")
		}
		if cfg.AccountID == "" {
			return Config{}, fmt.Errorf("account id is empty")
		}
	}
	if cfg.Broker == "socket" && cfg.SocketURL == "" {
		return Config{}, fmt.Errorf("socket url is empty")
	}
	if len(cfg.Pairs) == 0 {
		return Config{}, fmt.Errorf("pairs is empty")
	}
	for _, p := range cfg.Pairs {
		if !model.ValidPair(p) {
			return Config{}, fmt.Errorf("invalid pair %q", p)
		}
	}

	if cfg.OrderRouting == "" {
		cfg.OrderRouting = "SMART"
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if cfg.DefaultUnits <= 0 {
		cfg.DefaultUnits = 100000
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 1024
	}
	if cfg.SubmitRetries <= 0 {
		cfg.SubmitRetries = 3
	}
	if cfg.AckWait <= 0 {
		cfg.AckWait = 5 * time.Second
	}
	return cfg, nil
}
