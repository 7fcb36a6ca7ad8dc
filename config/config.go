package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/polyclaw/internal/domain"
	"github.com/alejandrodnm/polyclaw/internal/risk"
	"github.com/alejandrodnm/polyclaw/internal/strategy"
)

// Config es la configuración completa del trader.
type Config struct {
	Trader     TraderConfig                `yaml:"trader"`
	Strategies map[string]StrategyOverride `yaml:"strategies"`
	API        APIConfig                   `yaml:"api"`
	Storage    StorageConfig               `yaml:"storage"`
	Triggers   TriggerConfig               `yaml:"triggers"`
	Classifier ClassifierConfig            `yaml:"classifier"`
	Server     ServerConfig                `yaml:"server"`
	Log        LogConfig                   `yaml:"log"`
}

// TraderConfig controla el ciclo y los límites globales de riesgo.
type TraderConfig struct {
	StartingBalance   float64  `yaml:"starting_balance"`
	MaxPositions      int      `yaml:"max_positions"`
	MinReserve        float64  `yaml:"min_reserve"`
	MaxTopicPositions int      `yaml:"max_topic_positions"`
	MarketLimit       int      `yaml:"market_limit"`
	IntervalSeconds   int      `yaml:"interval_seconds"`
	Order             []string `yaml:"order"` // orden de evaluación de estrategias
	AutoSnapshot      *bool    `yaml:"auto_snapshot"`
	StopFile          string   `yaml:"stop_file"` // si existe, el loop termina
}

// StrategyOverride sobreescribe campos de strategy.Params. Los nil se ignoran.
type StrategyOverride struct {
	PositionPct     *float64 `yaml:"position_pct"`
	MaxTicket       *float64 `yaml:"max_ticket"`
	MinTicket       *float64 `yaml:"min_ticket"`
	TakeProfit      *float64 `yaml:"take_profit"`
	StopLoss        *float64 `yaml:"stop_loss"`
	MinVolume       *float64 `yaml:"min_volume"`
	MaxPositions    *int     `yaml:"max_positions"`
	PerCycle        *int     `yaml:"per_cycle"`
	MinPrice        *float64 `yaml:"min_price"`
	MaxPrice        *float64 `yaml:"max_price"`
	MinDaysToExpiry *int     `yaml:"min_days_to_expiry"`
}

// APIConfig contiene el base URL de Gamma.
type APIConfig struct {
	GammaBase      string `yaml:"gamma_base"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// StorageConfig controla dónde se persiste el ledger.
type StorageConfig struct {
	Driver string `yaml:"driver"` // sqlite | json
	DSN    string `yaml:"dsn"`    // ruta SQLite, ":memory:", o ruta del JSON
}

// TriggerConfig controla de dónde se leen los triggers de momentum.
type TriggerConfig struct {
	Driver           string `yaml:"driver"` // sqlite | redis | file | none
	Path             string `yaml:"path"`   // driver file
	RedisAddr        string `yaml:"redis_addr"`
	RedisPassword    string `yaml:"redis_password"`
	RedisDB          int    `yaml:"redis_db"`
	RedisKey         string `yaml:"redis_key"`
	StalenessMinutes int    `yaml:"staleness_minutes"`
}

// ClassifierConfig apunta a un vocabulario alternativo.
type ClassifierConfig struct {
	VocabularyFile string `yaml:"vocabulary_file"` // vacío = vocabulario embebido
}

// ServerConfig controla la API HTTP.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del entorno sobreescriben los del YAML.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return &cfg, nil
}

// Default devuelve la configuración por defecto, usada cuando no hay archivo.
func Default() *Config {
	var cfg Config
	_ = applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	return &cfg
}

// Interval devuelve el intervalo entre ciclos.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Trader.IntervalSeconds) * time.Second
}

// APITimeout devuelve el timeout HTTP del cliente de Gamma.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// TriggerStaleness devuelve la edad máxima de un trigger procesable.
func (c *Config) TriggerStaleness() time.Duration {
	return time.Duration(c.Triggers.StalenessMinutes) * time.Minute
}

// AutoSnapshot indica si los ciclos toman el snapshot diario.
func (c *Config) AutoSnapshot() bool {
	return c.Trader.AutoSnapshot == nil || *c.Trader.AutoSnapshot
}

// StrategyOrder devuelve el orden de evaluación como tags.
func (c *Config) StrategyOrder() []domain.StrategyTag {
	order := make([]domain.StrategyTag, 0, len(c.Trader.Order))
	for _, s := range c.Trader.Order {
		order = append(order, domain.StrategyTag(s))
	}
	return order
}

// RiskLimits devuelve los límites globales del gate.
func (c *Config) RiskLimits() risk.Limits {
	return risk.Limits{
		MaxPositions:      c.Trader.MaxPositions,
		MinReserve:        c.Trader.MinReserve,
		MaxTopicPositions: c.Trader.MaxTopicPositions,
	}
}

// StrategyParams aplica los overrides del YAML sobre la tabla por defecto.
func (c *Config) StrategyParams() strategy.ParamsTable {
	table := strategy.DefaultParams()
	for tag, o := range c.Strategies {
		p := table.For(domain.StrategyTag(tag))
		table[domain.StrategyTag(tag)] = o.apply(p)
	}
	return table
}

func (o StrategyOverride) apply(p strategy.Params) strategy.Params {
	setF := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	setI := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setF(&p.PositionPct, o.PositionPct)
	setF(&p.MaxTicket, o.MaxTicket)
	setF(&p.MinTicket, o.MinTicket)
	setF(&p.TakeProfit, o.TakeProfit)
	setF(&p.StopLoss, o.StopLoss)
	setF(&p.MinVolume, o.MinVolume)
	setI(&p.MaxPositions, o.MaxPositions)
	setI(&p.PerCycle, o.PerCycle)
	setF(&p.MinPrice, o.MinPrice)
	setF(&p.MaxPrice, o.MaxPrice)
	setI(&p.MinDaysToExpiry, o.MinDaysToExpiry)
	return p
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("POLYCLAW_STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("POLYCLAW_REDIS_ADDR"); v != "" {
		cfg.Triggers.RedisAddr = v
	}
	if v := os.Getenv("POLYCLAW_STARTING_BALANCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("POLYCLAW_STARTING_BALANCE: %w", err)
		}
		cfg.Trader.StartingBalance = f
	}
	return nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	limits := risk.DefaultLimits()
	if cfg.Trader.StartingBalance <= 0 {
		cfg.Trader.StartingBalance = 10000
	}
	if cfg.Trader.MaxPositions <= 0 {
		cfg.Trader.MaxPositions = limits.MaxPositions
	}
	if cfg.Trader.MinReserve <= 0 {
		cfg.Trader.MinReserve = limits.MinReserve
	}
	if cfg.Trader.MaxTopicPositions <= 0 {
		cfg.Trader.MaxTopicPositions = limits.MaxTopicPositions
	}
	if cfg.Trader.MarketLimit <= 0 {
		cfg.Trader.MarketLimit = 100
	}
	if cfg.Trader.IntervalSeconds <= 0 {
		cfg.Trader.IntervalSeconds = 300
	}
	if len(cfg.Trader.Order) == 0 {
		for _, tag := range domain.AllStrategies {
			cfg.Trader.Order = append(cfg.Trader.Order, string(tag))
		}
	}
	if cfg.Trader.StopFile == "" {
		cfg.Trader.StopFile = "STOP"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.API.TimeoutSeconds <= 0 {
		cfg.API.TimeoutSeconds = 15
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.DSN == "" {
		if cfg.Storage.Driver == "json" {
			cfg.Storage.DSN = "auto_portfolio.json"
		} else {
			cfg.Storage.DSN = "polyclaw.db"
		}
	}
	if cfg.Triggers.Driver == "" {
		cfg.Triggers.Driver = "sqlite"
	}
	if cfg.Triggers.Path == "" {
		cfg.Triggers.Path = "trigger_trade.json"
	}
	if cfg.Triggers.RedisAddr == "" {
		cfg.Triggers.RedisAddr = "localhost:6379"
	}
	if cfg.Triggers.StalenessMinutes <= 0 {
		cfg.Triggers.StalenessMinutes = int(domain.DefaultTriggerStaleness / time.Minute)
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8090"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "sqlite", "json":
	default:
		return fmt.Errorf("storage.driver %q: want sqlite or json", c.Storage.Driver)
	}
	switch c.Triggers.Driver {
	case "sqlite", "redis", "file", "none":
	default:
		return fmt.Errorf("triggers.driver %q: want sqlite, redis, file or none", c.Triggers.Driver)
	}
	if c.Triggers.Driver == "sqlite" && c.Storage.Driver != "sqlite" {
		return fmt.Errorf("triggers.driver sqlite needs storage.driver sqlite")
	}
	for _, s := range c.Trader.Order {
		if !isStrategy(domain.StrategyTag(s)) {
			return fmt.Errorf("trader.order: unknown strategy %q", s)
		}
	}
	for s := range c.Strategies {
		if !isStrategy(domain.StrategyTag(s)) {
			return fmt.Errorf("strategies: unknown strategy %q", s)
		}
	}
	return nil
}

func isStrategy(tag domain.StrategyTag) bool {
	for _, t := range domain.AllStrategies {
		if t == tag {
			return true
		}
	}
	return false
}
