package ops

import (
	"os"
	"strconv"
	"time"

	"github.com/yanun0323/errors"
	"gopkg.in/yaml.v3"

	"scalper/internal/adapter"
	"scalper/internal/engine"
	"scalper/internal/risk"
	"scalper/pkg/conn"
)

// FileConfig mirrors the YAML config layout.
type FileConfig struct {
	InitialBalance float64        `yaml:"initial_balance"`
	Engine         EngineConfig   `yaml:"engine"`
	Risk           RiskConfig     `yaml:"risk"`
	Paper          PaperConfig    `yaml:"paper"`
	Journal        JournalConfig  `yaml:"journal"`
	Metrics        MetricsConfig  `yaml:"metrics"`
	Profiler       ProfilerConfig `yaml:"profiler"`
	Schedule       ScheduleConfig `yaml:"schedule"`
}

// EngineConfig holds the trading parameters. Percentages are in percent
// units; durations in seconds or milliseconds as named.
type EngineConfig struct {
	MaxOpenPositions  int     `yaml:"max_open_positions"`
	MinPositionSize   float64 `yaml:"min_position_size"`
	MaxPositionSize   float64 `yaml:"max_position_size"`
	TargetProfitPct   float64 `yaml:"target_profit_pct"`
	MinProfitFloorPct float64 `yaml:"min_profit_floor_pct"`
	StopLossPct       float64 `yaml:"stop_loss_pct"`
	MaxHoldSeconds    int     `yaml:"max_hold_seconds"`
	StaleFeedSeconds  int     `yaml:"stale_feed_seconds"`
	TickIntervalMs    int     `yaml:"tick_interval_ms"`
	EvalIntervalMs    int     `yaml:"eval_interval_ms"`
}

// RiskConfig holds the risk gate limits.
type RiskConfig struct {
	MaxDailyTrades       int     `yaml:"max_daily_trades"`
	MaxConsecutiveLosses int     `yaml:"max_consecutive_losses"`
	MaxDrawdownPct       float64 `yaml:"max_drawdown_pct"`
}

// PaperConfig holds the simulated market settings.
type PaperConfig struct {
	QuoteBalance float64        `yaml:"quote_balance"`
	Drift        float64        `yaml:"drift"`
	Volatility   float64        `yaml:"volatility"`
	SlippagePct  float64        `yaml:"slippage_pct"`
	Seed         int64          `yaml:"seed"`
	Symbols      []SymbolConfig `yaml:"symbols"`
	ScriptsFile  string         `yaml:"scripts_file"`
}

// SymbolConfig lists one tradable symbol and its starting price.
type SymbolConfig struct {
	Name  string  `yaml:"name"`
	Price float64 `yaml:"price"`
}

// JournalConfig holds the optional trade journal database settings.
type JournalConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// MetricsConfig holds the metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// ProfilerConfig holds the optional continuous profiler settings.
type ProfilerConfig struct {
	Enabled         bool   `yaml:"enabled"`
	ServerAddress   string `yaml:"server_address"`
	ApplicationName string `yaml:"application_name"`
}

// ScheduleConfig holds the cron expressions for the maintenance jobs.
type ScheduleConfig struct {
	SummaryCron string `yaml:"summary_cron"`
	SyncCron    string `yaml:"sync_cron"`
}

// Loaded is the resolved configuration ready for wiring.
type Loaded struct {
	InitialBalance float64
	Engine         engine.Config
	Risk           risk.Config
	Paper          adapter.PaperConfig
	Symbols        []SymbolConfig
	ScriptsFile    string
	Journal        JournalConfig
	Metrics        MetricsConfig
	Profiler       ProfilerConfig
	Schedule       ScheduleConfig
}

// Load reads a YAML config file, applies environment overrides and
// defaults, and resolves the runtime configuration. A missing file is
// fine; defaults carry the run.
func Load(path string) (Loaded, error) {
	var cfg FileConfig
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return Loaded{}, errors.Wrap(err, "read config")
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Loaded{}, errors.Wrap(err, "parse config")
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validate(cfg); err != nil {
		return Loaded{}, err
	}
	return resolve(cfg), nil
}

func applyEnv(cfg *FileConfig) {
	if v := os.Getenv("SCALPER_INITIAL_BALANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.InitialBalance = f
		}
	}
	if v := os.Getenv("SCALPER_PG_HOST"); v != "" {
		cfg.Journal.Host = v
	}
	if v := os.Getenv("SCALPER_PG_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Journal.Port = n
		}
	}
	if v := os.Getenv("SCALPER_PG_USER"); v != "" {
		cfg.Journal.User = v
	}
	if v := os.Getenv("SCALPER_PG_PASSWORD"); v != "" {
		cfg.Journal.Password = v
	}
	if v := os.Getenv("SCALPER_PG_DATABASE"); v != "" {
		cfg.Journal.Database = v
	}
	if v := os.Getenv("SCALPER_METRICS_LISTEN"); v != "" {
		cfg.Metrics.Listen = v
	}
	if v := os.Getenv("PYROSCOPE_SERVER_ADDRESS"); v != "" {
		cfg.Profiler.ServerAddress = v
	}
}

func applyDefaults(cfg *FileConfig) {
	if cfg.InitialBalance == 0 {
		cfg.InitialBalance = 100
	}
	if cfg.Engine.MaxOpenPositions == 0 {
		cfg.Engine.MaxOpenPositions = 3
	}
	if cfg.Engine.MinPositionSize == 0 {
		cfg.Engine.MinPositionSize = 5
	}
	if cfg.Engine.MaxPositionSize == 0 {
		cfg.Engine.MaxPositionSize = 20
	}
	if cfg.Engine.TargetProfitPct == 0 {
		cfg.Engine.TargetProfitPct = 0.8
	}
	if cfg.Engine.MinProfitFloorPct == 0 {
		cfg.Engine.MinProfitFloorPct = 0.4
	}
	if cfg.Engine.StopLossPct == 0 {
		cfg.Engine.StopLossPct = 0.5
	}
	if cfg.Engine.MaxHoldSeconds == 0 {
		cfg.Engine.MaxHoldSeconds = 120
	}
	if cfg.Engine.StaleFeedSeconds == 0 {
		cfg.Engine.StaleFeedSeconds = 10
	}
	if cfg.Engine.TickIntervalMs == 0 {
		cfg.Engine.TickIntervalMs = 1000
	}
	if cfg.Engine.EvalIntervalMs == 0 {
		cfg.Engine.EvalIntervalMs = 2000
	}
	if cfg.Risk.MaxDailyTrades == 0 {
		cfg.Risk.MaxDailyTrades = 30
	}
	if cfg.Risk.MaxConsecutiveLosses == 0 {
		cfg.Risk.MaxConsecutiveLosses = 3
	}
	if cfg.Risk.MaxDrawdownPct == 0 {
		cfg.Risk.MaxDrawdownPct = 10
	}
	if cfg.Paper.QuoteBalance == 0 {
		cfg.Paper.QuoteBalance = cfg.InitialBalance
	}
	if cfg.Paper.SlippagePct == 0 {
		cfg.Paper.SlippagePct = 0.05
	}
	if len(cfg.Paper.Symbols) == 0 && cfg.Paper.ScriptsFile == "" {
		cfg.Paper.Symbols = []SymbolConfig{{Name: "BONK", Price: 0.000024}}
	}
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = ":9890"
	}
	if cfg.Profiler.ApplicationName == "" {
		cfg.Profiler.ApplicationName = "scalper"
	}
	if cfg.Schedule.SummaryCron == "" {
		// Daily summary just after UTC midnight.
		cfg.Schedule.SummaryCron = "0 5 0 * * *"
	}
	if cfg.Schedule.SyncCron == "" {
		// Balance reconciliation every 30 seconds.
		cfg.Schedule.SyncCron = "*/30 * * * * *"
	}
	if cfg.Journal.Enabled {
		if cfg.Journal.Host == "" {
			cfg.Journal.Host = "localhost"
		}
		if cfg.Journal.Port == 0 {
			cfg.Journal.Port = 5432
		}
		if cfg.Journal.Database == "" {
			cfg.Journal.Database = "scalper"
		}
	}
}

func validate(cfg FileConfig) error {
	if cfg.InitialBalance <= 0 {
		return errors.New("initial_balance must be positive")
	}
	if cfg.Engine.MinPositionSize > cfg.Engine.MaxPositionSize {
		return errors.Errorf("min_position_size %.4f exceeds max_position_size %.4f",
			cfg.Engine.MinPositionSize, cfg.Engine.MaxPositionSize)
	}
	if cfg.Engine.MinProfitFloorPct > cfg.Engine.TargetProfitPct {
		return errors.Errorf("min_profit_floor_pct %.2f exceeds target_profit_pct %.2f",
			cfg.Engine.MinProfitFloorPct, cfg.Engine.TargetProfitPct)
	}
	if cfg.Engine.StopLossPct <= 0 {
		return errors.New("stop_loss_pct must be positive")
	}
	if cfg.Risk.MaxDrawdownPct <= 0 {
		return errors.New("max_drawdown_pct must be positive")
	}
	for _, sym := range cfg.Paper.Symbols {
		if sym.Name == "" || sym.Price <= 0 {
			return errors.Errorf("invalid symbol entry %q with price %.8f", sym.Name, sym.Price)
		}
	}
	if cfg.Profiler.Enabled && cfg.Profiler.ServerAddress == "" {
		return errors.New("profiler.server_address is required when the profiler is enabled")
	}
	return nil
}

func resolve(cfg FileConfig) Loaded {
	return Loaded{
		InitialBalance: cfg.InitialBalance,
		Engine: engine.Config{
			MaxOpenPositions:  cfg.Engine.MaxOpenPositions,
			MinPositionSize:   cfg.Engine.MinPositionSize,
			MaxPositionSize:   cfg.Engine.MaxPositionSize,
			TargetProfitPct:   cfg.Engine.TargetProfitPct,
			MinProfitFloorPct: cfg.Engine.MinProfitFloorPct,
			StopLossPct:       cfg.Engine.StopLossPct,
			MaxHoldDuration:   time.Duration(cfg.Engine.MaxHoldSeconds) * time.Second,
			StaleFeedTimeout:  time.Duration(cfg.Engine.StaleFeedSeconds) * time.Second,
			TickInterval:      time.Duration(cfg.Engine.TickIntervalMs) * time.Millisecond,
			EvalInterval:      time.Duration(cfg.Engine.EvalIntervalMs) * time.Millisecond,
		},
		Risk: risk.Config{
			MaxDailyTrades:       cfg.Risk.MaxDailyTrades,
			MaxConsecutiveLosses: cfg.Risk.MaxConsecutiveLosses,
			MaxDrawdownPct:       cfg.Risk.MaxDrawdownPct,
		},
		Paper: adapter.PaperConfig{
			QuoteBalance: cfg.Paper.QuoteBalance,
			Drift:        cfg.Paper.Drift,
			Volatility:   cfg.Paper.Volatility,
			SlippagePct:  cfg.Paper.SlippagePct,
			Seed:         cfg.Paper.Seed,
		},
		Symbols:     cfg.Paper.Symbols,
		ScriptsFile: cfg.Paper.ScriptsFile,
		Journal:     cfg.Journal,
		Metrics:     cfg.Metrics,
		Profiler:    cfg.Profiler,
		Schedule:    cfg.Schedule,
	}
}

// PGOption converts the journal settings to a database option.
func (j JournalConfig) PGOption() conn.Option {
	return conn.Option{
		Host:     j.Host,
		Port:     j.Port,
		User:     j.User,
		Password: j.Password,
		Database: j.Database,
		SSLMode:  j.SSLMode,
	}
}
