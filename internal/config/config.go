package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	ServiceName    = "execution-simulator"
	ServiceVersion = ""
)

var (
	Env *EnvConfig
)

type EnvConfig struct {
	Env                     string                    `mapstructure:"env"`
	Log                     LogConfig                 `mapstructure:"log"`
	GracefulShutdownTimeout time.Duration             `mapstructure:"graceful_shutdown_timeout"`
	APIKeys                 []APIKeyConfig            `mapstructure:"api_keys"`
	Port                    map[string]string         `mapstructure:"port"`
	Database                map[string]DatabaseConfig `mapstructure:"database"`
	Redis                   map[string]RedisConfig    `mapstructure:"redis"`
	NatsJetstream           NatsJetstreamConfig       `mapstructure:"nats_jetstream"`
	Simulator               SimulatorConfig           `mapstructure:"simulator"`
	MarketContext           MarketContextConfig       `mapstructure:"market_context"`
}

type SimulatorConfig struct {
	Mode       string                    `mapstructure:"mode"`
	Seed       uint64                    `mapstructure:"seed"`
	Realistic  RealisticSimulatorConfig  `mapstructure:"realistic"`
	Historical HistoricalSimulatorConfig `mapstructure:"historical"`
}

// RealisticSimulatorConfig overrides the realistic fill model. Unset fields
// keep the built-in defaults, an explicit 0 switches the term off.
type RealisticSimulatorConfig struct {
	MinDelay                 *time.Duration `mapstructure:"min_delay"`
	MaxDelay                 *time.Duration `mapstructure:"max_delay"`
	MinSpread                *float64       `mapstructure:"min_spread"` // fraction, e.g. 0.0002 for 0.02%
	MaxSpread                *float64       `mapstructure:"max_spread"`
	MarketImpactRate         *float64       `mapstructure:"market_impact_rate"` // per 100 units
	MarketImpactCap          *float64       `mapstructure:"market_impact_cap"`
	VolatilityRate           *float64       `mapstructure:"volatility_rate"`
	PartialFillMinQuantity   *float64       `mapstructure:"partial_fill_min_quantity"`
	PartialFillProbability   *float64       `mapstructure:"partial_fill_probability"`
	PartialFillMinPercentage *float64       `mapstructure:"partial_fill_min_percentage"`
	PartialFillMaxPercentage *float64       `mapstructure:"partial_fill_max_percentage"`
}

type HistoricalSimulatorConfig struct {
	MinDelay         *time.Duration `mapstructure:"min_delay"`
	MaxDelay         *time.Duration `mapstructure:"max_delay"`
	MinInterpolation *float64       `mapstructure:"min_interpolation"`
	MaxInterpolation *float64       `mapstructure:"max_interpolation"`
}

type MarketContextConfig struct {
	Exchange         string        `mapstructure:"exchange"`
	Interval         string        `mapstructure:"interval"`
	VolatilityWindow int           `mapstructure:"volatility_window"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
}

type APIKeyConfig struct {
	Name      string `mapstructure:"name"`
	Key       string `mapstructure:"key"`
	Active    bool   `mapstructure:"active"`
	ExpiredAt any    `mapstructure:"expired_at"`
}

type NatsJetstreamConfig struct {
	URL             string                   `mapstructure:"url"`
	MaxRetries      int                      `mapstructure:"max_retries"`
	ReconnectFactor float64                  `mapstructure:"reconnect_factor"`
	MinJitter       time.Duration            `mapstructure:"min_jitter"`
	MaxJitter       time.Duration            `mapstructure:"max_jitter"`
	TimeoutHandler  map[string]time.Duration `mapstructure:"timeout_handler"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	ReconnectFactor float64       `mapstructure:"reconnect_factor"`
	MinJitter       time.Duration `mapstructure:"min_jitter"`
	MaxJitter       time.Duration `mapstructure:"max_jitter"`
	MaxRetry        int           `mapstructure:"max_retry"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxActiveConns  int           `mapstructure:"max_active_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

type LogConfig struct {
	ShowCaller bool   `mapstructure:"show_caller"`
	LogLevel   string `mapstructure:"log_level"`
}

type RedisConfig struct {
	CacheDSN string `mapstructure:"cache_dsn"`
}

func setDefaults() {
	viper.SetDefault("env", "development")
	viper.SetDefault("log.log_level", "info")
	viper.SetDefault("graceful_shutdown_timeout", 10*time.Second)
	viper.SetDefault("port.execution_gateway_http", "8080")
	viper.SetDefault("nats_jetstream.max_retries", 3)
	viper.SetDefault("nats_jetstream.timeout_handler.simulate_execution", 5*time.Second)
	viper.SetDefault("simulator.mode", "realistic")
	viper.SetDefault("market_context.exchange", "binance")
	viper.SetDefault("market_context.interval", "1m")
	viper.SetDefault("market_context.volatility_window", 20)
	viper.SetDefault("market_context.cache_ttl", time.Minute)
}

// LoadConfig reads the config file into Env. Without an explicit path a
// missing ./config.yml is not an error and the defaults apply.
func LoadConfig(configPath string) error {
	viper.Reset()
	setDefaults()

	configPath = strings.TrimSpace(configPath)
	explicitPath := configPath != ""
	if !explicitPath {
		viper.SetConfigName("config")
		viper.SetConfigType("yml")
		viper.AddConfigPath(".")
	} else {
		ext := strings.ToLower(filepath.Ext(configPath))
		if ext == ".yml" || ext == ".yaml" {
			viper.SetConfigFile(configPath)
		} else {
			viper.SetConfigName(filepath.Base(configPath))
			viper.SetConfigType("yml")
			configDir := filepath.Dir(configPath)
			if configDir == "." || configDir == "" {
				viper.AddConfigPath(".")
			} else {
				viper.AddConfigPath(configDir)
			}
		}
	}

	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicitPath || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &EnvConfig{}
	err = viper.Unmarshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config file: %w", err)
	}
	Env = cfg

	return nil
}
