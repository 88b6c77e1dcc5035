package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config for the whole application
type Config struct {
	App     AppConfig
	Engine  EngineConfig
	Feed    FeedConfig
	Sink    SinkConfig
	API     APIConfig
	Metrics MetricsConfig
}

// General application configuration
type AppConfig struct {
	Name        string
	Environment string
	LogLevel    string `mapstructure:"log_level"`
	// Account label stamped on emitted records
	Account string
}

// Configuration for the computation engine. These are named policy
// constants; override them rather than editing code.
type EngineConfig struct {
	RiskFreeRate         float64       `mapstructure:"risk_free_rate"`
	ExpiryGraceWindow    time.Duration `mapstructure:"expiry_grace_window"`
	SnapshotInterval     time.Duration `mapstructure:"snapshot_interval"`
	ReferenceIndexPrice  float64       `mapstructure:"reference_index_price"`
	ConcentrationFlagPct float64       `mapstructure:"concentration_flag_pct"`
	DeltaFlagShares      float64       `mapstructure:"delta_flag_shares"`
	ThetaFlagPerDay      float64       `mapstructure:"theta_flag_per_day"`
	// Betas and Sectors extend or replace the built-in tables
	Betas   map[string]float64
	Sectors map[string]string
}

// Configuration for the snapshot source
type FeedConfig struct {
	// Source selects the snapshot supplier: "file" or "kafka"
	Source string
	File   FileFeedConfig
	Kafka  KafkaFeedConfig
}

// Configuration for the file snapshot source
type FileFeedConfig struct {
	Path string
}

// Configuration for the Kafka snapshot source
type KafkaFeedConfig struct {
	Brokers []string
	Topic   string
	GroupID string `mapstructure:"group_id"`
}

// Configuration for the output sinks
type SinkConfig struct {
	JSONL     JSONLSinkConfig
	Kafka     KafkaSinkConfig
	WebSocket WebSocketSinkConfig
}

// Configuration for the JSON Lines file sink
type JSONLSinkConfig struct {
	Enabled bool
	Path    string
}

// Configuration for the Kafka record sink
type KafkaSinkConfig struct {
	Enabled      bool
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// Configuration for the websocket stream sink
type WebSocketSinkConfig struct {
	Enabled bool
}

// Configuration for the API server
type APIConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Configuration for metrics exposure
type MetricsConfig struct {
	Enabled bool
}

// Load reads the configuration from config/config.yaml (when present) and
// RISKENGINE_-prefixed environment variables, on top of the defaults.
func Load() (*Config, error) {
	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	viper.SetEnvPrefix("RISKENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// viper lowercases map keys; symbols are matched uppercase
	config.Engine.Betas = upperKeys(config.Engine.Betas)
	config.Engine.Sectors = upperKeys(config.Engine.Sectors)

	return &config, nil
}

func upperKeys[V any](m map[string]V) map[string]V {
	if len(m) == 0 {
		return m
	}
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[strings.ToUpper(k)] = v
	}
	return out
}

func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "options-risk-engine")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.account", "ALL")

	// Engine defaults
	viper.SetDefault("engine.risk_free_rate", 0.05)
	viper.SetDefault("engine.expiry_grace_window", "2h")
	viper.SetDefault("engine.snapshot_interval", "2s")
	viper.SetDefault("engine.reference_index_price", 637.0)
	viper.SetDefault("engine.concentration_flag_pct", 30.0)
	viper.SetDefault("engine.delta_flag_shares", 2000.0)
	viper.SetDefault("engine.theta_flag_per_day", -1000.0)

	// Feed defaults
	viper.SetDefault("feed.source", "file")
	viper.SetDefault("feed.file.path", "./snapshot.json")
	viper.SetDefault("feed.kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("feed.kafka.topic", "portfolio.snapshots")
	viper.SetDefault("feed.kafka.group_id", "risk-engine")

	// Sink defaults
	viper.SetDefault("sink.jsonl.enabled", true)
	viper.SetDefault("sink.jsonl.path", "./greeks_timeseries.jsonl")
	viper.SetDefault("sink.kafka.enabled", false)
	viper.SetDefault("sink.kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("sink.kafka.topic", "risk.records")
	viper.SetDefault("sink.kafka.batch_timeout", "50ms")
	viper.SetDefault("sink.websocket.enabled", true)

	// API defaults
	viper.SetDefault("api.host", "0.0.0.0")
	viper.SetDefault("api.port", 8080)
	viper.SetDefault("api.read_timeout", "10s")
	viper.SetDefault("api.write_timeout", "10s")
	viper.SetDefault("api.shutdown_timeout", "30s")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
}
