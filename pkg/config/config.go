package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"SignalBoard/pkg/util"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development" validate:"required"`
	Server      ServerConfig     `yaml:"server"`
	Log         LogConfig        `yaml:"log"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Assets      []string         `yaml:"assets" default:"[\"TSLA\",\"HOOD\",\"COIN\",\"PLTR\",\"AAPL\"]" validate:"min=1,dive,required"`
	Poll        PollConfig       `yaml:"poll"`
	Source      SourceConfig     `yaml:"source"`
	Ledger      LedgerConfig     `yaml:"ledger"`
	Market      MarketConfig     `yaml:"market"`
	Sink        SinkConfig       `yaml:"sink"`
	Kafka       KafkaConfig      `yaml:"kafka"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	Redis       RedisConfig      `yaml:"redis"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	RateLimit       struct {
		Burst  int     `yaml:"burst" default:"40"`
		PerSec float64 `yaml:"per_sec" default:"20"`
	} `yaml:"rate_limit"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"json" validate:"oneof=json console"`
	Output string `yaml:"output" default:"stdout"`
}

type MetricsConfig struct {
	Disabled bool   `yaml:"disabled"`
	Path     string `yaml:"path" default:"/metrics" validate:"startswith=/"`
}

type PollConfig struct {
	Interval           time.Duration `yaml:"interval" default:"5s" validate:"gte=1s,lte=60s"`
	FetchTimeout       time.Duration `yaml:"fetch_timeout" default:"5s" validate:"gt=0"`
	StalenessThreshold time.Duration `yaml:"staleness_threshold" default:"120s" validate:"gt=0"`
	// Watch wakes the poller on file changes when the source is a local directory.
	Watch bool `yaml:"watch"`
}

type SourceConfig struct {
	Type     string        `yaml:"type" default:"file" validate:"oneof=file http redis"`
	BaseDir  string        `yaml:"base_dir" default:"."`
	BaseURL  string        `yaml:"base_url" validate:"omitempty,url"`
	CacheTTL time.Duration `yaml:"cache_ttl" default:"2s"`
}

type LedgerConfig struct {
	// Backend defaults to the source type, except http which cannot be written.
	Backend string `yaml:"backend" validate:"omitempty,oneof=file redis"`
	Path    string `yaml:"path" default:"data/trades_history.json" validate:"required"`
}

type MarketConfig struct {
	UTCOffsetHours *float64 `yaml:"utc_offset_hours" default:"-4" validate:"required,gte=-12,lte=14"`
	Open           string   `yaml:"open" default:"09:30" validate:"required"`
	Close          string   `yaml:"close" default:"16:00" validate:"required"`
}

type SinkConfig struct {
	Type string `yaml:"type" default:"none" validate:"oneof=none kafka clickhouse"`
}

type KafkaConfig struct {
	Brokers      []string `yaml:"brokers" default:"[\"localhost:9092\"]"`
	Topic        string   `yaml:"topic" default:"signalboard.trades"`
	RequiredAcks int      `yaml:"required_acks" default:"-1"`
	Compression  string   `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
	Producer     struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"5"`
		Linger       time.Duration `yaml:"linger" default:"50ms"`
		BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"5s"`
		Async        bool          `yaml:"async"`
	} `yaml:"producer"`
}

type ClickHouseConfig struct {
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"signalboard"`
	Table            string        `yaml:"table" default:"trades"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr" default:"localhost:6379"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix" default:"signalboard:"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file. An empty path yields defaults.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.finalize(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadWithEnv loads an optional .env file, the YAML config and then applies
// environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SIGNALBOARD_SOURCE_TYPE"); v != "" {
		c.Source.Type = strings.ToLower(v)
	}
	if v := os.Getenv("SIGNALBOARD_SOURCE_BASE_URL"); v != "" {
		c.Source.BaseURL = v
	}
	if v := os.Getenv("SIGNALBOARD_BASE_DIR"); v != "" {
		c.Source.BaseDir = v
	}
	if v := os.Getenv("SIGNALBOARD_ASSETS"); v != "" {
		c.Assets = util.SplitList(v)
	}
	if v := os.Getenv("SIGNALBOARD_POLL_INTERVAL"); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("SIGNALBOARD_POLL_INTERVAL: %w", err)
		}
		c.Poll.Interval = d
	}
	if v := os.Getenv("SIGNALBOARD_SINK"); v != "" {
		c.Sink.Type = strings.ToLower(v)
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}

	if err := c.finalize(); err != nil {
		return nil, err
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	var c Config
	if path == "" {
		return &c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

func (c *Config) finalize() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}
	for i, a := range c.Assets {
		c.Assets[i] = strings.ToUpper(strings.TrimSpace(a))
	}
	if c.Ledger.Backend == "" {
		c.Ledger.Backend = "file"
		if c.Source.Type == "redis" {
			c.Ledger.Backend = "redis"
		}
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Source.Type == "http" && c.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url is required when source.type is http")
	}
	if c.Sink.Type == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when sink.type is kafka")
	}
	return nil
}

// UTCOffset returns the configured market offset in hours.
func (m MarketConfig) UTCOffset() float64 {
	if m.UTCOffsetHours == nil {
		return -4
	}
	return *m.UTCOffsetHours
}

// parseDuration accepts Go durations and bare seconds.
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}
