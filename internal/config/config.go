package config

import (
	"time"
)

type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Broker         BrokerConfig
	Logging        LoggingConfig
	Mailbox        MailboxConfig
	Classifier     ClassifierConfig
	Extractor      ExtractorConfig
	Cleaner        CleanerConfig
	Geocoder       GeocoderConfig
	Poll           PollConfig
	CircuitBreaker CircuitBreakerConfig
}

type ServerConfig struct {
	Port                int           `mapstructure:"port"`
	ReadTimeoutSeconds  time.Duration `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds time.Duration `mapstructure:"write_timeout_seconds"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig
	Redis         RedisConfig
	RunMigrations bool `mapstructure:"run_migrations"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

type BrokerConfig struct {
	Type  string      `mapstructure:"type"`
	Kafka KafkaConfig `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers          []string `mapstructure:"brokers"`
	OrderEventsTopic string   `mapstructure:"order_events_topic"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MailboxConfig points the fetcher at the mail gateway. Query is an
// optional ad hoc source-side filter combined with the watermark;
// Filter is an optional local CEL predicate applied to fetched messages.
type MailboxConfig struct {
	GatewayURL   string        `mapstructure:"gateway_url"`
	APIKey       string        `mapstructure:"api_key"`
	Query        string        `mapstructure:"query"`
	Filter       string        `mapstructure:"filter"`
	MaxBatchSize int           `mapstructure:"max_batch_size"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type ClassifierConfig struct {
	URL             string        `mapstructure:"url"`
	APIKey          string        `mapstructure:"api_key"`
	Model           string        `mapstructure:"model"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
}

type ExtractorConfig struct {
	URL         string        `mapstructure:"url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// CleanerConfig points the address cleaning step at the model gateway.
// An empty URL disables the step; addresses then reach the geocoder raw.
type CleanerConfig struct {
	URL         string        `mapstructure:"url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type GeocoderConfig struct {
	URL             string        `mapstructure:"url"`
	APIKey          string        `mapstructure:"api_key"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RequestsPerSec  float64       `mapstructure:"requests_per_sec"`
	CacheTTLSeconds int           `mapstructure:"cache_ttl_seconds"`
}

type PollConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
