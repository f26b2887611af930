package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func bindEnvVariables() {
	viper.BindEnv("broker.kafka.brokers", "BROKER_KAFKA_BROKERS")
	viper.BindEnv("broker.kafka.order_events_topic", "BROKER_KAFKA_ORDER_EVENTS_TOPIC")

	viper.BindEnv("database.postgres.host", "DATABASE_POSTGRES_HOST")
	viper.BindEnv("database.postgres.port", "DATABASE_POSTGRES_PORT")
	viper.BindEnv("database.postgres.user", "DATABASE_POSTGRES_USER")
	viper.BindEnv("database.postgres.password", "DATABASE_POSTGRES_PASSWORD")
	viper.BindEnv("database.postgres.dbname", "DATABASE_POSTGRES_DBNAME")
	viper.BindEnv("database.postgres.sslmode", "DATABASE_POSTGRES_SSLMODE")

	viper.BindEnv("database.redis.host", "DATABASE_REDIS_HOST")
	viper.BindEnv("database.redis.port", "DATABASE_REDIS_PORT")
	viper.BindEnv("database.redis.password", "DATABASE_REDIS_PASSWORD")
	viper.BindEnv("database.redis.db", "DATABASE_REDIS_DB")

	viper.BindEnv("server.port", "SERVER_PORT")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")

	viper.BindEnv("mailbox.gateway_url", "MAILBOX_GATEWAY_URL")
	viper.BindEnv("mailbox.api_key", "MAILBOX_API_KEY")
	viper.BindEnv("mailbox.query", "MAILBOX_QUERY")
	viper.BindEnv("mailbox.filter", "MAILBOX_FILTER")

	viper.BindEnv("classifier.url", "CLASSIFIER_URL")
	viper.BindEnv("classifier.api_key", "CLASSIFIER_API_KEY")
	viper.BindEnv("classifier.model", "CLASSIFIER_MODEL")

	viper.BindEnv("extractor.url", "EXTRACTOR_URL")
	viper.BindEnv("extractor.api_key", "EXTRACTOR_API_KEY")
	viper.BindEnv("extractor.model", "EXTRACTOR_MODEL")

	viper.BindEnv("cleaner.url", "CLEANER_URL")
	viper.BindEnv("cleaner.api_key", "CLEANER_API_KEY")
	viper.BindEnv("cleaner.model", "CLEANER_MODEL")

	viper.BindEnv("geocoder.url", "GEOCODER_URL")
	viper.BindEnv("geocoder.api_key", "GEOCODER_API_KEY")
}

func applyEnvOverrides(cfg *Config) error {
	if brokersEnv := viper.GetString("BROKER_KAFKA_BROKERS"); brokersEnv != "" {
		brokers := strings.Split(brokersEnv, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		if len(brokers) > 0 && brokers[0] != "" {
			cfg.Broker.Kafka.Brokers = brokers
		}
	}

	return nil
}
