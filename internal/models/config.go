package models

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	TenantID        string         `mapstructure:"tenant_id"`
	RecentWindow    time.Duration  `mapstructure:"recent_window"`
	WriteTimeout    time.Duration  `mapstructure:"write_timeout"`
	MetricsInterval time.Duration  `mapstructure:"metrics_interval"`
	Database        DatabaseConfig `mapstructure:"database"`
	Kafka           KafkaConfig    `mapstructure:"kafka"`
	Archive         ArchiveConfig  `mapstructure:"archive"`
	LogLevel        string         `mapstructure:"log_level"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type KafkaConfig struct {
	BrokerList        string        `mapstructure:"broker_list"`
	ChangeFeedTopic   string        `mapstructure:"change_feed_topic"`
	PresenceTopic     string        `mapstructure:"presence_topic"`
	ConsumerGroup     string        `mapstructure:"consumer_group"`
	SessionTimeoutMs  int           `mapstructure:"session_timeout_ms"`
	ReconnectBackoff  time.Duration `mapstructure:"reconnect_backoff"`
	PresenceHeartbeat time.Duration `mapstructure:"presence_heartbeat"`
}

type ArchiveConfig struct {
	Destination string `mapstructure:"destination"` // "local" or "s3"
	OutputPath  string `mapstructure:"output_path"`
	Bucket      string `mapstructure:"bucket"`
	Region      string `mapstructure:"region"`
}

// DSN builds the Postgres connection string for the durable store.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func LoadConfig(cfgFile string) (*Config, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Default config location
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv() // Read in environment variables that match

	viper.SetDefault("recent_window", "24h")
	viper.SetDefault("write_timeout", "10s")
	viper.SetDefault("metrics_interval", "30s")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("kafka.change_feed_topic", "orders_cdc")
	viper.SetDefault("kafka.presence_topic", "presence")
	viper.SetDefault("kafka.reconnect_backoff", "2s")
	viper.SetDefault("kafka.presence_heartbeat", "30s")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("archive.destination", "local")
	viper.SetDefault("archive.output_path", "archive")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToTimeDurationHookFunc(),
		)
	})
	if err := viper.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if config.TenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	return &config, nil
}
