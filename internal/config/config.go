package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type EventDelivery string

const (
	DeliverySync  EventDelivery = "sync"
	DeliveryKafka EventDelivery = "kafka"
	DeliveryAsync EventDelivery = "async"
)

type Config struct {
	HTTPAddr         string        `mapstructure:"HTTP_ADDR"`
	GRPCAddr         string        `mapstructure:"GRPC_ADDR"`
	MySQLDSN         string        `mapstructure:"MYSQL_DSN"`
	RedisAddr        string        `mapstructure:"REDIS_ADDR"`
	KafkaBrokers     string        `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic       string        `mapstructure:"KAFKA_TOPIC"`
	EventDelivery    EventDelivery `mapstructure:"EVENT_DELIVERY"`
	PublishWorkers   int           `mapstructure:"PUBLISH_WORKERS"`
	PublishQueueSize int           `mapstructure:"PUBLISH_QUEUE_SIZE"`
	OrderLockTTL     time.Duration `mapstructure:"ORDER_LOCK_TTL"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
}

func (c Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// Load reads defaults, then the optional config file, then the environment.
// An empty path skips the file.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, cfg.validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("GRPC_ADDR", ":50051")
	v.SetDefault("MYSQL_DSN", "root:root@tcp(localhost:3306)/refunds?parseTime=true")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "refund.events")
	v.SetDefault("EVENT_DELIVERY", string(DeliverySync))
	v.SetDefault("PUBLISH_WORKERS", 4)
	v.SetDefault("PUBLISH_QUEUE_SIZE", 1000)
	v.SetDefault("ORDER_LOCK_TTL", 30*time.Second)
	v.SetDefault("LOG_LEVEL", "info")
}

func (c Config) validate() error {
	switch c.EventDelivery {
	case DeliverySync, DeliveryKafka, DeliveryAsync:
	default:
		return fmt.Errorf("unknown EVENT_DELIVERY %q", c.EventDelivery)
	}
	if c.EventDelivery != DeliverySync && len(c.Brokers()) == 0 {
		return errors.New("KAFKA_BROKERS is required for kafka delivery")
	}
	if c.EventDelivery == DeliveryAsync && (c.PublishWorkers <= 0 || c.PublishQueueSize <= 0) {
		return errors.New("PUBLISH_WORKERS and PUBLISH_QUEUE_SIZE must be positive")
	}
	if c.OrderLockTTL <= 0 {
		return errors.New("ORDER_LOCK_TTL must be positive")
	}
	return nil
}
