// Package config loads service configuration from an optional YAML file with
// environment variable overrides for the infrastructure endpoints.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP   HTTPConfig   `yaml:"http"`
	Kafka  KafkaConfig  `yaml:"kafka"`
	MySQL  MySQLConfig  `yaml:"mysql"`
	Redis  RedisConfig  `yaml:"redis"`
	Jaeger JaegerConfig `yaml:"jaeger"`
	Outbox OutboxConfig `yaml:"outbox"`
	Rules  RulesConfig  `yaml:"rules"`
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"groupId"`
}

type MySQLConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
}

type JaegerConfig struct {
	Endpoint string `yaml:"endpoint"`
}

type OutboxConfig struct {
	// Interval is parsed with time.ParseDuration, e.g. "15s".
	Interval  string `yaml:"interval"`
	BatchSize int    `yaml:"batchSize"`
}

// RulesConfig carries the rule parameters and risk scores. The defaults are
// the observed production values; deployments may override them but no extra
// business meaning should be read into the knobs.
type RulesConfig struct {
	AmountThreshold     float64 `yaml:"amountThreshold"`
	HighAmountScore     float64 `yaml:"highAmountScore"`
	AllowedCountry      string  `yaml:"allowedCountry"`
	ForeignCountryScore float64 `yaml:"foreignCountryScore"`
	VelocityLimit       int     `yaml:"velocityLimit"`
	// VelocityWindow is parsed with time.ParseDuration, e.g. "1h".
	VelocityWindow string  `yaml:"velocityWindow"`
	VelocityScore  float64 `yaml:"velocityScore"`
	FlagThreshold  float64 `yaml:"flagThreshold"`
}

func defaults() *Config {
	return &Config{
		HTTP:   HTTPConfig{Port: 8080},
		Kafka:  KafkaConfig{Brokers: []string{"localhost:9092"}, GroupID: "fraud-engine"},
		MySQL:  MySQLConfig{DSN: "root:root@tcp(localhost:3306)/fraudengine?charset=utf8mb4&parseTime=True&loc=UTC"},
		Redis:  RedisConfig{Addr: "localhost:6379"},
		Jaeger: JaegerConfig{Endpoint: "http://localhost:14268/api/traces"},
		Outbox: OutboxConfig{Interval: "15s", BatchSize: 100},
		Rules: RulesConfig{
			AmountThreshold:     10000,
			HighAmountScore:     0.7,
			AllowedCountry:      "RSA",
			ForeignCountryScore: 0.6,
			VelocityLimit:       10,
			VelocityWindow:      "1h",
			VelocityScore:       0.8,
			FlagThreshold:       0.5,
		},
	}
}

// Load reads the config file at path (missing file means defaults) and applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrapf(err, "parse config %s", path)
			}
		}
	}

	cfg.applyEnv()

	if _, err := cfg.OutboxInterval(); err != nil {
		return nil, err
	}
	if _, err := cfg.VelocityWindow(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v, ok := os.LookupEnv("KAFKA_GROUP_ID"); ok {
		c.Kafka.GroupID = v
	}
	if v, ok := os.LookupEnv("MYSQL_DSN"); ok {
		c.MySQL.DSN = v
	}
	if v, ok := os.LookupEnv("REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := os.LookupEnv("JAEGER_ENDPOINT"); ok {
		c.Jaeger.Endpoint = v
	}
	if v, ok := os.LookupEnv("HTTP_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			c.HTTP.Port = port
		}
	}
}

func (c *Config) OutboxInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Outbox.Interval)
	if err != nil {
		return 0, errors.Wrap(err, "invalid outbox interval")
	}
	return d, nil
}

func (c *Config) VelocityWindow() (time.Duration, error) {
	d, err := time.ParseDuration(c.Rules.VelocityWindow)
	if err != nil {
		return 0, errors.Wrap(err, "invalid velocity window")
	}
	return d, nil
}
