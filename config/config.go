package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP  HTTPConfig  `yaml:"http"`
	Store StoreConfig `yaml:"store"`
	Redis RedisConfig `yaml:"redis"`
	Kafka KafkaConfig `yaml:"kafka"`
	Fares FaresConfig `yaml:"fares"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type StoreConfig struct {
	// Backend selects the fare store implementation: "elasticsearch" or "postgres".
	Backend       string              `yaml:"backend"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Postgres      PostgresConfig      `yaml:"postgres"`
}

type ElasticsearchConfig struct {
	Addresses []string `yaml:"addresses"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	Index     string   `yaml:"index"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", p.Host, p.Port, p.User, p.Password, p.Name, p.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"`
	AlertsTopic string   `yaml:"alerts_topic"`
	GroupID     string   `yaml:"group_id"`
}

type FaresConfig struct {
	ResultsCacheTTL int `yaml:"results_cache_ttl_seconds"`
	// DropAlertThreshold is the day-over-day price drop, in currency units,
	// at which a fare-drop alert is published. Zero disables alerts.
	DropAlertThreshold float64 `yaml:"drop_alert_threshold"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(&cfg)

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "elasticsearch"
	}
	if cfg.Store.Elasticsearch.Index == "" {
		cfg.Store.Elasticsearch.Index = "condor_data"
	}

	return &cfg, nil
}

// Index credentials are injected through the environment in deployments,
// so they win over the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ELASTICSEARCH_HOST"); v != "" {
		cfg.Store.Elasticsearch.Addresses = []string{v}
	}
	if v := os.Getenv("ELASTICSEARCH_USER"); v != "" {
		cfg.Store.Elasticsearch.Username = v
	}
	if v := os.Getenv("ELASTICSEARCH_PASSWORD"); v != "" {
		cfg.Store.Elasticsearch.Password = v
	}
	if v := os.Getenv("ELASTICSEARCH_INDEX"); v != "" {
		cfg.Store.Elasticsearch.Index = v
	}
}
