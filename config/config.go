package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Cargo    CargoConfig    `yaml:"cargo"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                    string `yaml:"host"`
	Port                    int    `yaml:"port"`
	ClientActivityTopicName string `yaml:"client_activity_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type CargoConfig struct {
	HTTPAddr           string `yaml:"http_addr"`
	WorkerHTTPAddr     string `yaml:"worker_http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`

	// Таблицы-источники. Settings и arrived reys живут в одной таблице
	// (две зоны чтения), поэтому URL может совпадать.
	ClientsSheetURL     string `yaml:"clients_sheet_url"`
	ReysDirectoryURL    string `yaml:"reys_directory_url"`
	SettingsSheetURL    string `yaml:"settings_sheet_url"`
	ArrivedReysSheetURL string `yaml:"arrived_reys_sheet_url"`

	SheetCacheTTLSeconds   int `yaml:"sheet_cache_ttl_seconds"`
	SourceTimeoutSeconds   int `yaml:"source_timeout_seconds"`
	FetchTimeoutSeconds    int `yaml:"fetch_timeout_seconds"`
	SyncIntervalSeconds    int `yaml:"sync_interval_seconds"`
	ChatRateLimitPerMinute int `yaml:"chat_rate_limit_per_minute"`

	AssistantBaseURL string `yaml:"assistant_base_url"`
	AssistantModel   string `yaml:"assistant_model"`
	AssistantAPIKey  string `yaml:"assistant_api_key"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}
