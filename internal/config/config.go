package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type GatewayConfig struct {
	Env        string `yaml:"env" env:"ENV" env-default:"development"`
	HTTPServer `yaml:"http_server"`
	GRPCServer `yaml:"grpc_server"`
	Database   `yaml:"database"`
	Redis      `yaml:"redis"`
	LogConfig  `yaml:"log_config"`
	TheSieuToc `yaml:"thesieutoc"`
	PayOS      `yaml:"payos"`
	BankDir    `yaml:"bank_directory"`
	Scheduler  `yaml:"scheduler"`
	Cleanup    `yaml:"cleanup"`
	Guard      `yaml:"guard"`
	Security   `yaml:"security"`
	Kafka      `yaml:"kafka"`
}

type HTTPServer struct {
	Host string `yaml:"host" env:"HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"PORT" env-default:"3000"`
}

type GRPCServer struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50051"`
}

type Database struct {
	Driver string `yaml:"driver" env:"DATABASE_DRIVER" env-default:"sqlite"`
	Path   string `yaml:"path" env:"DATABASE_PATH" env-default:"./data/database.sqlite"`
	Dsn    string `yaml:"dsn" env:"DATABASE_DSN"`
}

type Redis struct {
	Host     string `yaml:"host" env:"REDIS_HOST"`
	Port     string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

func (r Redis) Enabled() bool { return r.Host != "" }

func (r Redis) Addr() string { return fmt.Sprintf("%s:%s", r.Host, r.Port) }

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
	LogOutput string `yaml:"log_output" env:"LOG_OUTPUT" env-default:"stdout"`
	LogDir    string `yaml:"log_dir" env:"LOG_DIR" env-default:"./logs"`
}

type TheSieuToc struct {
	APIKey  string        `yaml:"api_key" env:"THESIEUTOC_API_KEY"`
	BaseURL string        `yaml:"base_url" env:"THESIEUTOC_BASE_URL" env-default:"https://thesieutoc.net"`
	Timeout time.Duration `yaml:"timeout" env:"THESIEUTOC_TIMEOUT" env-default:"30s"`
}

type PayOS struct {
	ClientID    string        `yaml:"client_id" env:"PAYOS_CLIENT_ID"`
	APIKey      string        `yaml:"api_key" env:"PAYOS_API_KEY"`
	ChecksumKey string        `yaml:"checksum_key" env:"PAYOS_CHECKSUM_KEY"`
	BaseURL     string        `yaml:"base_url" env:"PAYOS_BASE_URL" env-default:"https://api-merchant.payos.vn"`
	Timeout     time.Duration `yaml:"timeout" env:"PAYOS_TIMEOUT" env-default:"15s"`
	ExpiryMins  int           `yaml:"order_expiry_minutes" env:"BANK_ORDER_EXPIRY_MINUTES" env-default:"60"`
}

type BankDir struct {
	URL      string        `yaml:"url" env:"VIETQR_BANKS_URL" env-default:"https://api.vietqr.io/v2/banks"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"VIETQR_CACHE_TTL" env-default:"24h"`
}

type Scheduler struct {
	Enabled  bool   `yaml:"enabled" env:"SCHEDULER_ENABLED" env-default:"true"`
	Timezone string `yaml:"timezone" env:"SCHEDULER_TIMEZONE" env-default:"Asia/Ho_Chi_Minh"`
}

type Cleanup struct {
	TransactionDays int `yaml:"transaction_days" env:"CLEANUP_TRANSACTION_DAYS" env-default:"90"`
	LogDays         int `yaml:"log_days" env:"CLEANUP_LOG_DAYS" env-default:"30"`
	BlacklistDays   int `yaml:"blacklist_days" env:"CLEANUP_BLACKLIST_DAYS" env-default:"180"`
}

type Guard struct {
	DuplicateCheckHours int `yaml:"duplicate_check_hours" env:"DUPLICATE_CHECK_HOURS" env-default:"24"`
}

type Security struct {
	APIKey          string `yaml:"api_key" env:"API_SECRET_KEY"`
	GlobalRateLimit int    `yaml:"global_rate_limit" env:"RATE_LIMIT_GLOBAL" env-default:"100"`
	StrictRateLimit int    `yaml:"strict_rate_limit" env:"RATE_LIMIT_STRICT" env-default:"5"`
}

type Kafka struct {
	Brokers string `yaml:"brokers" env:"KAFKA_BROKERS"`
	Topic   string `yaml:"topic" env:"KAFKA_TOPIC" env-default:"instrument-events"`
}

func (k Kafka) BrokerList() []string {
	var out []string
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func (c *GatewayConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads the YAML file named by GATEWAY_CONFIG_PATH, or the environment alone when it is unset.
func Load() (*GatewayConfig, error) {
	var cfg GatewayConfig

	configPath := os.Getenv("GATEWAY_CONFIG_PATH")
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read env config: %w", err)
		}
		return &cfg, nil
	}

	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return &cfg, nil
}

func MustLoad() *GatewayConfig {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("%v\n", err)
	}
	return cfg
}
