package config

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Observ    ObservabilityConfig
	Dashboard DashboardConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Driver          string
	URL             string
	CredentialsFile string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type KafkaConfig struct {
	Enabled         bool
	Brokers         []string
	TopicDashboard  string
	TopicDataEvents string
	ConsumerGroup   string
}

type ObservabilityConfig struct {
	JaegerEndpoint string
}

type DashboardConfig struct {
	TopN int
}

// Credentials is the database login record kept outside the environment
type Credentials struct {
	User     string `json:"user"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Database string `json:"database"`
}

func Load() *Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	cacheTTL, _ := strconv.Atoi(getEnv("DASHBOARD_CACHE_TTL_SECONDS", "120"))
	topN, _ := strconv.Atoi(getEnv("DASHBOARD_TOP_N", "10"))

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "mysql"),
			URL:             getEnv("DATABASE_URL", ""),
			CredentialsFile: getEnv("DB_CONFIG_PATH", "config/db_config.json"),
		},
		Redis: RedisConfig{
			Enabled:  getBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			CacheTTL: time.Duration(cacheTTL) * time.Second,
		},
		Kafka: KafkaConfig{
			Enabled:         getBool("KAFKA_ENABLED", false),
			Brokers:         strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			TopicDashboard:  getEnv("KAFKA_TOPIC_DASHBOARD_EVENTS", "dashboard-events"),
			TopicDataEvents: getEnv("KAFKA_TOPIC_DATA_EVENTS", "retail-data-events"),
			ConsumerGroup:   getEnv("KAFKA_CONSUMER_GROUP", "retail-dashboard-group"),
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", ""),
		},
		Dashboard: DashboardConfig{
			TopN: topN,
		},
	}

	log.Printf("Config loaded: env=%s, port=%s, db_driver=%s", cfg.Server.Env, cfg.Server.Port, cfg.Database.Driver)
	return cfg
}

// LoadCredentials reads the JSON credentials record at path
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", path, err)
	}

	if creds.User == "" || creds.Host == "" || creds.Database == "" {
		return nil, fmt.Errorf("credentials file %s: user, host and database are required", path)
	}

	return &creds, nil
}

// DSN returns the connection string for the configured driver.
// DATABASE_URL wins over the credentials file.
func (d DatabaseConfig) DSN() (string, error) {
	if d.URL != "" {
		return d.URL, nil
	}

	creds, err := LoadCredentials(d.CredentialsFile)
	if err != nil {
		return "", err
	}

	return creds.DSN(d.Driver)
}

// DSN renders the credentials for the given driver
func (c *Credentials) DSN(driver string) (string, error) {
	switch driver {
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = c.Host
		mc.DBName = c.Database
		mc.ParseTime = true
		return mc.FormatDSN(), nil

	case "postgres":
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     c.Host,
			Path:     "/" + c.Database,
			RawQuery: "sslmode=disable",
		}
		return u.String(), nil

	default:
		return "", fmt.Errorf("unsupported database driver: %s", driver)
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getBool(key string, defaultVal bool) bool {
	val, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultVal)))
	if err != nil {
		return defaultVal
	}
	return val
}
