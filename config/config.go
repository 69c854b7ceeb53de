package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr             string
	RoutePrefix          string
	JWTSecret            string
	JWTTTL               time.Duration
	ReadOnly             bool
	DBDriver             string
	DBHost               string
	DBPort               string
	DBUser               string
	DBPass               string
	DBName               string
	SQLitePath           string
	RedisEnabled         bool
	RedisHost            string
	RedisPort            string
	RedisPassword        string
	RedisDB              int
	RabbitMQURL          string
	RabbitMQHost         string
	RabbitMQPort         string
	RabbitMQUser         string
	RabbitMQPass         string
	RabbitMQVhost        string
	EventsAMQPEnabled    bool
	EventsExchange       string
	AttachmentConfigFile string
	AttachmentField      string
	HeartbeatCacheTTL    time.Duration
	UploadRate           float64
	UploadBurst          int
	LogLevel             string
}

var AppConfig Config

// getEnv returns the environment value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if value == "" {
		return defaultValue
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// InitConfig loads configuration from the environment.
func InitConfig() {
	rabbitHost := getEnv("RABBITMQ_HOST", "localhost")
	rabbitPort := getEnv("RABBITMQ_PORT", "5672")
	rabbitUser := getEnv("RABBITMQ_USER", "guest")
	rabbitPass := getEnv("RABBITMQ_PASSWORD", "guest")
	rabbitVhost := getEnv("RABBITMQ_VHOST", "/")
	rabbitURL := getEnv("RABBITMQ_URL", "")
	if rabbitURL == "" {
		rabbitURL = fmt.Sprintf(
			"amqp://%s:%s@%s:%s/%s",
			url.PathEscape(rabbitUser),
			url.PathEscape(rabbitPass),
			rabbitHost,
			rabbitPort,
			url.PathEscape(rabbitVhost),
		)
	}
	AppConfig = Config{
		HTTPAddr:             getEnv("HTTP_ADDR", ":8888"),
		RoutePrefix:          strings.Trim(getEnv("ROUTE_PREFIX", "v1"), "/"),
		JWTSecret:            getEnv("JWT_SECRET", "l=ax+b"),
		JWTTTL:               getEnvDuration("JWT_TTL", 24*time.Hour),
		ReadOnly:             getEnvBool("READONLY", false),
		DBDriver:             strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "3306"),
		DBUser:               getEnv("DB_USER", "root"),
		DBPass:               getEnv("DB_PASS", "root"),
		DBName:               getEnv("DB_NAME", "Go_Attach"),
		SQLitePath:           getEnv("SQLITE_PATH", "go_attach.db"),
		RedisEnabled:         getEnvBool("REDIS_ENABLED", true),
		RedisHost:            getEnv("REDIS_HOST", "localhost"),
		RedisPort:            getEnv("REDIS_PORT", "6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RabbitMQURL:          rabbitURL,
		RabbitMQHost:         rabbitHost,
		RabbitMQPort:         rabbitPort,
		RabbitMQUser:         rabbitUser,
		RabbitMQPass:         rabbitPass,
		RabbitMQVhost:        rabbitVhost,
		EventsAMQPEnabled:    getEnvBool("EVENTS_AMQP_ENABLED", false),
		EventsExchange:       getEnv("EVENTS_EXCHANGE", "record.events"),
		AttachmentConfigFile: getEnv("ATTACHMENT_CONFIG", ""),
		AttachmentField:      getEnv("ATTACHMENT_FIELD", "attachment"),
		HeartbeatCacheTTL:    getEnvDuration("HEARTBEAT_CACHE_TTL", 5*time.Second),
		UploadRate:           getEnvFloat("UPLOAD_RATE", 0),
		UploadBurst:          getEnvInt("UPLOAD_BURST", 8),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
	}
}
