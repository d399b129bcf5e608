package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Storage and broker backend selectors. Empty disables the subsystem.
const (
	StorageBackendMinio = "minio"
	StorageBackendGCS   = "gcs"

	MQBackendRabbitMQ = "rabbitmq"
	MQBackendPubSub   = "pubsub"
)

type Config struct {
	ServerPort     int
	JWTSecret      string
	AllowedOrigins []string
	Database       DatabaseConfig
	Storage        StorageConfig
	MQ             MQConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

type StorageConfig struct {
	// Backend selects the object storage provider ("minio" or "gcs");
	// empty disables image uploads.
	Backend string
	// PublicBaseURL is the externally reachable root under which stored
	// objects are served.
	PublicBaseURL string
	Minio         MinioConfig
	GCS           GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

type MQConfig struct {
	// Backend selects the event broker ("rabbitmq" or "pubsub");
	// empty disables order event publishing.
	Backend  string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	PrefetchCount   int
	QueueDurable    bool
	QueueAutoDelete bool
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "driveline"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "driveline_db"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	storageConfig := StorageConfig{
		Backend:       getEnv("STORAGE_BACKEND", ""),
		PublicBaseURL: getEnv("STORAGE_PUBLIC_URL", ""),
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "driveline-images"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			Bucket:          getEnv("GCS_BUCKET", ""),
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
	}

	mqConfig := MQConfig{
		Backend: getEnv("MQ_BACKEND", ""),
		RabbitMQ: RabbitMQConfig{
			URL:             getEnv("RABBITMQ_URL", ""),
			PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH", 0),
			QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTODELETE", false),
		},
		PubSub: PubSubConfig{
			ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", ""),
		},
	}

	return Config{
		ServerPort:     getEnvInt("PORT", 8080),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		Database:       dbConfig,
		Storage:        storageConfig,
		MQ:             mqConfig,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		switch strings.ToLower(strings.TrimSpace(valueStr)) {
		case "1", "true", "yes":
			return true
		case "0", "false", "no":
			return false
		}
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
