package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	OTLP     OTLPConfig
	Postgres PostgresConfig
	RabbitMQ RabbitMQConfig

	// RepositoryDriver selects the product store backing:
	// "memory" or "postgres".
	RepositoryDriver string
}

type ServerConfig struct {
	Port string
	Host string
}

type OTLPConfig struct {
	Endpoint    string
	ServiceName string
	Environment string
	Enabled     bool
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

// ConnString assembles the pgx connection string.
func (c PostgresConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

type RabbitMQConfig struct {
	HostName         string
	UserName         string
	Password         string
	Port             string
	ProductsExchange string
}

// URL assembles the AMQP connection URL.
func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.UserName, c.Password, c.HostName, c.Port)
}

// LoadConfig loads configuration from environment variables. A .env
// file in the working directory is applied first when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		OTLP: OTLPConfig{
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "products-service"),
			Environment: getEnv("OTEL_ENVIRONMENT", "development"),
			Enabled:     getEnv("OTEL_EXPORT_ENABLED", "true") == "true",
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DATABASE", "products"),
		},
		RabbitMQ: RabbitMQConfig{
			HostName:         getEnv("RABBITMQ_HOSTNAME", "localhost"),
			UserName:         getEnv("RABBITMQ_USERNAME", "guest"),
			Password:         getEnv("RABBITMQ_PASSWORD", "guest"),
			Port:             getEnv("RABBITMQ_PORT", "5672"),
			ProductsExchange: getEnv("RABBITMQ_PRODUCTS_EXCHANGE", "products.exchange"),
		},
		RepositoryDriver: getEnv("REPOSITORY_DRIVER", "memory"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
