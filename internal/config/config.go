package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Backends soportados para STORE_BACKEND.
const (
	BackendDynamo   = "dynamo"
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

var (
	ErrBackendUnknown = errors.New("unknown store backend")
	ErrDSNRequired    = errors.New("DB_DSN required for postgres backend")
)

// Config reúne toda la configuración del proceso. Se construye una sola vez
// en main y se pasa explícitamente a los constructores que la necesitan; no
// hay estado global mutable.
type Config struct {
	Port string

	StoreBackend string
	FilePath     string

	DynamoTable        string
	AWSRegion          string
	AWSEndpoint        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	DBDSN string

	CORSOrigins []string

	LogLevel  string
	LogFormat string
	AppName   string
}

// Load lee la configuración desde el entorno con defaults de dev
// (file store local, sin credenciales).
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("STORE_BACKEND", BackendFile)
	v.SetDefault("FILE_STORE_PATH", "monkeys.json")
	v.SetDefault("DYNAMODB_TABLE_NAME", "monkeys")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("APP_NAME", "monkey-registry")

	cfg := Config{
		Port:               v.GetString("PORT"),
		StoreBackend:       strings.ToLower(strings.TrimSpace(v.GetString("STORE_BACKEND"))),
		FilePath:           v.GetString("FILE_STORE_PATH"),
		DynamoTable:        v.GetString("DYNAMODB_TABLE_NAME"),
		AWSRegion:          v.GetString("AWS_REGION"),
		AWSEndpoint:        v.GetString("AWS_ENDPOINT_URL"),
		AWSAccessKeyID:     v.GetString("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
		DBDSN:              v.GetString("DB_DSN"),
		CORSOrigins:        splitOrigins(v.GetString("CORS_ORIGINS")),
		LogLevel:           v.GetString("LOG_LEVEL"),
		LogFormat:          v.GetString("LOG_FORMAT"),
		AppName:            v.GetString("APP_NAME"),
	}
	return cfg, cfg.Validate()
}

// Validate chequea que el backend elegido esté completo.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendDynamo, BackendFile:
		return nil
	case BackendPostgres:
		if strings.TrimSpace(c.DBDSN) == "" {
			return ErrDSNRequired
		}
		return nil
	}
	return ErrBackendUnknown
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
