package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string

	// Persistence
	StorageDriver string // "postgres" or "memory"
	DatabaseURL   string
	RunMigrations bool

	// Authentication: JWKSURL wins when both are set
	JWTSecret string
	JWKSURL   string

	// Object store
	ObjectStore string // "s3", "minio" or "memory"
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3UseSSL    bool

	// PolicyFile overrides the embedded access policy when set
	PolicyFile string

	// Logging
	LogDir      string
	LogMaxFiles int
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:          getEnv("PORT", "8080"),
		Environment:   env,
		CORSOrigins:   getEnv("CORS_ORIGINS", "http://localhost:3000"),
		StorageDriver: getEnv("STORAGE_DRIVER", getDefaultStorageDriver(env)),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RunMigrations: getBool("RUN_MIGRATIONS", true),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWKSURL:       getEnv("JWKS_URL", ""),
		ObjectStore:   getEnv("OBJECT_STORE", "memory"),
		S3Bucket:      getEnv("S3_BUCKET", "assets"),
		S3Region:      getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:    getEnv("S3_ENDPOINT", ""),
		S3AccessKey:   getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:   getEnv("S3_SECRET_KEY", ""),
		S3UseSSL:      getBool("S3_USE_SSL", false),
		PolicyFile:    getEnv("POLICY_FILE", ""),
		LogDir:        getEnv("LOG_DIR", ""),
		LogMaxFiles:   getInt("LOG_MAX_FILES", 10),
	}
}

// getDefaultStorageDriver keeps local development usable without a database
func getDefaultStorageDriver(env string) string {
	if env == "prod" {
		return "postgres"
	}
	if os.Getenv("DATABASE_URL") != "" {
		return "postgres"
	}
	return "memory"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}
