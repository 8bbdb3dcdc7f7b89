package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"

	CatalogMongo    = "mongo"
	CatalogPostgres = "postgres"
	CatalogElastic  = "elastic"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	CartStore   string
	DatabaseURL string

	MongoURI      string
	MongoDatabase string

	CatalogSource   string
	CatalogTimeout  time.Duration
	CatalogCacheTTL time.Duration

	ESURL          string
	ESUser         string
	ESPassword     string
	ESProductIndex string
	ESFoodIndex    string

	RedisAddress  string
	RedisPassword string

	KafkaBrokers []string

	JWTSecret []byte
	AuthURL   string
	// CSRFEnabled turns on double-submit checks for cookie-authenticated writes.
	CSRFEnabled bool
}

// LoadDotEnv reads .env files when present; a missing file is not an error.
func LoadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Printf("notice: .env not loaded: %v, using system environment", err)
	}
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "cart"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		CartStore:   strings.ToLower(EnvDefault("CART_STORE", StoreMongo)),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		MongoURI:      os.Getenv("MONGODB_URI"),
		MongoDatabase: EnvDefault("MONGODB_DATABASE", "shop"),

		CatalogSource:   strings.ToLower(EnvDefault("CATALOG_SOURCE", CatalogMongo)),
		CatalogTimeout:  EnvDurationDefault("CATALOG_TIMEOUT", 3*time.Second),
		CatalogCacheTTL: EnvDurationDefault("CATALOG_CACHE_TTL", time.Minute),

		ESURL:          os.Getenv("ES_URL"),
		ESUser:         os.Getenv("ES_USER"),
		ESPassword:     os.Getenv("ES_PASSWORD"),
		ESProductIndex: EnvDefault("ES_PRODUCT_INDEX", "products"),
		ESFoodIndex:    EnvDefault("ES_FOOD_INDEX", "foods"),

		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		JWTSecret: []byte(os.Getenv("JWT_SECRET")),
		AuthURL:   os.Getenv("AUTH_URL"),

		CSRFEnabled: EnvBoolDefault("CSRF_ENABLED", false),
	}
}

func (c Config) NeedsMongo() bool {
	return c.CartStore == StoreMongo || c.CatalogSource == CatalogMongo
}

func (c Config) NeedsSQL() bool {
	return c.CartStore == StorePostgres || c.CatalogSource == CatalogPostgres
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
