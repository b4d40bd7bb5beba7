package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/alldopamine/catalog/internal/textutil"
)

type Config struct {
	Server   Server   `yaml:"server"`
	Matching Matching `yaml:"matching"`
	Lock     Lock     `yaml:"lock"`
	Cache    Cache    `yaml:"cache"`
	Log      Log      `yaml:"log"`
	Batch    Batch    `yaml:"batch"`
}

type Server struct {
	Listen        string `yaml:"listen"`
	AdminToken    string `yaml:"adminToken"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

type Matching struct {
	SimilarityThreshold float64 `yaml:"similarityThreshold"`
	MaxRetries          int     `yaml:"maxRetries"`
}

type Lock struct {
	Backend string        `yaml:"backend"` // memory, redis
	TTL     time.Duration `yaml:"ttl"`
}

type Cache struct {
	ConfigTTL time.Duration `yaml:"configTTL"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text, json
}

type Batch struct {
	LockFile string `yaml:"lockFile"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: Server{
			Listen: ":8000",
		},
		Matching: Matching{
			SimilarityThreshold: textutil.DefaultThreshold,
			MaxRetries:          3,
		},
		Lock: Lock{
			Backend: "memory",
			TTL:     10 * time.Second,
		},
		Cache: Cache{
			ConfigTTL: 5 * time.Minute,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Batch: Batch{
			LockFile: os.TempDir() + "/catalog-batch.lock",
		},
	}
}

// Load reads the YAML file at path (optional when empty), then applies
// .env and environment overrides.
func Load(path string) (Config, error) {
	config := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "open config")
		}
		defer file.Close()

		err = yaml.NewDecoder(file).Decode(&config)
		if err != nil {
			return Config{}, errors.Wrap(err, "decode config")
		}
	}

	// a missing .env is fine, the process environment still applies
	_ = godotenv.Load()
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c *Config) applyEnv() {
	c.Server.Listen = getEnv("CATALOG_LISTEN", c.Server.Listen)
	c.Server.AdminToken = getEnv("CATALOG_ADMIN_TOKEN", c.Server.AdminToken)
	c.Server.PostgresDsn = getEnv("CATALOG_POSTGRES_DSN", c.Server.PostgresDsn)
	c.Server.RedisAddr = getEnv("CATALOG_REDIS_ADDR", c.Server.RedisAddr)
	c.Server.RedisPassword = getEnv("CATALOG_REDIS_PASSWORD", c.Server.RedisPassword)
	c.Server.MemcachedAddr = getEnv("CATALOG_MEMCACHED_ADDR", c.Server.MemcachedAddr)
	c.Server.TraceEndpoint = getEnv("CATALOG_TRACE_ENDPOINT", c.Server.TraceEndpoint)
	c.Log.Level = getEnv("CATALOG_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("CATALOG_LOG_FORMAT", c.Log.Format)
	c.Lock.Backend = getEnv("CATALOG_LOCK_BACKEND", c.Lock.Backend)

	if v, ok := os.LookupEnv("CATALOG_SIMILARITY_THRESHOLD"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Matching.SimilarityThreshold = f
		}
	}
	if v, ok := os.LookupEnv("CATALOG_ENABLE_TRACE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Server.EnableTrace = b
		}
	}
}

func (c Config) Validate() error {
	if c.Matching.SimilarityThreshold <= 0 || c.Matching.SimilarityThreshold > 1 {
		return errors.Errorf("matching.similarityThreshold must be in (0, 1], got %v", c.Matching.SimilarityThreshold)
	}
	if c.Matching.MaxRetries < 0 {
		return errors.Errorf("matching.maxRetries must not be negative")
	}
	switch c.Lock.Backend {
	case "memory":
	case "redis":
		if c.Server.RedisAddr == "" {
			return errors.New("lock.backend redis requires server.redisAddr")
		}
	default:
		return errors.Errorf("lock.backend: unsupported value %q", c.Lock.Backend)
	}
	return nil
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
