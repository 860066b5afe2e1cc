package config

import (
	"fmt"
	"strings"
)

// StorageBackend selects the key/value substrate for session persistence.
type StorageBackend string

const (
	// StorageMemory keeps the session in process memory (tests, dev).
	StorageMemory StorageBackend = "memory"
	// StorageFile persists the session to a JSON document on disk.
	StorageFile StorageBackend = "file"
	// StorageRedis persists the session to redis.
	StorageRedis StorageBackend = "redis"
	// StoragePostgres persists the session to a postgres table.
	StoragePostgres StorageBackend = "postgres"
)

// UnmarshalText implements encoding.TextUnmarshaler for StorageBackend.
func (s *StorageBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "memory", "file", "redis", "postgres":
		*s = StorageBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid StorageBackend: %q (valid options: memory, file, redis, postgres)", v)
	}
}

// FileStorageConfig contains file backend configuration.
type FileStorageConfig struct {
	// Path is the session document location. Empty resolves to
	// $HOME/.salina/session.json at bootstrap.
	Path string `env:"PATH"`
}

// RedisStorageConfig contains redis backend configuration.
type RedisStorageConfig struct {
	Addrs      []string `env:"ADDRS"       envDefault:"localhost:6379"`
	Password   string   `env:"PASSWORD"    envDefault:""`
	DB         int      `env:"DB"          envDefault:"0"`
	MasterName string   `env:"MASTER_NAME" envDefault:""` // non-empty enables sentinel
}

// PostgresStorageConfig contains postgres backend configuration.
type PostgresStorageConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"salina"`
	Password string `env:"PASSWORD" envDefault:"salina"`
	Name     string `env:"NAME"     envDefault:"salina"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // 'disable' for local dev, 'require' for production
	Table    string `env:"TABLE"    envDefault:""`
}

// DSN renders the postgres connection string.
func (c PostgresStorageConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// StorageConfig groups session storage configuration.
type StorageConfig struct {
	// Backend selects the persistence substrate.
	Backend StorageBackend `env:"STORAGE_BACKEND" envDefault:"file"`

	File     FileStorageConfig     `envPrefix:"STORAGE_FILE_"`
	Redis    RedisStorageConfig    `envPrefix:"STORAGE_REDIS_"`
	Postgres PostgresStorageConfig `envPrefix:"STORAGE_PG_"`
}

// Sanitize applies guardrails to storage configuration values.
func (c *StorageConfig) Sanitize() {
	if c.Backend == "" {
		c.Backend = StorageFile
	}
}
