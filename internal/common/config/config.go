// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig            `mapstructure:"app"`
	Server        ServerConfig         `mapstructure:"server"`
	Database      DatabaseConfig       `mapstructure:"database"`
	Jobs          map[string]JobConfig `mapstructure:"jobs"`
	Notifications NotificationConfig   `mapstructure:"notifications"`
	Auth          AuthConfig           `mapstructure:"auth"`
	Logging       LoggingConfig        `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	// SystemActor is the audit-actor id recorded on writes performed by
	// periodic jobs, where no real admin is driving the update.
	SystemActor string `mapstructure:"system_actor"`
}

type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ReadTimeout     int `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ElasticsearchConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	AuditIndex string   `mapstructure:"audit_index"`
}

// JobConfig holds the core settings applicable to every periodic job.
type JobConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Schedule  string `mapstructure:"schedule"` // cron expression
	BatchSize int    `mapstructure:"batch_size"`
	LeaseTTL  int    `mapstructure:"lease_ttl"` // milliseconds
	Timeout   int    `mapstructure:"timeout"`   // milliseconds
}

// --- Notification Channels ---

// NotificationConfig holds settings for the reminder dispatch channels.
type NotificationConfig struct {
	RegistryPath string `mapstructure:"registry_path"`

	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`

	InApp struct {
		Enabled     bool   `mapstructure:"enabled"`
		SNSTopicARN string `mapstructure:"sns_topic_arn"`
	} `mapstructure:"in_app"`

	WhatsApp struct {
		Enabled bool   `mapstructure:"enabled"`
		BaseURL string `mapstructure:"base_url"`
		Token   string `mapstructure:"token"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"whatsapp"`

	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// AuthConfig holds settings for caller identity extraction. Token issuance
// and verification live in the upstream gateway; when SigningKey is empty
// the claims are trusted as-is.
type AuthConfig struct {
	SigningKey string `mapstructure:"signing_key"`
	RoleClaim  string `mapstructure:"role_claim"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
