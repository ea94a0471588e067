package dispatchreminders

import (
	"fmt"
	"time"
)

// JobName is the identifier used for the lease key, cron registration and
// metrics labels.
const JobName = "dispatch-reminders"

type Config struct {
	BatchSize    int           `mapstructure:"batch_size"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	LeaseTTL     time.Duration `mapstructure:"lease_ttl"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		BatchSize:    100,
		MaxRetries:   3,
		RetryBackoff: time.Hour,
		LeaseTTL:     5 * time.Minute,
		Timeout:      60 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive")
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max_retries must be positive")
	}
	if c.RetryBackoff <= 0 {
		return fmt.Errorf("retry_backoff must be positive")
	}
	if c.LeaseTTL <= 0 {
		return fmt.Errorf("lease_ttl must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
