package materializerecurrence

import (
	"fmt"
	"time"
)

// JobName is the identifier used for the lease key, cron registration and
// metrics labels.
const JobName = "materialize-recurrence"

type Config struct {
	LeaseTTL time.Duration `mapstructure:"lease_ttl"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		LeaseTTL: 5 * time.Minute,
		Timeout:  60 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.LeaseTTL <= 0 {
		return fmt.Errorf("lease_ttl must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
