package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// UrgencyConfig holds the operational thresholds for deadline scoring and
// payment due messaging. Values are tuned per deployment; the defaults match
// the product rules.
type UrgencyConfig struct {
	// Approval SLA thresholds, in hours until the deadline.
	CriticalHours int `mapstructure:"criticalHours"`
	WarningHours  int `mapstructure:"warningHours"`

	// Document/insurance expiry horizon, in days.
	ExpiryWarningDays int `mapstructure:"expiryWarningDays"`

	// Due-message buckets, in days until the next payment.
	DueSoonDays     int `mapstructure:"dueSoonDays"`
	DueNextWeekDays int `mapstructure:"dueNextWeekDays"`
}

func DefaultUrgencyConfig() UrgencyConfig {
	return UrgencyConfig{
		CriticalHours:     6,
		WarningHours:      24,
		ExpiryWarningDays: 30,
		DueSoonDays:       7,
		DueNextWeekDays:   14,
	}
}

// UrgencyConfigHolder serves the current UrgencyConfig and hot-reloads it
// when the backing file changes.
type UrgencyConfigHolder struct {
	current atomic.Value // holds UrgencyConfig
}

func NewUrgencyConfigHolder() (*UrgencyConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("urgency")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/rentalcore/config") // Volume-mounted config
	v.AddConfigPath("/etc/rentalcore")            // System config
	v.AddConfigPath(".")                          // Current directory (dev mode)

	v.SetEnvPrefix("RENTALCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultUrgencyConfig()
	v.SetDefault("urgency.criticalHours", defaults.CriticalHours)
	v.SetDefault("urgency.warningHours", defaults.WarningHours)
	v.SetDefault("urgency.expiryWarningDays", defaults.ExpiryWarningDays)
	v.SetDefault("urgency.dueSoonDays", defaults.DueSoonDays)
	v.SetDefault("urgency.dueNextWeekDays", defaults.DueNextWeekDays)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg UrgencyConfig
	if err := v.UnmarshalKey("urgency", &cfg); err != nil {
		return nil, err
	}
	if err := validateUrgencyConfig(cfg); err != nil {
		return nil, err
	}

	holder := &UrgencyConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated UrgencyConfig
		if err := v.UnmarshalKey("urgency", &updated); err != nil {
			log.Printf("[urgency-config] reload failed: %v", err)
			return
		}
		if err := validateUrgencyConfig(updated); err != nil {
			log.Printf("[urgency-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[urgency-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticUrgencyConfigHolder wraps a fixed config with no file watch.
func NewStaticUrgencyConfigHolder(cfg UrgencyConfig) *UrgencyConfigHolder {
	holder := &UrgencyConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *UrgencyConfigHolder) Get() UrgencyConfig {
	return h.current.Load().(UrgencyConfig)
}

func validateUrgencyConfig(cfg UrgencyConfig) error {
	if cfg.CriticalHours <= 0 || cfg.WarningHours <= cfg.CriticalHours {
		return errors.New("urgency.warningHours must exceed urgency.criticalHours, both positive")
	}
	if cfg.ExpiryWarningDays < 0 {
		return errors.New("urgency.expiryWarningDays cannot be negative")
	}
	if cfg.DueSoonDays <= 1 || cfg.DueNextWeekDays <= cfg.DueSoonDays {
		return errors.New("urgency.dueNextWeekDays must exceed urgency.dueSoonDays, both above one day")
	}
	return nil
}
