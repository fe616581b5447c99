// Package urgency turns deadlines into categorical buckets for
// sorting and alerting. Scoring is pure: the caller supplies now.
package urgency

import (
	"math"
	"time"

	"github.com/comparepco/rentalcore/internal/config"
)

type Level string

const (
	LevelNone     Level = "none"
	LevelNormal   Level = "normal"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
	LevelExpired  Level = "expired"
)

var rank = map[Level]int{
	LevelNone:     0,
	LevelNormal:   1,
	LevelWarning:  2,
	LevelCritical: 3,
	LevelExpired:  4,
}

// Rank orders levels by severity, none lowest. Unknown levels rank
// below none.
func Rank(l Level) int {
	r, ok := rank[l]
	if !ok {
		return -1
	}
	return r
}

// ScoreDeadline buckets an approval-style deadline on an hours scale:
// expired at or past the deadline, critical within 6 hours, warning
// within 24, normal beyond that. A nil deadline means no SLA.
func ScoreDeadline(deadline *time.Time, now time.Time, cfg config.UrgencyConfig) Level {
	if deadline == nil {
		return LevelNone
	}

	critical := float64(cfg.CriticalHours)
	if critical <= 0 {
		critical = float64(config.DefaultUrgencyConfig().CriticalHours)
	}
	warning := float64(cfg.WarningHours)
	if warning <= critical {
		warning = float64(config.DefaultUrgencyConfig().WarningHours)
	}

	hours := deadline.Sub(now).Hours()
	switch {
	case hours <= 0:
		return LevelExpired
	case hours <= critical:
		return LevelCritical
	case hours <= warning:
		return LevelWarning
	default:
		return LevelNormal
	}
}

// ScoreExpiry buckets a document or insurance expiry on a days scale:
// expired once the date passes, warning while it is within the
// expiring-soon window, normal otherwise.
func ScoreExpiry(expiry *time.Time, now time.Time, cfg config.UrgencyConfig) Level {
	if expiry == nil {
		return LevelNone
	}

	window := cfg.ExpiryWarningDays
	if window <= 0 {
		window = config.DefaultUrgencyConfig().ExpiryWarningDays
	}

	days := int(math.Floor(expiry.Sub(now).Hours() / 24))
	switch {
	case days < 0:
		return LevelExpired
	case days <= window:
		return LevelWarning
	default:
		return LevelNormal
	}
}
