package orchestrator

import (
	"time"

	"github.com/codeready-toolchain/eolscout/pkg/models"
)

// Assessment is the operational risk reading derived from an EOL date.
type Assessment struct {
	DaysUntilEOL int    `json:"days_until_eol"`
	Status       string `json:"status"`
	RiskLevel    string `json:"risk_level"`
}

// Risk statuses. The windows are calendar-day based and inclusive on
// both ends.
const (
	StatusEndOfLife  = "End of Life"
	StatusCritical   = "Critical"
	StatusHighRisk   = "High Risk"
	StatusMediumRisk = "Medium Risk"
	StatusActive     = "Active Support"
)

// assess derives the risk window from the envelope's EOL date. Envelopes
// without one (support-end only) get no assessment.
func (o *Orchestrator) assess(envelope *models.Envelope) *Assessment {
	eol, ok := envelope.EOLTime()
	if !ok {
		return nil
	}
	return Assess(eol, o.clock())
}

// Assess computes the risk window for an EOL date relative to now.
func Assess(eol, now time.Time) *Assessment {
	days := daysBetween(now, eol)
	assessment := &Assessment{DaysUntilEOL: days}
	switch {
	case days < 0:
		assessment.Status = StatusEndOfLife
		assessment.RiskLevel = "critical"
	case days <= 90:
		assessment.Status = StatusCritical
		assessment.RiskLevel = "critical"
	case days <= 365:
		assessment.Status = StatusHighRisk
		assessment.RiskLevel = "high"
	case days <= 730:
		assessment.Status = StatusMediumRisk
		assessment.RiskLevel = "medium"
	default:
		assessment.Status = StatusActive
		assessment.RiskLevel = "low"
	}
	return assessment
}

// daysBetween counts whole calendar days from a to b, negative when b is
// in the past. Both sides are truncated to their UTC date so time-of-day
// does not shift the risk window.
func daysBetween(a, b time.Time) int {
	a = startOfDay(a)
	b = startOfDay(b)
	return int(b.Sub(a).Hours() / 24)
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
