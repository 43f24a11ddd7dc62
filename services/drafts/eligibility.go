// Package drafts decides whether an AI draft may be produced and produces it.
package drafts

import (
	"context"
	"time"

	quotaRepo "bookdesk/database/repository/quota"
	"bookdesk/services/confidence"
)

// Reason explains an eligibility outcome. Blocks are expected outcomes, not errors.
type Reason string

const (
	ReasonOK               Reason = "ok"
	ReasonAIDisabled       Reason = "ai_disabled"
	ReasonGateDeclined     Reason = "gate_declined"
	ReasonNotConfigured    Reason = "not_configured"
	ReasonQuotaExceeded    Reason = "quota_exceeded"
	ReasonQuotaUnavailable Reason = "quota_unavailable"
)

// Eligibility is the resolver's verdict for one channel and gate action.
type Eligibility struct {
	Eligible bool   `json:"eligible"`
	Reason   Reason `json:"reason"`
	Used     int    `json:"used,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

func blocked(r Reason) Eligibility { return Eligibility{Reason: r} }

// KillSwitch is the environment-level emergency disable for AI output.
type KillSwitch interface {
	Engaged() bool
}

// KillSwitchFunc adapts a function to KillSwitch.
type KillSwitchFunc func() bool

func (f KillSwitchFunc) Engaged() bool { return f() }

// QuotaLimits holds the daily draft limit for each channel. A channel without
// an entry falls back to Default; a limit of zero or less means unconfigured.
type QuotaLimits struct {
	Default    int
	PerChannel map[string]int
}

// For returns the limit for a channel.
func (l QuotaLimits) For(channelID string) int {
	if n, ok := l.PerChannel[channelID]; ok {
		return n
	}
	return l.Default
}

// Resolver checks the kill switch, then the gate action, then the quota.
type Resolver struct {
	killSwitch KillSwitch
	quota      quotaRepo.QuotaRepository
	limits     QuotaLimits
	now        func() time.Time
}

// NewResolver builds a Resolver.
func NewResolver(ks KillSwitch, quota quotaRepo.QuotaRepository, limits QuotaLimits) *Resolver {
	return &Resolver{killSwitch: ks, quota: quota, limits: limits, now: time.Now}
}

// Resolve returns the first block it hits, or ok. The error is non-nil only
// when the quota counter could not be read; the verdict is then blocked.
func (r *Resolver) Resolve(ctx context.Context, channelID string, action confidence.Action) (Eligibility, error) {
	if r.killSwitch.Engaged() {
		return blocked(ReasonAIDisabled), nil
	}
	if action != confidence.ActionAIReply {
		return blocked(ReasonGateDeclined), nil
	}

	limit := r.limits.For(channelID)
	if limit <= 0 {
		return blocked(ReasonNotConfigured), nil
	}
	used, err := r.quota.Used(ctx, channelID, r.now())
	if err != nil {
		return blocked(ReasonQuotaUnavailable), err
	}
	if used >= limit {
		return Eligibility{Reason: ReasonQuotaExceeded, Used: used, Limit: limit}, nil
	}
	return Eligibility{Eligible: true, Reason: ReasonOK, Used: used, Limit: limit}, nil
}
