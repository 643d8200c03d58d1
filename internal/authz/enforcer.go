// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package authz

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/tomtom215/qrpulse/internal/logging"
	"github.com/tomtom215/qrpulse/internal/metrics"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// ActionUse is the only action plan policies grant.
const ActionUse = "use"

// Enforcer decides which plan tiers may use which features.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer builds an enforcer from the embedded model and policy.
func NewEnforcer() (*Enforcer, error) {
	return NewEnforcerFromText(embeddedModel, embeddedPolicy)
}

// NewEnforcerFromText builds an enforcer from model and CSV policy text.
func NewEnforcerFromText(modelText, policy string) (*Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if err := loadPolicy(e, policy); err != nil {
		return nil, err
	}
	return &Enforcer{enforcer: e}, nil
}

var defaultEnforcer = sync.OnceValues(NewEnforcer)

// Default returns the process-wide enforcer built from the embedded policy.
func Default() (*Enforcer, error) {
	return defaultEnforcer()
}

// loadPolicy adds "p" and "g" lines from CSV text. Blank lines and comments
// are skipped.
func loadPolicy(e *casbin.SyncedEnforcer, policy string) error {
	for i, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for j := range parts {
			parts[j] = strings.TrimSpace(parts[j])
		}

		switch {
		case parts[0] == "p" && len(parts) == 4:
			if _, err := e.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("policy line %d: %w", i+1, err)
			}
		case parts[0] == "g" && len(parts) == 3:
			if _, err := e.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("policy line %d: %w", i+1, err)
			}
		default:
			return fmt.Errorf("policy line %d: malformed rule %q", i+1, line)
		}
	}
	return nil
}

// Governed reports whether any policy names feature.
func (e *Enforcer) Governed(feature string) bool {
	rules, err := e.enforcer.GetFilteredPolicy(1, feature)
	return err == nil && len(rules) > 0
}

// Allowed reports whether plan may use feature. Features without a policy
// are open; enforcement errors deny.
func (e *Enforcer) Allowed(plan, feature string) bool {
	if !e.Governed(feature) {
		return true
	}
	ok, err := e.enforcer.Enforce(plan, feature, ActionUse)
	if err != nil {
		logging.Error().Err(err).Str("plan", plan).Str("feature", feature).Msg("plan enforcement failed")
		ok = false
	}
	metrics.RecordGateDecision(feature, ok)
	return ok
}

// tier is how many plans sit below plan in the hierarchy.
func (e *Enforcer) tier(plan string) int {
	links, err := e.enforcer.GetGroupingPolicy()
	if err != nil {
		return 0
	}
	parents := make(map[string][]string, len(links))
	for _, l := range links {
		parents[l[0]] = append(parents[l[0]], l[1])
	}

	seen := map[string]struct{}{plan: {}}
	queue := []string{plan}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range parents[cur] {
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				queue = append(queue, p)
			}
		}
	}
	return len(seen) - 1
}

// Plans lists every plan the policy mentions, lowest tier first.
func (e *Enforcer) Plans() []string {
	seen := make(map[string]struct{})
	if rules, err := e.enforcer.GetPolicy(); err == nil {
		for _, r := range rules {
			seen[r[0]] = struct{}{}
		}
	}
	if links, err := e.enforcer.GetGroupingPolicy(); err == nil {
		for _, l := range links {
			seen[l[0]] = struct{}{}
			seen[l[1]] = struct{}{}
		}
	}

	plans := make([]string, 0, len(seen))
	for p := range seen {
		plans = append(plans, p)
	}
	e.sortByTier(plans)
	return plans
}

func (e *Enforcer) sortByTier(plans []string) {
	tiers := make(map[string]int, len(plans))
	for _, p := range plans {
		tiers[p] = e.tier(p)
	}
	sort.Slice(plans, func(i, j int) bool {
		if tiers[plans[i]] != tiers[plans[j]] {
			return tiers[plans[i]] < tiers[plans[j]]
		}
		return plans[i] < plans[j]
	})
}

// KnownPlan reports whether plan appears in the policy.
func (e *Enforcer) KnownPlan(plan string) bool {
	for _, p := range e.Plans() {
		if p == plan {
			return true
		}
	}
	return false
}

// RequiredPlan is the lowest tier allowed to use feature, or "" when the
// feature is open.
func (e *Enforcer) RequiredPlan(feature string) string {
	rules, err := e.enforcer.GetFilteredPolicy(1, feature)
	if err != nil || len(rules) == 0 {
		return ""
	}
	plans := make([]string, 0, len(rules))
	for _, r := range rules {
		plans = append(plans, r[0])
	}
	e.sortByTier(plans)
	return plans[0]
}
