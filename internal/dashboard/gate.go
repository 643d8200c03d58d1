// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package dashboard

import (
	"strings"

	"github.com/tomtom215/qrpulse/internal/authz"
	"github.com/tomtom215/qrpulse/internal/logging"
)

// Plan is a subscription tier.
type Plan string

const (
	PlanFree     Plan = "free"
	PlanPro      Plan = "pro"
	PlanBusiness Plan = "business"
)

// Feature is a plan-gated capability.
type Feature string

const (
	FeatureLiveAnalytics    Feature = "live_analytics"
	FeatureAnalyticsSummary Feature = "analytics_summary"
	FeatureLogo             Feature = "qr_logo"
	FeatureFrames           Feature = "qr_frames"
)

// ParsePlan normalises a plan claim. Unknown and empty values are free.
func ParsePlan(s string) Plan {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	if e, err := authz.Default(); err == nil && e.KnownPlan(string(p)) {
		return p
	}
	return PlanFree
}

// Allowed reports whether plan includes feature. Features the plan policy
// does not mention are allowed; a policy that fails to load denies.
func Allowed(plan Plan, feature Feature) bool {
	e, err := authz.Default()
	if err != nil {
		logging.Error().Err(err).Msg("plan policy unavailable")
		return false
	}
	return e.Allowed(string(ParsePlan(string(plan))), string(feature))
}

// requiredPlan is the lowest plan that includes feature.
func requiredPlan(feature Feature) Plan {
	e, err := authz.Default()
	if err != nil {
		return PlanPro
	}
	return Plan(e.RequiredPlan(string(feature)))
}

// Gate is the rendered access decision for one feature.
type Gate struct {
	Feature      Feature `json:"feature"`
	Allowed      bool    `json:"allowed"`
	RequiredPlan Plan    `json:"requiredPlan,omitempty"`
	Title        string  `json:"title,omitempty"`
	Message      string  `json:"message,omitempty"`
	CTA          string  `json:"cta,omitempty"`
	UpgradeURL   string  `json:"upgradeUrl,omitempty"`
}

var upsellCopy = map[Feature][2]string{
	FeatureLiveAnalytics: {"Live analytics", "Watch scans arrive in real time with hourly activity, device and country breakdowns."},
	FeatureLogo:          {"Branded QR codes", "Add your logo to the centre of your QR codes."},
}

// CheckGate evaluates feature for plan and fills in upgrade copy when access
// is denied.
func CheckGate(plan Plan, feature Feature) Gate {
	g := Gate{Feature: feature, Allowed: Allowed(plan, feature)}
	if g.Allowed {
		return g
	}
	g.RequiredPlan = requiredPlan(feature)
	if g.RequiredPlan == "" {
		g.RequiredPlan = PlanPro
	}
	c, ok := upsellCopy[feature]
	if !ok {
		c = [2]string{"Upgrade required", "This feature is not included in your plan."}
	}
	g.Title = c[0]
	g.Message = c[1]
	g.CTA = "Upgrade to " + strings.ToUpper(string(g.RequiredPlan[:1])) + string(g.RequiredPlan[1:])
	g.UpgradeURL = "/pricing?feature=" + string(feature)
	return g
}
