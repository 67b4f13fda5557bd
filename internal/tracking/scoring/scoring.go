// Package scoring turns a coarse intent classification plus data
// completeness into a 0-100 priority score and a routing recommendation.
// Derived, never stored; every call is pure given the engine's weights.
package scoring

import "math"

const (
	// scoreVersion tracks the scoring model for debugging and analysis.
	// Bump this when changing scoring logic significantly.
	scoreVersion = "2026-v1"

	// dataBonusCap bounds the total contact-completeness bonus regardless
	// of how many fields are present.
	dataBonusCap = 20.0
)

// baseScores is the fixed lookup by intent tier (1-5). Unknown tiers
// score zero base.
var baseScores = map[int]float64{
	1: 10,
	2: 30,
	3: 50,
	4: 70,
	5: 90,
}

// fieldBonuses are the per-field bonuses summed into the data bonus.
var fieldBonuses = map[Field]float64{
	FieldEmail:         8,
	FieldPhone:         8,
	FieldAddress:       5,
	FieldProjectDetail: 5,
}

// Field identifies a contact field counted toward data completeness.
type Field string

const (
	FieldEmail         Field = "email"
	FieldPhone         Field = "phone"
	FieldAddress       Field = "address"
	FieldProjectDetail Field = "project_detail"
)

// Input holds the facts the engine scores.
type Input struct {
	IntentTier    int     `json:"intentTier"`    // 1 (curious) .. 5 (ready to buy)
	OriginChannel string  `json:"originChannel"` // which tool captured the lead
	FieldsPresent []Field `json:"fieldsPresent"`
	BehaviorBonus float64 `json:"behaviorBonus"` // caller-supplied, default 0
}

// LeadScore is the scored breakdown. Final is clamped to [0,100].
type LeadScore struct {
	BaseScore      float64 `json:"baseScore"`
	ToolMultiplier float64 `json:"toolMultiplier"`
	DataBonus      float64 `json:"dataBonus"`
	BehaviorBonus  float64 `json:"behaviorBonus"`
	Final          float64 `json:"final"`
	Version        string  `json:"version"`
}

// Engine scores leads with a fixed base table and per-channel multipliers.
type Engine struct {
	multipliers map[string]float64
}

// NewEngine creates an Engine with the default channel multipliers.
func NewEngine() *Engine {
	return &Engine{multipliers: defaultChannelMultipliers()}
}

// Score computes the priority score:
// clamp(base*multiplier + dataBonus + behaviorBonus, 0, 100).
func (e *Engine) Score(in Input) LeadScore {
	base := baseScores[in.IntentTier]

	multiplier, ok := e.multipliers[in.OriginChannel]
	if !ok {
		multiplier = 1.0
	}

	dataBonus := 0.0
	seen := make(map[Field]struct{}, len(in.FieldsPresent))
	for _, f := range in.FieldsPresent {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		dataBonus += fieldBonuses[f]
	}
	dataBonus = math.Min(dataBonus, dataBonusCap)

	final := base*multiplier + dataBonus + in.BehaviorBonus
	final = math.Max(0, math.Min(100, final))

	return LeadScore{
		BaseScore:      base,
		ToolMultiplier: multiplier,
		DataBonus:      dataBonus,
		BehaviorBonus:  in.BehaviorBonus,
		Final:          final,
		Version:        scoreVersion,
	}
}

// Routing is the recommended next action for a scored lead.
type Routing struct {
	Action    string `json:"action"`
	Priority  string `json:"priority"`
	Timeframe string `json:"timeframe"`
}

// routingBands maps score thresholds to actions, highest first.
var routingBands = []struct {
	min     float64
	routing Routing
}{
	{80, Routing{Action: "immediate_call", Priority: "p1", Timeframe: "15m"}},
	{60, Routing{Action: "fast_follow_up", Priority: "p2", Timeframe: "1h"}},
	{40, Routing{Action: "same_day_call", Priority: "p3", Timeframe: "8h"}},
	{20, Routing{Action: "nurture_email", Priority: "p4", Timeframe: "24h"}},
	{0, Routing{Action: "drip_campaign", Priority: "p5", Timeframe: "7d"}},
}

// RoutingAction returns the stepped routing recommendation for a score.
func RoutingAction(score float64) Routing {
	for _, band := range routingBands {
		if score >= band.min {
			return band.routing
		}
	}
	return routingBands[len(routingBands)-1].routing
}
