package scoring

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScore_Breakdown(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name string
		in   Input
		want LeadScore
	}{
		{
			name: "tier three contact form",
			in:   Input{IntentTier: 3, OriginChannel: "contact_form"},
			want: LeadScore{BaseScore: 50, ToolMultiplier: 1.0, Final: 50},
		},
		{
			name: "tier five truth engine clamps at 100",
			in: Input{
				IntentTier:    5,
				OriginChannel: "truth_engine",
				FieldsPresent: []Field{FieldEmail, FieldPhone, FieldAddress, FieldProjectDetail},
			},
			want: LeadScore{BaseScore: 90, ToolMultiplier: 1.2, DataBonus: 20, Final: 100},
		},
		{
			name: "newsletter dampens",
			in:   Input{IntentTier: 2, OriginChannel: "newsletter"},
			want: LeadScore{BaseScore: 30, ToolMultiplier: 0.7, Final: 21},
		},
		{
			name: "unknown channel is neutral",
			in:   Input{IntentTier: 4, OriginChannel: "billboard"},
			want: LeadScore{BaseScore: 70, ToolMultiplier: 1.0, Final: 70},
		},
		{
			name: "unknown tier scores zero base",
			in:   Input{IntentTier: 9, OriginChannel: "contact_form", FieldsPresent: []Field{FieldEmail}},
			want: LeadScore{BaseScore: 0, ToolMultiplier: 1.0, DataBonus: 8, Final: 8},
		},
		{
			name: "behavior bonus added before clamp",
			in:   Input{IntentTier: 5, OriginChannel: "quote_builder", BehaviorBonus: 50},
			want: LeadScore{BaseScore: 90, ToolMultiplier: 1.1, BehaviorBonus: 50, Final: 100},
		},
		{
			name: "negative behavior clamps at zero",
			in:   Input{IntentTier: 1, OriginChannel: "newsletter", BehaviorBonus: -50},
			want: LeadScore{BaseScore: 10, ToolMultiplier: 0.7, BehaviorBonus: -50, Final: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Score(tt.in)
			if got.BaseScore != tt.want.BaseScore {
				t.Errorf("BaseScore = %v, want %v", got.BaseScore, tt.want.BaseScore)
			}
			if got.ToolMultiplier != tt.want.ToolMultiplier {
				t.Errorf("ToolMultiplier = %v, want %v", got.ToolMultiplier, tt.want.ToolMultiplier)
			}
			if got.DataBonus != tt.want.DataBonus {
				t.Errorf("DataBonus = %v, want %v", got.DataBonus, tt.want.DataBonus)
			}
			if got.Final != tt.want.Final {
				t.Errorf("Final = %v, want %v", got.Final, tt.want.Final)
			}
			if got.Version != scoreVersion {
				t.Errorf("Version = %q, want %q", got.Version, scoreVersion)
			}
		})
	}
}

func TestScore_DuplicateFieldsCountOnce(t *testing.T) {
	e := NewEngine()

	got := e.Score(Input{
		IntentTier:    3,
		OriginChannel: "contact_form",
		FieldsPresent: []Field{FieldEmail, FieldEmail, FieldEmail},
	})
	if got.DataBonus != 8 {
		t.Fatalf("DataBonus = %v, want 8", got.DataBonus)
	}
}

func TestRoutingAction_Bands(t *testing.T) {
	tests := []struct {
		score  float64
		action string
	}{
		{100, "immediate_call"},
		{80, "immediate_call"},
		{79.9, "fast_follow_up"},
		{60, "fast_follow_up"},
		{59, "same_day_call"},
		{40, "same_day_call"},
		{39, "nurture_email"},
		{20, "nurture_email"},
		{19, "drip_campaign"},
		{0, "drip_campaign"},
	}

	for _, tt := range tests {
		got := RoutingAction(tt.score)
		if got.Action != tt.action {
			t.Errorf("RoutingAction(%v).Action = %q, want %q", tt.score, got.Action, tt.action)
		}
	}
}

func TestNewEngineFromFile_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	yaml := "channelMultipliers:\n  truth_engine: 1.5\n  door_hanger: 0.9\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write weights: %v", err)
	}

	e, err := NewEngineFromFile(path)
	if err != nil {
		t.Fatalf("NewEngineFromFile: %v", err)
	}

	if got := e.Score(Input{IntentTier: 3, OriginChannel: "truth_engine"}); got.ToolMultiplier != 1.5 {
		t.Fatalf("overridden multiplier = %v, want 1.5", got.ToolMultiplier)
	}
	if got := e.Score(Input{IntentTier: 3, OriginChannel: "door_hanger"}); got.ToolMultiplier != 0.9 {
		t.Fatalf("added channel multiplier = %v, want 0.9", got.ToolMultiplier)
	}
	// Channels absent from the file keep their defaults.
	if got := e.Score(Input{IntentTier: 3, OriginChannel: "newsletter"}); got.ToolMultiplier != 0.7 {
		t.Fatalf("default multiplier = %v, want 0.7", got.ToolMultiplier)
	}
}

func TestNewEngineFromFile_RejectsNonPositiveMultiplier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	if err := os.WriteFile(path, []byte("channelMultipliers:\n  truth_engine: 0\n"), 0o600); err != nil {
		t.Fatalf("write weights: %v", err)
	}

	if _, err := NewEngineFromFile(path); err == nil {
		t.Fatal("expected error for zero multiplier")
	}
}

func TestNewEngineFromFile_EmptyPathUsesDefaults(t *testing.T) {
	e, err := NewEngineFromFile("")
	if err != nil {
		t.Fatalf("NewEngineFromFile: %v", err)
	}
	if got := e.Score(Input{IntentTier: 5, OriginChannel: "truth_engine"}); got.ToolMultiplier != 1.2 {
		t.Fatalf("multiplier = %v, want 1.2", got.ToolMultiplier)
	}
}
