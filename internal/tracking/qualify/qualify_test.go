package qualify

import "testing"

func TestQualifies(t *testing.T) {
	tests := []struct {
		name  string
		facts Facts
		want  bool
	}{
		{"mid scope asap", Facts{WindowScope: Scope6To15, Timeline: TimelineASAP}, true},
		{"mid scope 30 days", Facts{WindowScope: Scope6To15, Timeline: Timeline30Days}, true},
		{"large scope asap", Facts{WindowScope: Scope16To30, Timeline: TimelineASAP}, true},
		{"largest scope 30 days", Facts{WindowScope: Scope31Plus, Timeline: Timeline30Days}, true},
		{"small scope near timeline", Facts{WindowScope: Scope1To5, Timeline: Timeline30Days}, false},
		{"large scope far timeline", Facts{WindowScope: Scope31Plus, Timeline: Timeline90Days}, false},
		{"exploring never qualifies", Facts{WindowScope: Scope16To30, Timeline: TimelineExploring}, false},
		{"missing scope", Facts{Timeline: TimelineASAP}, false},
		{"missing timeline", Facts{WindowScope: Scope6To15}, false},
		{"unknown values", Facts{WindowScope: "100_plus", Timeline: "tomorrow"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Qualifies(tt.facts); got != tt.want {
				t.Errorf("Qualifies(%+v) = %v, want %v", tt.facts, got, tt.want)
			}
		})
	}
}
