package theme

import (
	"testing"

	"github.com/theirongolddev/cashcast/internal/model"
)

func TestByNameFallsBackToDefault(t *testing.T) {
	if got := ByName("tokyo-night").Name; got != "tokyo-night" {
		t.Fatalf("ByName(tokyo-night) = %q", got)
	}
	if got := ByName("nope").Name; got != FlexokiDark.Name {
		t.Fatalf("ByName(nope) = %q, want %q", got, FlexokiDark.Name)
	}
	if len(Names()) != len(All) {
		t.Fatalf("Names() has %d entries, want %d", len(Names()), len(All))
	}
}

func TestCashFlowRoles(t *testing.T) {
	for _, th := range All {
		if th.Flow(10) != th.Income || th.Flow(-10) != th.Expense || th.Flow(0) != th.TextMuted {
			t.Errorf("%s: Flow colors do not follow the sign", th.Name)
		}
		if th.Status(model.Exceeded) != th.Exceeded || th.Status(model.AtRisk) != th.AtRisk ||
			th.Status(model.OnTrack) != th.OnTrack {
			t.Errorf("%s: Status colors mismatched", th.Name)
		}
		if th.BorderAccent != th.Accent {
			t.Errorf("%s: BorderAccent = %v, want accent %v", th.Name, th.BorderAccent, th.Accent)
		}
	}
}

func TestPatternColorsDistinct(t *testing.T) {
	th := FlexokiDark
	seen := map[string]model.PatternType{}
	for _, p := range []model.PatternType{model.Monthly, model.Weekly, model.Daily, model.Sporadic} {
		c := string(th.Pattern(p))
		if prev, ok := seen[c]; ok {
			t.Fatalf("%v and %v share color %s", prev, p, c)
		}
		seen[c] = p
	}
}
