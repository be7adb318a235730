package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/cashcast/internal/model"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{4.5, "$4.50"},
		{-1234.5, "-$1,234.50"},
		{1234567.891, "$1,234,567.89"},
		{-0.004, "$0.00"},
	}
	for _, tt := range tests {
		if got := FormatMoney(tt.in); got != tt.want {
			t.Errorf("FormatMoney(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatMoneyShort(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{980, "$980"},
		{1234, "$1.2K"},
		{-25000, "-$25K"},
		{3_400_000, "$3.4M"},
	}
	for _, tt := range tests {
		if got := FormatMoneyShort(tt.in); got != tt.want {
			t.Errorf("FormatMoneyShort(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatOrdinal(t *testing.T) {
	for day, want := range map[int]string{1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th", 13: "13th", 21: "21st", 22: "22nd", 31: "31st"} {
		if got := FormatOrdinal(day); got != want {
			t.Errorf("FormatOrdinal(%d) = %q, want %q", day, got, want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC)
	if got := FormatDate(d); got != "Sat 05 Jul" {
		t.Errorf("FormatDate = %q", got)
	}
}

func TestRenderSparkline_NegativeValues(t *testing.T) {
	got := []rune(RenderSparkline([]float64{-100, 0, 100}))
	if len(got) != 3 {
		t.Fatalf("got %d runes, want 3", len(got))
	}
	if got[0] != '▁' || got[2] != '█' {
		t.Errorf("sparkline = %q, want lowest first and highest last", string(got))
	}
}

func TestRenderTable_AlignsColumns(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Name", "Amount"},
		Rows:    [][]string{{"Rent", "$1,200.00"}, {"---"}, {"Coffee", "$4.00"}},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("got %d lines, want 7:\n%s", len(lines), out)
	}
	if !strings.Contains(out, "Coffee") || !strings.Contains(out, "$1,200.00") {
		t.Errorf("missing cells:\n%s", out)
	}
}

func TestRenderStatus(t *testing.T) {
	if !strings.Contains(RenderStatus(model.AtRisk), "at risk") {
		t.Error("at-risk label missing")
	}
	if !strings.Contains(RenderStatus(model.Exceeded), "exceeded") {
		t.Error("exceeded label missing")
	}
}

func TestFormatPatternDays(t *testing.T) {
	monthly := &model.Pattern{
		PatternType:           model.Monthly,
		MostLikelyDaysOfMonth: []model.DayShare{{Day: 1, Share: 0.6}, {Day: 15, Share: 0.4}},
	}
	if got := FormatPatternDays(monthly); got != "1st 15th" {
		t.Errorf("monthly = %q, want %q", got, "1st 15th")
	}

	weekly := &model.Pattern{
		PatternType:   model.Weekly,
		DayOfWeekProb: map[int]float64{1: 0.25, 5: 0.75},
	}
	if got, want := FormatPatternDays(weekly), "Fri "+FormatPercent(0.75); got != want {
		t.Errorf("weekly = %q, want %q", got, want)
	}

	if got := FormatPatternDays(&model.Pattern{PatternType: model.Sporadic}); got != "" {
		t.Errorf("pattern without weekday shares = %q, want empty", got)
	}
}
