package llm

import (
	"strings"
	"testing"
	"time"

	"github.com/pitwall/stewarding/internal/model"
)

func TestNewSummarizer_DisabledWithoutKey(t *testing.T) {
	if s := NewSummarizer(model.LLMConfig{Model: "gpt-4o-mini"}); s != nil {
		t.Fatal("summarizer must be nil without an API key")
	}
	if s := NewSummarizer(model.LLMConfig{APIKey: "sk-test", Model: "gpt-4o-mini"}); s == nil {
		t.Fatal("summarizer must be enabled with an API key")
	}
}

func TestBuildDigestPrompt(t *testing.T) {
	recs := []*model.PenaltyRecord{
		{
			Series:      model.SeriesF1,
			GrandPrix:   "Monaco Grand Prix",
			DocDate:     time.Date(2024, 5, 26, 14, 0, 0, 0, time.UTC),
			PenaltyType: model.PenaltyTime,
			IncidentInfo: model.IncidentInfo{
				Driver:   "44 - Lewis Hamilton",
				Session:  "Race",
				Decision: []string{"5 second time penalty."},
			},
		},
		{
			Series:      model.SeriesF1,
			GrandPrix:   "Monaco Grand Prix",
			PenaltyType: model.PenaltyFine,
			IncidentInfo: model.IncidentInfo{
				Driver:   "11 - Sergio Perez",
				Session:  "Qualifying",
				Decision: []string{"Fined €10,000."},
			},
		},
	}

	prompt := buildDigestPrompt(recs)
	if !strings.Contains(prompt, "2 new stewarding decisions") {
		t.Errorf("prompt missing count: %s", prompt)
	}
	for _, want := range []string{"44 - Lewis Hamilton", "5 second time penalty.", "Qualifying", "fine"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
