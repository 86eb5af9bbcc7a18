package escalate

import (
	"testing"

	"github.com/boswallah/course-assistant/config"
	"github.com/boswallah/course-assistant/models"
)

func enabledCfg() config.WebSearchConfig {
	return config.WebSearchConfig{
		Enabled: true,
		AutoTrigger: config.AutoTriggerConfig{
			InsufficientDocs: true,
			GeneralQueries:   true,
			LowConfidence:    true,
		},
	}
}

func docs(n int) []models.DocumentChunk {
	out := make([]models.DocumentChunk, n)
	for i := range out {
		out[i] = models.DocumentChunk{
			ID:      "d",
			Content: "Course Title: Dairy Farming Basics\nDescription: feeding and milking schedules",
		}
	}
	return out
}

func TestShouldEscalate_DisabledWinsOverEverything(t *testing.T) {
	cfg := enabledCfg()
	cfg.Enabled = false
	p := NewPolicy(cfg, 1, func() bool { return true })
	// Zero docs plus a hedging draft would normally escalate on rule one.
	got, rule := p.ShouldEscalate("where can I buy seeds", docs(0), "no information available")
	if got {
		t.Fatalf("expected no escalation when web search disabled, fired rule %q", rule)
	}
}

func TestShouldEscalate_UnconfiguredBackend(t *testing.T) {
	p := NewPolicy(enabledCfg(), 1, func() bool { return false })
	if got, _ := p.ShouldEscalate("where can I buy seeds", docs(0), ""); got {
		t.Fatalf("expected no escalation when backend unconfigured")
	}
}

func TestShouldEscalate_InsufficientDocsAlwaysFires(t *testing.T) {
	p := NewPolicy(enabledCfg(), 1, func() bool { return true })
	// Regardless of any other signal, fewer docs than the threshold escalates.
	got, rule := p.ShouldEscalate("dairy farming course details", docs(0),
		"The Dairy Farming Basics course covers feeding and milking in detail.")
	if !got || rule != "insufficient_docs" {
		t.Fatalf("expected insufficient_docs to fire, got %v/%q", got, rule)
	}
}

func TestShouldEscalate_InsufficientDocsThreshold(t *testing.T) {
	p := NewPolicy(enabledCfg(), 3, func() bool { return true })
	if got, _ := p.ShouldEscalate("dairy farming course feeding milking schedules", docs(2),
		"The dairy farming course covers feeding and milking schedules."); !got {
		t.Fatalf("expected escalation with 2 docs under threshold 3")
	}
}

func TestShouldEscalate_ZeroThresholdFallsBackToDefault(t *testing.T) {
	// A zero threshold would make the rule unfireable (len(docs) < 0 never
	// holds); the constructor normalizes it to the default of 1.
	p := NewPolicy(enabledCfg(), 0, func() bool { return true })
	got, rule := p.ShouldEscalate("dairy farming course details", docs(0),
		"The Dairy Farming Basics course covers feeding and milking in detail.")
	if !got || rule != "insufficient_docs" {
		t.Fatalf("expected insufficient_docs with normalized threshold, got %v/%q", got, rule)
	}
}

func TestShouldEscalate_GeneralKnowledge(t *testing.T) {
	p := NewPolicy(enabledCfg(), 1, func() bool { return true })

	got, rule := p.ShouldEscalate("what is drip irrigation", docs(3),
		"Drip irrigation delivers what is needed: water drop by drop to each plant's roots, a drip at a time, using irrigation lines.")
	if !got || rule != "general_knowledge" {
		t.Fatalf("expected general_knowledge to fire, got %v/%q", got, rule)
	}

	// Course-specific keywords suppress the general-knowledge rule.
	got, rule = p.ShouldEscalate("what is covered in the dairy farming course", docs(3),
		"The dairy farming course covers feeding, milking and breed selection, all of which is covered in eight modules.")
	if got && rule == "general_knowledge" {
		t.Fatalf("expected course keyword to suppress general_knowledge, fired %q", rule)
	}
}

func TestShouldEscalate_HedgingDraft(t *testing.T) {
	p := NewPolicy(enabledCfg(), 1, func() bool { return true })
	got, rule := p.ShouldEscalate("dairy farming feeding schedules", docs(3),
		"Feeding schedules for dairy farming are not explicitly mentioned in the course material.")
	if !got || rule != "draft_insufficiency" {
		t.Fatalf("expected draft_insufficiency on hedging phrase, got %v/%q", got, rule)
	}
}

func TestShouldEscalate_DraftCoverage(t *testing.T) {
	p := NewPolicy(enabledCfg(), 1, func() bool { return true })
	// None of the query's content words appear in the draft.
	got, rule := p.ShouldEscalate("hydroponics greenhouse automation", docs(3),
		"Our catalog focuses on livestock topics.")
	if !got || rule != "draft_insufficiency" {
		t.Fatalf("expected draft_insufficiency on low coverage, got %v/%q", got, rule)
	}

	// Full coverage does not escalate.
	got, rule = p.ShouldEscalate("dairy feeding milking",
		docs(3), "The course explains dairy feeding and milking routines thoroughly.")
	if got {
		t.Fatalf("expected no escalation with covered draft, fired %q", rule)
	}
}

func TestShouldEscalate_LocationAndVendor(t *testing.T) {
	p := NewPolicy(enabledCfg(), 1, func() bool { return true })

	// Both location and vendor terms; the cascade is short-circuit, so the
	// earlier location rule reports the match.
	draft := "Papaya seeds can be bought where papaya growers buy seeds in Bangalore."
	got, rule := p.ShouldEscalate("where can I buy papaya seeds in Bangalore", docs(3), draft)
	if !got {
		t.Fatalf("expected escalation for location+vendor query")
	}
	if rule != "general_knowledge" && rule != "location" && rule != "vendor" {
		t.Fatalf("unexpected rule %q", rule)
	}

	got, rule = p.ShouldEscalate("seed suppliers for papaya cultivation course", docs(3),
		"The Papaya Cultivation course lists approved seed suppliers for papaya planting material.")
	if !got || rule != "vendor" {
		t.Fatalf("expected vendor rule, got %v/%q", got, rule)
	}
}

func TestShouldEscalate_NoRuleMatches(t *testing.T) {
	p := NewPolicy(enabledCfg(), 1, func() bool { return true })
	got, rule := p.ShouldEscalate("dairy feeding details",
		docs(3), "The Dairy Farming Basics course covers feeding details and daily routines.")
	if got {
		t.Fatalf("expected no escalation, fired %q", rule)
	}
}

// The cascade deliberately favors recall of web augmentation over
// precision: an ambiguous query escalates. Documented here, not "fixed".
func TestShouldEscalate_BiasTowardEscalation(t *testing.T) {
	p := NewPolicy(enabledCfg(), 1, func() bool { return true })
	got, _ := p.ShouldEscalate("how to start farming", docs(3),
		"Farming can be started by preparing land and choosing what to farm; how to start depends on scale, and starting small helps.")
	if !got {
		t.Fatalf("expected conservative policy to escalate a general how-to query")
	}
}

func TestNewPolicyWithRules_CustomTable(t *testing.T) {
	fired := false
	rules := []Rule{{
		Name: "always",
		Match: func(in Input) bool {
			fired = true
			return true
		},
	}}
	p := NewPolicyWithRules(enabledCfg(), func() bool { return true }, rules)
	got, rule := p.ShouldEscalate("anything", docs(3), "draft")
	if !got || rule != "always" || !fired {
		t.Fatalf("expected custom rule to fire, got %v/%q", got, rule)
	}
}
