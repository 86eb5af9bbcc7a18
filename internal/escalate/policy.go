// Package escalate decides whether retrieved course context is enough or a
// live web search should supplement it. The rules are deliberately biased
// toward escalating: a wasted search is cheaper than a confidently wrong
// answer about something outside the catalog.
package escalate

import (
	"strings"

	"github.com/boswallah/course-assistant/config"
	"github.com/boswallah/course-assistant/models"
)

// Input is everything a rule may look at. The draft is always English text:
// escalation runs after query translation and before response translation.
type Input struct {
	Query string
	Docs  []models.DocumentChunk
	Draft string
}

// Rule is one named predicate. Rules run in order and the first match wins.
type Rule struct {
	Name  string
	Match func(Input) bool
}

// Keyword tables. Externally swappable via NewPolicyWithRules; tuned for
// English query/draft text.
var (
	generalKeywords = []string{
		"what is", "what are", "how to", "how do", "how can",
		"explain", "where to", "where can", "why", "when to", "buy",
	}
	courseKeywords = []string{
		"course", "courses", "training", "certification", "curriculum",
		"enroll", "enrolment", "syllabus", "boswallah",
	}
	hedgingPhrases = []string{
		"no information available",
		"not explicitly mentioned",
		"beyond the scope",
		"couldn't find specific information",
		"could not find specific information",
		"does not mention",
		"not mentioned in the course",
		"no specific information",
		"not available in the provided",
		"not covered in the course",
	}
	locationKeywords = []string{
		"near", "nearby", "near me", "address", "location", "directions",
		"bangalore", "bengaluru", "mumbai", "delhi", "chennai", "hyderabad",
		"kolkata", "pune", "kochi", "coimbatore", "mysore",
	}
	vendorKeywords = []string{
		"buy", "purchase", "supplier", "suppliers", "seller", "sellers",
		"dealer", "dealers", "shop", "store", "vendor", "vendors",
		"price", "cost", "wholesale",
	}
	stopWords = map[string]bool{
		"the": true, "and": true, "for": true, "are": true, "but": true,
		"not": true, "you": true, "all": true, "can": true, "her": true,
		"was": true, "one": true, "our": true, "out": true, "has": true,
		"have": true, "what": true, "with": true, "this": true, "that": true,
		"from": true, "they": true, "will": true, "would": true, "there": true,
		"their": true, "about": true, "which": true, "when": true, "where": true,
		"does": true, "please": true, "tell": true,
	}
)

const draftCoverageThreshold = 0.5

// Policy evaluates the escalation cascade. Construction wires the config
// switches and whether the search backend is usable at all.
type Policy struct {
	cfg            config.WebSearchConfig
	docThreshold   int
	backendEnabled func() bool
	rules          []Rule
}

// NewPolicy builds the default cascade. docThreshold is the configured
// insufficient-docs threshold (retrieval.insufficient_docs_threshold,
// default 1: escalate when zero documents were retrieved). A zero or
// negative threshold falls back to the default rather than silently
// disabling the rule; turning it off is the auto-trigger flag's job.
func NewPolicy(cfg config.WebSearchConfig, docThreshold int, backendEnabled func() bool) *Policy {
	if docThreshold <= 0 {
		docThreshold = 1
	}
	p := &Policy{cfg: cfg, docThreshold: docThreshold, backendEnabled: backendEnabled}
	p.rules = p.defaultRules()
	return p
}

// NewPolicyWithRules substitutes a custom ordered rule table, keeping the
// disabled/unconfigured short-circuit.
func NewPolicyWithRules(cfg config.WebSearchConfig, backendEnabled func() bool, rules []Rule) *Policy {
	return &Policy{cfg: cfg, backendEnabled: backendEnabled, rules: rules}
}

// ShouldEscalate runs the cascade and returns the decision plus the name of
// the rule that fired (empty when none did).
func (p *Policy) ShouldEscalate(query string, docs []models.DocumentChunk, draft string) (bool, string) {
	if !p.cfg.Enabled {
		return false, ""
	}
	if p.backendEnabled != nil && !p.backendEnabled() {
		return false, ""
	}
	in := Input{Query: query, Docs: docs, Draft: draft}
	for _, rule := range p.rules {
		if rule.Match(in) {
			return true, rule.Name
		}
	}
	return false, ""
}

func (p *Policy) defaultRules() []Rule {
	rules := []Rule{}

	if p.cfg.AutoTrigger.InsufficientDocs {
		rules = append(rules, Rule{
			Name: "insufficient_docs",
			Match: func(in Input) bool {
				return len(in.Docs) < p.docThreshold
			},
		})
	}

	if p.cfg.AutoTrigger.GeneralQueries {
		rules = append(rules, Rule{
			Name:  "general_knowledge",
			Match: func(in Input) bool { return isGeneralKnowledge(in.Query) },
		})
	}

	if p.cfg.AutoTrigger.LowConfidence {
		rules = append(rules, Rule{
			Name:  "draft_insufficiency",
			Match: func(in Input) bool { return draftInsufficient(in.Query, in.Draft) },
		})
	}

	rules = append(rules,
		Rule{
			Name:  "location",
			Match: func(in Input) bool { return containsAny(strings.ToLower(in.Query), locationKeywords) },
		},
		Rule{
			Name:  "vendor",
			Match: func(in Input) bool { return containsAny(strings.ToLower(in.Query), vendorKeywords) },
		},
	)
	return rules
}

// isGeneralKnowledge fires when the query carries a general-knowledge
// phrasing but none of the course-specific terms.
func isGeneralKnowledge(query string) bool {
	q := strings.ToLower(query)
	if !containsAny(q, generalKeywords) {
		return false
	}
	return !containsAny(q, courseKeywords)
}

// draftInsufficient fires when the draft hedges, or when more than half of
// the query's content words never made it into the draft.
func draftInsufficient(query, draft string) bool {
	d := strings.ToLower(draft)
	if containsAny(d, hedgingPhrases) {
		return true
	}

	words := contentWords(query)
	if len(words) == 0 {
		return false
	}
	missing := 0
	for _, w := range words {
		if !strings.Contains(d, w) {
			missing++
		}
	}
	return float64(missing)/float64(len(words)) > draftCoverageThreshold
}

// contentWords extracts lower-cased query words longer than 3 runes that
// are not stop words.
func contentWords(query string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, ".,!?;:\"'()")
		if len([]rune(w)) <= 3 || stopWords[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
