package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
)

// DocumentAdder is the write half of the context store.
type DocumentAdder interface {
	AddDocument(ctx context.Context, doc Document) error
}

// Ingestor fans one conversation event out into zero or more context
// documents. Derived-fact writes are best effort: failures land in the
// returned report instead of aborting the event.
type Ingestor struct {
	store  DocumentAdder
	logger *log.Logger
}

// NewIngestor builds an ingestor writing through the given store.
func NewIngestor(store DocumentAdder, logger *log.Logger) *Ingestor {
	if logger == nil {
		logger = log.New(log.Writer(), "[INGEST] ", log.LstdFlags)
	}
	return &Ingestor{store: store, logger: logger}
}

// IngestReport records the outcome of one event's fan-out so callers can
// assert on it or ignore it.
type IngestReport struct {
	Written int
	Skipped []string
}

func (r *IngestReport) skip(reason string) {
	r.Skipped = append(r.Skipped, reason)
}

// signalClass refines a matched family into a specific label. The first
// class whose keyword appears wins.
type signalClass struct {
	label    string
	keywords []string
}

// signalRule is one keyword family scanned over user messages. Matching is
// substring-based and case-insensitive; the derived sentence is the template
// with the class label (or fallback) substituted in.
type signalRule struct {
	category string
	triggers []string
	classes  []signalClass
	fallback string
	sentence string
}

// The keyword families and sentence templates are deliberately plain data:
// their exact wording is what the prompt assembler later surfaces, so tuning
// them should never require touching the scanning logic.
var signalRules = []signalRule{
	{
		category: "risk_tolerance",
		triggers: []string{"risk", "conservative", "aggressive"},
		classes: []signalClass{
			{label: "conservative", keywords: []string{"conservative", "low risk", "safe"}},
			{label: "aggressive", keywords: []string{"aggressive", "high risk", "risky"}},
		},
		fallback: "moderate",
		sentence: "User mentioned a %s risk tolerance in conversation.",
	},
	{
		category: "investment_type",
		triggers: []string{"invest", "stock", "fund"},
		classes: []signalClass{
			{label: "stocks", keywords: []string{"stock", "equity"}},
			{label: "bonds", keywords: []string{"bond", "fixed income"}},
			{label: "real estate", keywords: []string{"real estate", "property"}},
			{label: "cryptocurrency", keywords: []string{"crypto", "bitcoin"}},
		},
		fallback: "general",
		sentence: "User expressed interest in %s investments.",
	},
	{
		category: "emotional_state",
		triggers: []string{"worried", "concerned", "anxious", "stress", "frustrated", "angry"},
		classes: []signalClass{
			{label: "debt", keywords: []string{"debt", "loan", "credit"}},
			{label: "retirement", keywords: []string{"retire", "future", "old age"}},
			{label: "income", keywords: []string{"job", "work", "income"}},
			{label: "investments", keywords: []string{"market", "stock", "invest"}},
		},
		fallback: "general",
		sentence: "User expressed negative emotions about their %s financial situation.",
	},
}

// The goal family extracts the goal text itself rather than classifying it.
var goalTriggers = []string{"goal", "target", "aim", "want to", "would like to"}

var goalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:goal|target|aim|want to|would like to)\s+(?:is|to|of)?\s*([^.,!?]+)`),
	regexp.MustCompile(`(?i)(?:save|invest|earn|make)\s+(\d+[kKmMbB]?\s*(?:dollars|bucks|money|USD)?)`),
	regexp.MustCompile(`(?i)(?:retire|buy|purchase|own)\s+([^.,!?]+)`),
}

// profilePayload covers the recognized financial-profile fields. Fields
// absent from the payload derive no documents; nothing is defaulted.
type profilePayload struct {
	RiskTolerance     *float64            `json:"riskTolerance"`
	InvestmentHorizon *float64            `json:"investmentHorizon"`
	Goals             map[string][]string `json:"goals"`
}

// IngestProfile writes the raw profile plus one derived sentence per
// recognized field present. The raw write failing is returned as an error;
// malformed JSON and derived-write failures only skip the affected facts.
func (ing *Ingestor) IngestProfile(ctx context.Context, userID, profileJSON string) (IngestReport, error) {
	var report IngestReport

	raw := Document{
		Text: profileJSON,
		Metadata: map[string]interface{}{
			MetaType:       TypeFinancialProfile,
			MetaImportance: ImportanceHigh,
			MetaUserID:     userID,
		},
	}
	if err := ing.store.AddDocument(ctx, raw); err != nil {
		return report, fmt.Errorf("ingest profile: %w", err)
	}
	report.Written++

	var profile profilePayload
	if err := json.Unmarshal([]byte(profileJSON), &profile); err != nil {
		report.skip(fmt.Sprintf("%v: %v", ErrMalformedProfile, err))
		ing.logger.Printf("warn: derived facts skipped: %v", err)
		return report, nil
	}

	if profile.RiskTolerance != nil {
		text := fmt.Sprintf("User's risk tolerance is %g. This affects investment recommendations.", *profile.RiskTolerance)
		ing.addDerived(ctx, &report, text, userID, "risk_tolerance", ImportanceHigh, "")
	}
	if profile.InvestmentHorizon != nil {
		text := fmt.Sprintf("User's investment horizon is %g years. This affects long-term planning.", *profile.InvestmentHorizon)
		ing.addDerived(ctx, &report, text, userID, "investment_horizon", ImportanceHigh, "")
	}
	if len(profile.Goals) > 0 {
		terms := make([]string, 0, len(profile.Goals))
		for term := range profile.Goals {
			terms = append(terms, term)
		}
		sort.Strings(terms)
		lines := make([]string, 0, len(terms))
		for _, term := range terms {
			lines = append(lines, fmt.Sprintf("%s goals: %s", term, strings.Join(profile.Goals[term], ", ")))
		}
		text := "User's financial goals:\n" + strings.Join(lines, "\n")
		ing.addDerived(ctx, &report, text, userID, "financial_goals", ImportanceHigh, "")
	}
	return report, nil
}

// IngestUserMessage writes the verbatim message, then one signal document
// per keyword family the message matches. Multiple families may fire; no
// match adds nothing beyond the verbatim document.
func (ing *Ingestor) IngestUserMessage(ctx context.Context, userID, text string) (IngestReport, error) {
	var report IngestReport

	verbatim := Document{
		Text: text,
		Metadata: map[string]interface{}{
			MetaType:       TypeConversationContext,
			MetaImportance: ImportanceMedium,
			MetaUserID:     userID,
		},
	}
	if err := ing.store.AddDocument(ctx, verbatim); err != nil {
		return report, fmt.Errorf("ingest user message: %w", err)
	}
	report.Written++

	lower := strings.ToLower(text)
	for _, rule := range signalRules {
		if !containsAny(lower, rule.triggers) {
			continue
		}
		label := rule.fallback
		for _, class := range rule.classes {
			if containsAny(lower, class.keywords) {
				label = class.label
				break
			}
		}
		ing.addDerived(ctx, &report, fmt.Sprintf(rule.sentence, label), userID, rule.category, ImportanceMedium, "conversation")
	}

	if containsAny(lower, goalTriggers) {
		for _, pattern := range goalPatterns {
			match := pattern.FindStringSubmatch(text)
			if len(match) > 1 && strings.TrimSpace(match[1]) != "" {
				goal := strings.TrimSpace(match[1])
				ing.addDerived(ctx, &report, fmt.Sprintf("User mentioned a financial goal: %s", goal), userID, "financial_goals", ImportanceMedium, "conversation")
				break
			}
		}
	}
	return report, nil
}

// IngestAIResponse records the advisor's reply as conversation context.
func (ing *Ingestor) IngestAIResponse(ctx context.Context, userID, text string) (IngestReport, error) {
	var report IngestReport
	doc := Document{
		Text: text,
		Metadata: map[string]interface{}{
			MetaType:       TypeConversationContext,
			MetaImportance: ImportanceMedium,
			MetaUserID:     userID,
		},
	}
	if err := ing.store.AddDocument(ctx, doc); err != nil {
		return report, fmt.Errorf("ingest ai response: %w", err)
	}
	report.Written++
	return report, nil
}

func (ing *Ingestor) addDerived(ctx context.Context, report *IngestReport, text, userID, category, importance, source string) {
	meta := map[string]interface{}{
		MetaType:       TypeUserPreference,
		MetaImportance: importance,
		MetaCategory:   category,
		MetaUserID:     userID,
	}
	if source != "" {
		meta[MetaSource] = source
	}
	if err := ing.store.AddDocument(ctx, Document{Text: text, Metadata: meta}); err != nil {
		report.skip(fmt.Sprintf("%s: %v", category, err))
		ing.logger.Printf("warn: derived fact write failed (%s): %v", category, err)
		return
	}
	report.Written++
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
