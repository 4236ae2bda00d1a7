package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubAdder struct {
	docs   []Document
	failIf func(Document) bool
}

func (s *stubAdder) AddDocument(_ context.Context, d Document) error {
	if s.failIf != nil && s.failIf(d) {
		return errors.New("backend down")
	}
	s.docs = append(s.docs, d)
	return nil
}

func newTestIngestor(adder *stubAdder) *Ingestor {
	return NewIngestor(adder, nil)
}

func TestIngestProfileDerivesFacts(t *testing.T) {
	adder := &stubAdder{}
	ing := newTestIngestor(adder)

	report, err := ing.IngestProfile(context.Background(), "u1", `{"riskTolerance":0.8,"investmentHorizon":5}`)
	if err != nil {
		t.Fatalf("IngestProfile: %v", err)
	}
	if report.Written != 3 || len(adder.docs) != 3 {
		t.Fatalf("expected 3 documents (raw + 2 derived), got %d", len(adder.docs))
	}
	for _, d := range adder.docs {
		if d.Importance() != ImportanceHigh {
			t.Fatalf("expected high importance on %q, got %q", d.Text, d.Importance())
		}
		if d.Metadata[MetaUserID] != "u1" {
			t.Fatalf("expected userId metadata on %q", d.Text)
		}
	}
	if adder.docs[0].Type() != TypeFinancialProfile {
		t.Fatalf("first document should be the raw profile, got type %q", adder.docs[0].Type())
	}
	if !strings.Contains(adder.docs[1].Text, "risk tolerance is 0.8") {
		t.Fatalf("unexpected risk sentence: %q", adder.docs[1].Text)
	}
	if !strings.Contains(adder.docs[2].Text, "investment horizon is 5 years") {
		t.Fatalf("unexpected horizon sentence: %q", adder.docs[2].Text)
	}
}

func TestIngestProfileGoals(t *testing.T) {
	adder := &stubAdder{}
	ing := newTestIngestor(adder)

	_, err := ing.IngestProfile(context.Background(), "u1", `{"goals":{"short":["emergency fund"],"long":["retirement"]}}`)
	if err != nil {
		t.Fatalf("IngestProfile: %v", err)
	}
	if len(adder.docs) != 2 {
		t.Fatalf("expected raw + goals documents, got %d", len(adder.docs))
	}
	goals := adder.docs[1]
	if goals.Metadata[MetaCategory] != "financial_goals" {
		t.Fatalf("expected financial_goals category, got %v", goals.Metadata[MetaCategory])
	}
	// Terms render sorted so repeated ingestions produce identical text.
	if !strings.Contains(goals.Text, "long goals: retirement\nshort goals: emergency fund") {
		t.Fatalf("unexpected goals text: %q", goals.Text)
	}
}

func TestIngestProfileMalformedSkipsDerivation(t *testing.T) {
	adder := &stubAdder{}
	ing := newTestIngestor(adder)

	report, err := ing.IngestProfile(context.Background(), "u1", `{not json`)
	if err != nil {
		t.Fatalf("malformed profile must not abort raw ingestion: %v", err)
	}
	if len(adder.docs) != 1 {
		t.Fatalf("expected only the raw document, got %d", len(adder.docs))
	}
	if len(report.Skipped) != 1 || !strings.Contains(report.Skipped[0], "malformed financial profile") {
		t.Fatalf("expected a malformed-profile skip entry, got %v", report.Skipped)
	}
}

func TestIngestProfileRawWriteFails(t *testing.T) {
	adder := &stubAdder{failIf: func(Document) bool { return true }}
	ing := newTestIngestor(adder)

	if _, err := ing.IngestProfile(context.Background(), "u1", `{}`); err == nil {
		t.Fatal("expected error when the raw profile write fails")
	}
}

func TestIngestUserMessageNoKeywords(t *testing.T) {
	adder := &stubAdder{}
	ing := newTestIngestor(adder)

	report, err := ing.IngestUserMessage(context.Background(), "u1", "Hello there!")
	if err != nil {
		t.Fatalf("IngestUserMessage: %v", err)
	}
	if report.Written != 1 || len(adder.docs) != 1 {
		t.Fatalf("expected exactly the verbatim document, got %d", len(adder.docs))
	}
	if adder.docs[0].Type() != TypeConversationContext || adder.docs[0].Importance() != ImportanceMedium {
		t.Fatalf("unexpected verbatim metadata: %v", adder.docs[0].Metadata)
	}
	if adder.docs[0].Text != "Hello there!" {
		t.Fatalf("verbatim text altered: %q", adder.docs[0].Text)
	}
}

func TestIngestUserMessageRiskAndInvestment(t *testing.T) {
	adder := &stubAdder{}
	ing := newTestIngestor(adder)

	_, err := ing.IngestUserMessage(context.Background(), "u1", "Should I invest in stocks or keep low risk bonds?")
	if err != nil {
		t.Fatalf("IngestUserMessage: %v", err)
	}
	if len(adder.docs) != 3 {
		t.Fatalf("expected verbatim + risk + investment documents, got %d", len(adder.docs))
	}
	if adder.docs[1].Text != "User mentioned a conservative risk tolerance in conversation." {
		t.Fatalf("unexpected risk signal: %q", adder.docs[1].Text)
	}
	if adder.docs[2].Text != "User expressed interest in stocks investments." {
		t.Fatalf("unexpected investment signal: %q", adder.docs[2].Text)
	}
	for _, d := range adder.docs[1:] {
		if d.Type() != TypeUserPreference || d.Metadata[MetaSource] != "conversation" {
			t.Fatalf("signal metadata wrong: %v", d.Metadata)
		}
	}
}

func TestIngestUserMessageEmotionalDebtConcern(t *testing.T) {
	adder := &stubAdder{}
	ing := newTestIngestor(adder)

	_, err := ing.IngestUserMessage(context.Background(), "u1", "I'm worried about my retirement debt")
	if err != nil {
		t.Fatalf("IngestUserMessage: %v", err)
	}
	if len(adder.docs) != 2 {
		t.Fatalf("expected verbatim + emotion documents, got %d", len(adder.docs))
	}
	if adder.docs[1].Text != "User expressed negative emotions about their debt financial situation." {
		t.Fatalf("unexpected emotion signal: %q", adder.docs[1].Text)
	}
}

func TestIngestUserMessageGoalExtraction(t *testing.T) {
	adder := &stubAdder{}
	ing := newTestIngestor(adder)

	_, err := ing.IngestUserMessage(context.Background(), "u1", "My goal is to buy a house")
	if err != nil {
		t.Fatalf("IngestUserMessage: %v", err)
	}
	if len(adder.docs) != 2 {
		t.Fatalf("expected verbatim + goal documents, got %d", len(adder.docs))
	}
	if !strings.HasPrefix(adder.docs[1].Text, "User mentioned a financial goal:") {
		t.Fatalf("unexpected goal signal: %q", adder.docs[1].Text)
	}
}

func TestIngestAIResponse(t *testing.T) {
	adder := &stubAdder{}
	ing := newTestIngestor(adder)

	report, err := ing.IngestAIResponse(context.Background(), "u1", "Consider an emergency fund first.")
	if err != nil {
		t.Fatalf("IngestAIResponse: %v", err)
	}
	if report.Written != 1 || len(adder.docs) != 1 {
		t.Fatalf("expected one conversation document, got %d", len(adder.docs))
	}
	if adder.docs[0].Type() != TypeConversationContext {
		t.Fatalf("unexpected type: %q", adder.docs[0].Type())
	}
}

func TestIngestDerivedWriteFailureIsBestEffort(t *testing.T) {
	adder := &stubAdder{failIf: func(d Document) bool { return d.Type() == TypeUserPreference }}
	ing := newTestIngestor(adder)

	report, err := ing.IngestUserMessage(context.Background(), "u1", "I prefer aggressive risk")
	if err != nil {
		t.Fatalf("derived write failures must not surface: %v", err)
	}
	if report.Written != 1 {
		t.Fatalf("expected only the verbatim write to count, got %d", report.Written)
	}
	if len(report.Skipped) == 0 {
		t.Fatal("expected the failed signal recorded in the report")
	}
}
