package memory

import (
	"testing"
	"time"
)

func doc(id, importance, ts string) Document {
	meta := map[string]interface{}{}
	if importance != "" {
		meta[MetaImportance] = importance
	}
	if ts != "" {
		meta[MetaTimestamp] = ts
	}
	return Document{ID: id, Text: "text-" + id, Metadata: meta}
}

func ids(docs []Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

func TestRankHighImportanceFirst(t *testing.T) {
	older := time.Now().Add(-24 * time.Hour).UTC().Format(time.RFC3339)
	newer := time.Now().UTC().Format(time.RFC3339)
	in := []Document{
		doc("medium-new", ImportanceMedium, newer),
		doc("high-old", ImportanceHigh, older),
	}
	got := Rank(in)
	if got[0].ID != "high-old" {
		t.Fatalf("expected high importance first regardless of timestamps, got %v", ids(got))
	}
}

func TestRankRecencyWithinImportance(t *testing.T) {
	older := "2024-01-01T00:00:00Z"
	newer := "2024-06-01T00:00:00Z"
	in := []Document{
		doc("a", ImportanceHigh, older),
		doc("b", ImportanceHigh, newer),
		doc("c", ImportanceMedium, newer),
		doc("d", ImportanceMedium, older),
	}
	got := Rank(in)
	want := []string{"b", "a", "c", "d"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("rank order mismatch: got %v want %v", ids(got), want)
		}
	}
}

func TestRankStableOnTies(t *testing.T) {
	ts := "2024-03-01T12:00:00Z"
	in := []Document{
		doc("first", ImportanceMedium, ts),
		doc("second", ImportanceMedium, ts),
		doc("third", ImportanceMedium, ts),
	}
	got := Rank(in)
	want := []string{"first", "second", "third"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("stable sort violated: got %v want %v", ids(got), want)
		}
	}
}

func TestRankMissingTimestampSortsOldest(t *testing.T) {
	in := []Document{
		doc("no-ts", "", ""),
		doc("garbage-ts", "", "not-a-timestamp"),
		doc("dated", "", "2020-01-01T00:00:00Z"),
	}
	got := Rank(in)
	if got[0].ID != "dated" {
		t.Fatalf("expected dated document first, got %v", ids(got))
	}
	// The two epoch-ranked documents keep their incoming order.
	if got[1].ID != "no-ts" || got[2].ID != "garbage-ts" {
		t.Fatalf("expected epoch documents in original order, got %v", ids(got))
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	in := []Document{
		doc("low", "", "2020-01-01T00:00:00Z"),
		doc("high", ImportanceHigh, "2020-01-01T00:00:00Z"),
	}
	_ = Rank(in)
	if in[0].ID != "low" || in[1].ID != "high" {
		t.Fatalf("input slice was reordered: %v", ids(in))
	}
}
