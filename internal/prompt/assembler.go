// Package prompt renders ranked context documents and the live user query
// into the text submitted to the language model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/fincoach/internal/memory"
)

// DefaultMaxDocuments caps how many ranked documents are surfaced to the
// model; conversation history is unbounded, the prompt is not.
const DefaultMaxDocuments = 10

// section maps document types to a labeled prompt block. Sections render in
// this fixed order; sections with no matching documents are omitted.
type section struct {
	header string
	types  []string
}

var sections = []section{
	{header: "Financial profile:", types: []string{memory.TypeFinancialProfile}},
	{header: "Known preferences and goals:", types: []string{memory.TypeUserPreference}},
	{header: "Market commentary:", types: []string{memory.TypeMarketCommentary}},
	{header: "Recent conversation:", types: []string{memory.TypeConversationContext, memory.TypeUserMessage, memory.TypeAIResponse}},
}

// Assembler deterministically renders (userQuery, orderedContext) into model
// input text. Identical inputs produce byte-identical output; nothing is
// timestamped or randomized at render time.
type Assembler struct {
	MaxDocuments int
}

// New builds an assembler. maxDocuments <= 0 uses the default cap.
func New(maxDocuments int) *Assembler {
	if maxDocuments <= 0 {
		maxDocuments = DefaultMaxDocuments
	}
	return &Assembler{MaxDocuments: maxDocuments}
}

// Build renders the prompt. The context list must already be ranked; the top
// MaxDocuments entries are partitioned into sections and the live user query
// always renders last.
func (a *Assembler) Build(userQuery string, orderedContext []memory.Document) string {
	docs := orderedContext
	if len(docs) > a.MaxDocuments {
		docs = docs[:a.MaxDocuments]
	}

	var b strings.Builder
	claimed := make([]bool, len(docs))
	for _, sec := range sections {
		var lines []string
		for i, doc := range docs {
			if matchesSection(doc.Type(), sec.types) {
				claimed[i] = true
				lines = append(lines, "- "+doc.Text)
			}
		}
		writeSection(&b, sec.header, lines)
	}

	// Caller-defined types still surface rather than silently vanishing.
	var rest []string
	for i, doc := range docs {
		if !claimed[i] {
			rest = append(rest, "- "+doc.Text)
		}
	}
	writeSection(&b, "Additional context:", rest)

	b.WriteString(fmt.Sprintf("User asks: %q", userQuery))
	return b.String()
}

func writeSection(b *strings.Builder, header string, lines []string) {
	if len(lines) == 0 {
		return
	}
	b.WriteString(header)
	b.WriteByte('\n')
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n")
}

func matchesSection(docType string, types []string) bool {
	for _, t := range types {
		if docType == t {
			return true
		}
	}
	return false
}
