package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestAssembleEmpty(t *testing.T) {
	system, contextBlock := Assemble(nil)
	assert.Equal(t, SystemPrompt, system)
	assert.Empty(t, contextBlock)
}

func TestAssembleNumbersDocuments(t *testing.T) {
	docs := []ContextDocument{
		{Title: "Meeting Notes", Content: "discussed roadmap"},
		{Title: "Q3 Plan", Content: "ship the thing"},
	}

	_, contextBlock := Assemble(docs)

	assert.True(t, strings.HasPrefix(contextBlock, "Relevant documents:\n"))
	assert.Contains(t, contextBlock, "\nDocument 1: Meeting Notes\ndiscussed roadmap\n")
	assert.Contains(t, contextBlock, "\nDocument 2: Q3 Plan\nship the thing\n")
}

func TestAssembleTruncatesLongContent(t *testing.T) {
	long := strings.Repeat("a", 2500)
	docs := []ContextDocument{{Title: "Big Doc", Content: long}}

	_, contextBlock := Assemble(docs)

	assert.Contains(t, contextBlock, strings.Repeat("a", 2000)+"...")
	assert.NotContains(t, contextBlock, strings.Repeat("a", 2001))
}

func TestAssembleTruncatesOnRuneBoundary(t *testing.T) {
	// 1999 ASCII chars followed by multi-byte runes. Character 2000 is the
	// first "é"; the cut must keep it whole and drop the rest.
	long := strings.Repeat("a", 1999) + strings.Repeat("é", 10)
	docs := []ContextDocument{{Title: "Unicode Doc", Content: long}}

	_, contextBlock := Assemble(docs)

	assert.True(t, utf8.ValidString(contextBlock))
	assert.Contains(t, contextBlock, strings.Repeat("a", 1999)+"é...")
	assert.NotContains(t, contextBlock, "éé")
}

func TestAssembleBoundaryContentNotTruncated(t *testing.T) {
	exact := strings.Repeat("b", 2000)
	docs := []ContextDocument{{Title: "Exact", Content: exact}}

	_, contextBlock := Assemble(docs)

	assert.Contains(t, contextBlock, exact+"\n")
	assert.NotContains(t, contextBlock, "...")
}
