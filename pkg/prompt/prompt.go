// Package prompt assembles the system prompt and document context block
// sent to the completion API.
package prompt

import (
	"fmt"
	"strings"
)

const SystemPrompt = "You are an AI assistant helping users with their uploaded documents. Provide accurate and helpful responses based on the document content."

// maxDocumentChars caps how much of each document goes into the context.
const maxDocumentChars = 2000

// ContextDocument is a document snippet eligible for the context block.
type ContextDocument struct {
	Title   string
	Content string
}

// Assemble builds the fixed system prompt plus a context block listing the
// given documents. The context block is empty when there are no documents.
func Assemble(docs []ContextDocument) (systemPrompt, contextBlock string) {
	if len(docs) == 0 {
		return SystemPrompt, ""
	}

	var b strings.Builder
	b.WriteString("Relevant documents:\n")
	for i, doc := range docs {
		content := doc.Content
		// Truncation counts characters, not bytes, so a multi-byte rune is
		// never split at the cap.
		if runes := []rune(content); len(runes) > maxDocumentChars {
			content = string(runes[:maxDocumentChars]) + "..."
		}
		b.WriteString(fmt.Sprintf("\nDocument %d: %s\n%s\n", i+1, doc.Title, content))
	}

	return SystemPrompt, b.String()
}
