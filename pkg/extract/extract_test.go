package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPlainText(t *testing.T) {
	got := Extract("notes.txt", "text/plain", []byte("hello world"))
	assert.Equal(t, "hello world", got)
}

func TestExtractMarkdownWithCharset(t *testing.T) {
	got := Extract("readme.md", "text/markdown; charset=utf-8", []byte("# Title"))
	assert.Equal(t, "# Title", got)
}

func TestExtractJSONPretty(t *testing.T) {
	got := Extract("data.json", "application/json", []byte(`{"a":1,"b":[2,3]}`))
	assert.Contains(t, got, "\"a\": 1")
	assert.True(t, strings.Contains(got, "\n"))
}

func TestExtractJSONFallbackOnParseFailure(t *testing.T) {
	raw := []byte(`{"broken": `)
	got := Extract("data.json", "application/json", raw)
	assert.Equal(t, string(raw), got)
}

func TestExtractDocUnsupportedMarker(t *testing.T) {
	got := Extract("legacy.doc", "application/msword", []byte("binary"))
	assert.Contains(t, got, "content extraction not supported for .doc files")
}

func TestExtractUnknownTypeErrorMarker(t *testing.T) {
	got := Extract("image.png", "image/png", []byte{0x89})
	assert.Contains(t, got, "[Error extracting content from image.png:")
	assert.Contains(t, got, "unsupported file type: image/png")
}

func TestExtractCorruptDocxErrorMarker(t *testing.T) {
	got := Extract("report.docx",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		[]byte("not a zip archive"))
	assert.Contains(t, got, "[Error extracting content from report.docx:")
}
