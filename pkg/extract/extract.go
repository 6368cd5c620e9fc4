// Package extract turns uploaded document bytes into plain text content
// keyed on the declared media type.
package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"code.sajari.com/docconv"
)

const docxMediaType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const docUnsupportedText = "[DOC file - content extraction not supported for .doc files. Please convert to .docx for full functionality.]"

// Extract converts file bytes into text content. Failures are reported as
// inline marker text rather than errors, so a bad file still produces a
// stored document.
func Extract(filename, mediaType string, data []byte) string {
	text, err := extractText(mediaType, data)
	if err != nil {
		return fmt.Sprintf("[Error extracting content from %s: %v]", filename, err)
	}
	return text
}

func extractText(mediaType string, data []byte) (string, error) {
	base := mediaType
	if idx := strings.Index(base, ";"); idx != -1 {
		base = strings.TrimSpace(base[:idx])
	}

	switch base {
	case "text/plain", "text/markdown", "text/csv":
		return string(data), nil

	case "application/json":
		return formatJSON(data), nil

	case docxMediaType:
		res, err := docconv.Convert(bytes.NewReader(data), base, false)
		if err != nil {
			return "", err
		}
		return res.Body, nil

	case "application/msword":
		return docUnsupportedText, nil

	default:
		return "", fmt.Errorf("unsupported file type: %s", base)
	}
}

// formatJSON pretty prints JSON content, falling back to the raw text when
// the payload does not parse.
func formatJSON(data []byte) string {
	var parsed interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return string(data)
	}
	pretty, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return string(data)
	}
	return string(pretty)
}
