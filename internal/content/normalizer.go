package content

import "strings"

// Normalize maps an extraction result into a Draft ready for upsert.
// schemaRequested indicates whether a structured-extraction schema was
// attached to the request; only then is the structured payload carried
// over. It returns ErrNoContent when the result is absent or carries
// neither markdown, html, nor a requested structured payload, so the
// caller never persists an all-empty record as a success.
func Normalize(url string, res *ExtractResult, schemaRequested bool) (Draft, error) {
	if res == nil {
		return Draft{}, ErrNoContent
	}

	draft := Draft{
		URL:         url,
		Content:     res.Markdown,
		HTMLContent: res.HTML,
		Metadata:    res.Metadata,
		ContentType: Classify(url),
		WordCount:   len(strings.Fields(res.Markdown)),
	}
	if draft.Metadata == nil {
		draft.Metadata = map[string]any{}
	}
	if title, ok := res.Metadata["title"].(string); ok {
		draft.Title = title
	}
	if schemaRequested {
		draft.ExtractedData = res.StructuredData
	}

	if draft.Content == "" && draft.HTMLContent == "" && len(draft.ExtractedData) == 0 {
		return Draft{}, ErrNoContent
	}
	return draft, nil
}
