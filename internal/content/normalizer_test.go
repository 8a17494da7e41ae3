package content

import (
	"errors"
	"testing"
)

// TestNormalizeFieldMapping checks the draft carries every populated
// service field plus the derived columns.
func TestNormalizeFieldMapping(t *testing.T) {
	t.Parallel()

	res := &ExtractResult{
		Markdown: "one two three",
		HTML:     "<p>one two three</p>",
		Metadata: map[string]any{"title": "AI News", "description": "daily digest"},
	}

	draft, err := Normalize("https://techcrunch.com/some-post", res, false)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if draft.Title != "AI News" {
		t.Fatalf("Title = %q, want %q", draft.Title, "AI News")
	}
	if draft.Content != "one two three" || draft.HTMLContent != "<p>one two three</p>" {
		t.Fatalf("content fields not carried over: %+v", draft)
	}
	if draft.WordCount != 3 {
		t.Fatalf("WordCount = %d, want 3", draft.WordCount)
	}
	if draft.ContentType != TypeWebpage {
		t.Fatalf("ContentType = %q, want %q", draft.ContentType, TypeWebpage)
	}
	if draft.Metadata["description"] != "daily digest" {
		t.Fatalf("Metadata not carried over: %+v", draft.Metadata)
	}
	if draft.ExtractedData != nil {
		t.Fatalf("ExtractedData should be absent without a schema, got %+v", draft.ExtractedData)
	}
}

// TestNormalizeWordCount covers the whitespace tokenization rule.
func TestNormalizeWordCount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		markdown string
		want     int
	}{
		{"three words", "one two three", 3},
		{"extra whitespace", "  one\t two \n three  ", 3},
		{"single word", "word", 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			draft, err := Normalize("https://x.com/p", &ExtractResult{Markdown: tc.markdown}, false)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if draft.WordCount != tc.want {
				t.Fatalf("WordCount = %d, want %d", draft.WordCount, tc.want)
			}
		})
	}
}

// TestNormalizeAbsentContent ensures html-only results normalize with a
// zero word count rather than failing.
func TestNormalizeAbsentContent(t *testing.T) {
	t.Parallel()

	draft, err := Normalize("https://x.com/p", &ExtractResult{HTML: "<html></html>"}, false)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if draft.WordCount != 0 {
		t.Fatalf("WordCount = %d, want 0", draft.WordCount)
	}
}

// TestNormalizeNoContent ensures empty results are rejected instead of
// producing an all-empty draft.
func TestNormalizeNoContent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name            string
		res             *ExtractResult
		schemaRequested bool
	}{
		{"nil result", nil, false},
		{"empty result", &ExtractResult{}, false},
		{"metadata only", &ExtractResult{Metadata: map[string]any{"title": "t"}}, false},
		{"schema requested but empty payload", &ExtractResult{StructuredData: map[string]any{}}, true},
		{"payload present but no schema requested", &ExtractResult{StructuredData: map[string]any{"k": "v"}}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Normalize("https://x.com/p", tc.res, tc.schemaRequested); !errors.Is(err, ErrNoContent) {
				t.Fatalf("Normalize() error = %v, want ErrNoContent", err)
			}
		})
	}
}

// TestNormalizeStructuredPayload checks the schema-driven payload alone
// is enough to produce a draft.
func TestNormalizeStructuredPayload(t *testing.T) {
	t.Parallel()

	res := &ExtractResult{StructuredData: map[string]any{"summary": "short"}}
	draft, err := Normalize("https://arxiv.org/abs/1", res, true)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if draft.ExtractedData["summary"] != "short" {
		t.Fatalf("ExtractedData = %+v", draft.ExtractedData)
	}
	if draft.ContentType != TypeResearchPaper {
		t.Fatalf("ContentType = %q, want %q", draft.ContentType, TypeResearchPaper)
	}
}
