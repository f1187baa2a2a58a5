package ocr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseMarkdown(t *testing.T) {
	tests := []struct {
		name string
		resp Response
		want string
	}{
		{
			name: "two pages joined with delimiter",
			resp: Response{Pages: []Page{
				{Index: 0, Markdown: "A"},
				{Index: 1, Markdown: "B"},
			}},
			want: "A\n---\nB",
		},
		{
			name: "pages sorted by index",
			resp: Response{Pages: []Page{
				{Index: 2, Markdown: "third"},
				{Index: 0, Markdown: "first"},
				{Index: 1, Markdown: "second"},
			}},
			want: "first\n---\nsecond\n---\nthird",
		},
		{
			name: "single page",
			resp: Response{Pages: []Page{{Index: 0, Markdown: "# Title"}}},
			want: "# Title",
		},
		{
			name: "no pages falls back to raw payload in code block",
			resp: Response{Raw: json.RawMessage(`{"text":"unstructured"}`)},
			want: "```json\n{\"text\":\"unstructured\"}\n```",
		},
		{
			name: "empty response",
			resp: Response{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.resp.Markdown())
		})
	}
}

func TestProviderError(t *testing.T) {
	err := &ProviderError{StatusCode: 429, Message: "rate limited"}
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
}
