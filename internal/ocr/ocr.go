package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Package ocr contains the gateway to the external OCR provider. The gateway
// is given a URL the provider can fetch (a presigned object-store URL or a
// publicly served path) and returns a page-structured result. It never touches
// the document repository.

// Client is the OCR dependency injected into the upload pipeline.
type Client interface {
	// Process runs OCR against the image reachable at imageURL.
	Process(ctx context.Context, imageURL string) (*Response, error)
}

// Page is a single page of the provider's result.
type Page struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

// Response is the provider's OCR result. Raw holds the full response body so
// nothing is discarded even when the paginated structure is absent.
type Response struct {
	Pages []Page          `json:"pages"`
	Model string          `json:"model"`
	Raw   json.RawMessage `json:"-"`
}

// Markdown flattens the response into a single markdown string. Pages are
// concatenated in page order separated by a "---" delimiter line. When the
// provider returned no page structure, the raw payload is embedded in a fenced
// code block so the response survives losslessly.
func (r *Response) Markdown() string {
	if len(r.Pages) > 0 {
		pages := make([]Page, len(r.Pages))
		copy(pages, r.Pages)
		sort.SliceStable(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })

		parts := make([]string, len(pages))
		for i, p := range pages {
			parts[i] = p.Markdown
		}
		return strings.Join(parts, "\n---\n")
	}
	if len(r.Raw) > 0 {
		return "```json\n" + string(r.Raw) + "\n```"
	}
	return ""
}

// ProviderError reports a non-success response from the OCR provider.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("ocr provider returned status %d: %s", e.StatusCode, e.Message)
}
