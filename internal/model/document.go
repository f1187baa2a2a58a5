package model

import "time"

// Document represents an uploaded image and its OCR extraction.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
//
// OcrResult is nil when OCR was not run or failed under the degrade policy.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ImagePath string    `json:"image_path"`
	OcrResult *string   `json:"ocr_result"`
	CreatedAt time.Time `json:"created_at"`
}
