package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RickCarlino/mistral-ocr-frontend/internal/config"
	"github.com/RickCarlino/mistral-ocr-frontend/internal/model"
	"github.com/RickCarlino/mistral-ocr-frontend/internal/ocr"
	"github.com/RickCarlino/mistral-ocr-frontend/internal/repository"
	"github.com/RickCarlino/mistral-ocr-frontend/internal/storage"
)

var (
	ErrTitleRequired = errors.New("title is required")
	ErrImageRequired = errors.New("image is required")
	ErrIDRequired    = errors.New("id is required")
	ErrNotFound      = errors.New("document not found")
)

// UploadInput carries the multipart form fields into the pipeline.
type UploadInput struct {
	Title            string
	Reader           io.Reader
	OriginalFilename string
	ContentType      string
	Size             int64
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload stores the image, runs it through OCR, and persists the document.
	// The steps are strictly sequential: store -> reference -> OCR -> persist.
	Upload(ctx context.Context, in UploadInput) (*model.Document, error)

	// List returns documents newest first using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*DocumentListResult, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)
}

// Options tune pipeline behavior per deployment.
type Options struct {
	// FailurePolicy is config.OCRPolicyDegrade or config.OCRPolicyAbort and is
	// applied uniformly to every upload.
	FailurePolicy string
	// PresignExpiry bounds how long the image reference stays fetchable by the
	// OCR provider. Ignored by the local storage backend.
	PresignExpiry time.Duration
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store storage.Storage
	ocr   ocr.Client
	repo  repository.DocumentRepository
	opts  Options
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, ocrClient ocr.Client, repo repository.DocumentRepository, opts Options) DocumentService {
	if opts.FailurePolicy == "" {
		opts.FailurePolicy = config.OCRPolicyDegrade
	}
	if opts.PresignExpiry <= 0 {
		opts.PresignExpiry = time.Hour
	}
	return &documentService{store: store, ocr: ocrClient, repo: repo, opts: opts}
}

func (s *documentService) Upload(ctx context.Context, in UploadInput) (*model.Document, error) {
	// Validation happens before any I/O.
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if in.Reader == nil {
		return nil, ErrImageRequired
	}

	// Generate object key using UUID + original extension so the stored file
	// keeps a renderable media type. UUIDs make key collisions structurally
	// impossible within a deployment.
	ext := filepath.Ext(in.OriginalFilename)
	key := filepath.ToSlash(filepath.Join("uploads", uuid.New().String()+ext))

	// Upload to blob storage.
	if _, err := s.store.Put(ctx, key, in.Reader, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: in.ContentType,
		Metadata: map[string]string{
			"original-filename": in.OriginalFilename,
		},
	}); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	// The reference doubles as the persisted image path and the URL the OCR
	// provider fetches: a presigned URL for object storage, a public path for
	// the local backend.
	imagePath, err := s.store.PresignGet(ctx, key, s.opts.PresignExpiry)
	if err != nil {
		s.rollbackObject(ctx, key)
		return nil, fmt.Errorf("presign image: %w", err)
	}

	ocrResult, err := s.runOCR(ctx, key, imagePath)
	if err != nil {
		return nil, err
	}

	doc := &model.Document{
		ID:        uuid.New().String(),
		Title:     title,
		ImagePath: imagePath,
		OcrResult: ocrResult,
		CreatedAt: time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// Rollback: delete the object from storage
		s.rollbackObject(ctx, key)
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// runOCR invokes the provider and applies the deployment's failure policy.
// Under degrade a provider failure is logged and the document proceeds with a
// nil result; under abort the stored blob is cleaned up and the upload fails.
func (s *documentService) runOCR(ctx context.Context, key, imageURL string) (*string, error) {
	resp, err := s.ocr.Process(ctx, imageURL)
	if err != nil {
		logPipelineError("ocr_failed", key, err)
		if s.opts.FailurePolicy == config.OCRPolicyAbort {
			s.rollbackObject(ctx, key)
			return nil, fmt.Errorf("ocr: %w", err)
		}
		return nil, nil
	}
	md := resp.Markdown()
	return &md, nil
}

// rollbackObject removes a stored blob best-effort; an orphan is preferable to
// failing the caller twice.
func (s *documentService) rollbackObject(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		logPipelineError("rollback_delete_failed", key, err)
	}
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func logPipelineError(event, key string, err error) {
	entry := map[string]any{
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"level":     "error",
		"component": "upload_pipeline",
		"event":     event,
		"key":       key,
		"error":     err.Error(),
	}
	if b, mErr := json.Marshal(entry); mErr == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
