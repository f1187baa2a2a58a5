package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/RickCarlino/mistral-ocr-frontend/internal/config"
	"github.com/RickCarlino/mistral-ocr-frontend/internal/model"
	"github.com/RickCarlino/mistral-ocr-frontend/internal/ocr"
	ocrMocks "github.com/RickCarlino/mistral-ocr-frontend/internal/ocr/mocks"
	"github.com/RickCarlino/mistral-ocr-frontend/internal/repository"
	repoMocks "github.com/RickCarlino/mistral-ocr-frontend/internal/repository/mocks"
	"github.com/RickCarlino/mistral-ocr-frontend/internal/storage"
	storeMocks "github.com/RickCarlino/mistral-ocr-frontend/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestDocumentService_Upload(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		policy     string
		input      UploadInput
		setupMocks func(mStore *storeMocks.MockStorage, mOCR *ocrMocks.MockClient, mRepo *repoMocks.MockDocumentRepository)
		wantErr    error
		wantErrMsg string
		checkDoc   func(t *testing.T, doc *model.Document)
	}{
		{
			name: "happy path with two page ocr result",
			input: UploadInput{
				Title:            "Receipt",
				Reader:           strings.NewReader("img-bytes"),
				OriginalFilename: "scan.png",
				ContentType:      "image/png",
				Size:             9,
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mOCR *ocrMocks.MockClient, mRepo *repoMocks.MockDocumentRepository) {
				mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "uploads/") && strings.HasSuffix(key, ".png")
				}), mock.Anything, storage.PutObjectOptions{
					Size:        9,
					ContentType: "image/png",
					Metadata:    map[string]string{"original-filename": "scan.png"},
				}).Return(storage.ObjectInfo{Key: "uploads/uuid.png"}, nil)

				mStore.On("PresignGet", ctx, mock.Anything, mock.Anything).
					Return("https://store.example/uploads/uuid.png", nil)

				mOCR.On("Process", ctx, "https://store.example/uploads/uuid.png").
					Return(&ocr.Response{Pages: []ocr.Page{
						{Index: 0, Markdown: "A"},
						{Index: 1, Markdown: "B"},
					}}, nil)

				mRepo.On("Create", ctx, mock.MatchedBy(func(doc *model.Document) bool {
					return doc.Title == "Receipt" &&
						doc.ImagePath == "https://store.example/uploads/uuid.png" &&
						doc.OcrResult != nil && *doc.OcrResult == "A\n---\nB" &&
						doc.ID != "" && !doc.CreatedAt.IsZero()
				})).Return(func(ctx context.Context, doc *model.Document) *model.Document {
					return doc
				}, nil)
			},
			checkDoc: func(t *testing.T, doc *model.Document) {
				assert.Equal(t, "A\n---\nB", *doc.OcrResult)
			},
		},
		{
			name: "validation error - empty title performs no io",
			input: UploadInput{
				Title:  "   ",
				Reader: strings.NewReader("img"),
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mOCR *ocrMocks.MockClient, mRepo *repoMocks.MockDocumentRepository) {},
			wantErr:    ErrTitleRequired,
		},
		{
			name: "validation error - nil reader performs no io",
			input: UploadInput{
				Title: "Receipt",
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mOCR *ocrMocks.MockClient, mRepo *repoMocks.MockDocumentRepository) {},
			wantErr:    ErrImageRequired,
		},
		{
			name: "storage error aborts before ocr",
			input: UploadInput{
				Title:            "Receipt",
				Reader:           strings.NewReader("img"),
				OriginalFilename: "scan.png",
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mOCR *ocrMocks.MockClient, mRepo *repoMocks.MockDocumentRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("storage fail"))
			},
			wantErrMsg: "store image: storage fail",
		},
		{
			name: "presign error rolls back stored object",
			input: UploadInput{
				Title:            "Receipt",
				Reader:           strings.NewReader("img"),
				OriginalFilename: "scan.png",
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mOCR *ocrMocks.MockClient, mRepo *repoMocks.MockDocumentRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, nil)
				mStore.On("PresignGet", ctx, mock.Anything, mock.Anything).
					Return("", errors.New("presign fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(nil)
			},
			wantErrMsg: "presign image: presign fail",
		},
		{
			name:   "ocr failure under degrade policy persists nil result",
			policy: config.OCRPolicyDegrade,
			input: UploadInput{
				Title:            "Receipt",
				Reader:           strings.NewReader("img"),
				OriginalFilename: "scan.png",
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mOCR *ocrMocks.MockClient, mRepo *repoMocks.MockDocumentRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, nil)
				mStore.On("PresignGet", ctx, mock.Anything, mock.Anything).
					Return("https://store.example/img.png", nil)
				mOCR.On("Process", ctx, mock.Anything).
					Return(nil, &ocr.ProviderError{StatusCode: 500, Message: "provider down"})
				mRepo.On("Create", ctx, mock.MatchedBy(func(doc *model.Document) bool {
					return doc.OcrResult == nil
				})).Return(func(ctx context.Context, doc *model.Document) *model.Document {
					return doc
				}, nil)
			},
			checkDoc: func(t *testing.T, doc *model.Document) {
				assert.Nil(t, doc.OcrResult)
			},
		},
		{
			name:   "ocr failure under abort policy fails and cleans up",
			policy: config.OCRPolicyAbort,
			input: UploadInput{
				Title:            "Receipt",
				Reader:           strings.NewReader("img"),
				OriginalFilename: "scan.png",
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mOCR *ocrMocks.MockClient, mRepo *repoMocks.MockDocumentRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, nil)
				mStore.On("PresignGet", ctx, mock.Anything, mock.Anything).
					Return("https://store.example/img.png", nil)
				mOCR.On("Process", ctx, mock.Anything).
					Return(nil, &ocr.ProviderError{StatusCode: 500, Message: "provider down"})
				mStore.On("Delete", ctx, mock.Anything).Return(nil)
				// No Create expectation: nothing must be persisted.
			},
			wantErrMsg: "ocr: ocr provider returned status 500",
		},
		{
			name: "repository error with successful rollback",
			input: UploadInput{
				Title:            "Receipt",
				Reader:           strings.NewReader("img"),
				OriginalFilename: "scan.png",
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mOCR *ocrMocks.MockClient, mRepo *repoMocks.MockDocumentRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, nil)
				mStore.On("PresignGet", ctx, mock.Anything, mock.Anything).
					Return("https://store.example/img.png", nil)
				mOCR.On("Process", ctx, mock.Anything).
					Return(&ocr.Response{Pages: []ocr.Page{{Index: 0, Markdown: "A"}}}, nil)
				mRepo.On("Create", ctx, mock.Anything).
					Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(nil)
			},
			wantErrMsg: "db save failed: db fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mOCR := new(ocrMocks.MockClient)
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := NewDocumentService(mStore, mOCR, mRepo, Options{FailurePolicy: tt.policy})

			tt.setupMocks(mStore, mOCR, mRepo)

			doc, err := svc.Upload(ctx, tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else if tt.wantErrMsg != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, doc)
				if tt.checkDoc != nil {
					tt.checkDoc(t, doc)
				}
			}

			mStore.AssertExpectations(t)
			mOCR.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Upload_UniqueIDs(t *testing.T) {
	ctx := context.Background()

	mStore := new(storeMocks.MockStorage)
	mOCR := new(ocrMocks.MockClient)
	mRepo := new(repoMocks.MockDocumentRepository)
	svc := NewDocumentService(mStore, mOCR, mRepo, Options{})

	mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{}, nil)
	mStore.On("PresignGet", ctx, mock.Anything, mock.Anything).
		Return("https://store.example/img.png", nil)
	mOCR.On("Process", ctx, mock.Anything).
		Return(&ocr.Response{Pages: []ocr.Page{{Index: 0, Markdown: "x"}}}, nil)
	mRepo.On("Create", ctx, mock.Anything).
		Return(func(ctx context.Context, doc *model.Document) *model.Document {
			return doc
		}, nil)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		doc, err := svc.Upload(ctx, UploadInput{
			Title:            "Receipt",
			Reader:           strings.NewReader("img"),
			OriginalFilename: "scan.png",
		})
		assert.NoError(t, err)
		assert.False(t, seen[doc.ID], "id %s reused", doc.ID)
		seen[doc.ID] = true
	}
}

func TestDocumentService_List(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		limit      int
		offset     int
		setupMocks func(mRepo *repoMocks.MockDocumentRepository)
		wantErr    error
		checkRes   func(t *testing.T, res *DocumentListResult)
	}{
		{
			name:   "happy path",
			limit:  10,
			offset: 0,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 0}).
					Return(&repository.PageResult[model.Document]{
						Items: []model.Document{{ID: "1"}, {ID: "2"}},
						Total: 2,
					}, nil)
			},
			checkRes: func(t *testing.T, res *DocumentListResult) {
				assert.Equal(t, 2, len(res.Items))
				assert.Equal(t, 2, res.Total)
			},
		},
		{
			name:   "pagination boundary - zero limit uses default",
			limit:  0,
			offset: -1,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 0}).
					Return(&repository.PageResult[model.Document]{Items: []model.Document{}, Total: 0}, nil)
			},
		},
		{
			name:  "repository error",
			limit: 10,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("List", ctx, mock.Anything).Return(nil, errors.New("db fail"))
			},
			wantErr: errors.New("db fail"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := NewDocumentService(nil, nil, mRepo, Options{})

			tt.setupMocks(mRepo)

			res, err := svc.List(ctx, tt.limit, tt.offset)

			if tt.wantErr != nil {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				if tt.checkRes != nil {
					tt.checkRes(t, res)
				}
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		setupMocks func(mRepo *repoMocks.MockDocumentRepository)
		wantErr    error
	}{
		{
			name: "happy path",
			id:   "valid-id",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "valid-id").Return(&model.Document{ID: "valid-id"}, nil)
			},
		},
		{
			name:       "validation - empty id",
			id:         "",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {},
			wantErr:    ErrIDRequired,
		},
		{
			name: "not found - mapping sql.ErrNoRows",
			id:   "missing-id",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "missing-id").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "generic repository error",
			id:   "error-id",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "error-id").Return(nil, errors.New("db fail"))
			},
			wantErr: errors.New("db fail"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := NewDocumentService(nil, nil, mRepo, Options{})

			tt.setupMocks(mRepo)

			doc, err := svc.Get(ctx, tt.id)

			if tt.wantErr != nil {
				if errors.Is(tt.wantErr, ErrIDRequired) || errors.Is(tt.wantErr, ErrNotFound) {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.Error(t, err)
				}
				assert.Nil(t, doc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, doc)
				assert.Equal(t, tt.id, doc.ID)
			}
			mRepo.AssertExpectations(t)
		})
	}
}
