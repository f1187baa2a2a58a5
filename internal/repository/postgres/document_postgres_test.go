package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/RickCarlino/mistral-ocr-frontend/internal/model"
	"github.com/RickCarlino/mistral-ocr-frontend/internal/repository"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

var docColumns = []string{"id", "title", "image_path", "ocr_result", "created_at"}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	ocrText := "# Receipt\n---\nTotal: 42"
	doc := &model.Document{
		ID:        "test-uuid",
		Title:     "Grocery receipt",
		ImagePath: "/uploads/test-uuid.png",
		OcrResult: &ocrText,
		CreatedAt: now,
	}

	t.Run("with ocr result", func(t *testing.T) {
		rows := sqlmock.NewRows(docColumns).
			AddRow(doc.ID, doc.Title, doc.ImagePath, doc.OcrResult, doc.CreatedAt)

		mock.ExpectQuery("INSERT INTO documents").
			WithArgs(doc.ID, doc.Title, doc.ImagePath, doc.OcrResult, doc.CreatedAt).
			WillReturnRows(rows)

		result, err := repo.Create(ctx, doc)

		assert.NoError(t, err)
		assert.NotNil(t, result)
		assert.Equal(t, doc.ID, result.ID)
		assert.Equal(t, &ocrText, result.OcrResult)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("with null ocr result", func(t *testing.T) {
		nullDoc := &model.Document{
			ID:        "null-uuid",
			Title:     "No OCR",
			ImagePath: "/uploads/null-uuid.png",
			OcrResult: nil,
			CreatedAt: now,
		}
		rows := sqlmock.NewRows(docColumns).
			AddRow(nullDoc.ID, nullDoc.Title, nullDoc.ImagePath, nil, nullDoc.CreatedAt)

		mock.ExpectQuery("INSERT INTO documents").
			WithArgs(nullDoc.ID, nullDoc.Title, nullDoc.ImagePath, nil, nullDoc.CreatedAt).
			WillReturnRows(rows)

		result, err := repo.Create(ctx, nullDoc)

		assert.NoError(t, err)
		assert.NotNil(t, result)
		assert.Nil(t, result.OcrResult)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(docColumns).
			AddRow("test-id", "A title", "/uploads/file.png", nil, time.Now())

		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("test-id").
			WillReturnRows(rows)

		doc, err := repo.FindByID(ctx, "test-id")

		assert.NoError(t, err)
		assert.NotNil(t, doc)
		assert.Equal(t, "test-id", doc.ID)
		assert.Nil(t, doc.OcrResult)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		doc, err := repo.FindByID(ctx, "missing")

		assert.Error(t, err)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, doc)
	})
}

func TestDocumentPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		// Rows come back newest first
		rows := sqlmock.NewRows(docColumns).
			AddRow("second-id", "Second", "/uploads/second.png", nil, time.Now()).
			AddRow("first-id", "First", "/uploads/first.png", nil, time.Now().Add(-time.Minute))

		mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY created_at DESC, seq DESC").
			WithArgs(10, 0).
			WillReturnRows(rows)

		res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: 0})

		assert.NoError(t, err)
		assert.Equal(t, 2, res.Total)
		assert.Len(t, res.Items, 2)
		assert.Equal(t, "second-id", res.Items[0].ID)
		assert.Equal(t, "first-id", res.Items[1].ID)
	})

	t.Run("empty", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY created_at DESC, seq DESC").
			WithArgs(10, 0).
			WillReturnRows(sqlmock.NewRows(docColumns))

		res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: 0})

		assert.NoError(t, err)
		assert.Equal(t, 0, res.Total)
		assert.Len(t, res.Items, 0)
	})
}
