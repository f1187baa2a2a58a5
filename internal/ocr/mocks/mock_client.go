package mocks

import (
	"context"

	"github.com/RickCarlino/mistral-ocr-frontend/internal/ocr"
	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Process(ctx context.Context, imageURL string) (*ocr.Response, error) {
	args := m.Called(ctx, imageURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ocr.Response), args.Error(1)
}
