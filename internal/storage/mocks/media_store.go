package mocks

import (
	"context"

	"viewtube-server/internal/storage"

	"github.com/stretchr/testify/mock"
)

// Mock MediaStore
type MediaStore struct {
	mock.Mock
}

func (m *MediaStore) Store(ctx context.Context, up storage.Upload) (string, error) {
	args := m.Called(ctx, up)
	return args.String(0), args.Error(1)
}
