package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/coltrade/backend/internal/infrastructure/storage"
)

type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Archive(ctx context.Context, name, contentType string, data []byte) (*storage.ArchivedObject, error) {
	args := m.Called(ctx, name, contentType, data)
	obj, _ := args.Get(0).(*storage.ArchivedObject)
	return obj, args.Error(1)
}

func TestPublisher_WithoutArchive(t *testing.T) {
	p := NewPublisher(nil, nil)

	file := p.Publish(context.Background(), "a.json", ContentTypeJSON, []byte("[]"))
	require.NotNil(t, file)
	assert.Equal(t, "a.json", file.Name)
	assert.Equal(t, ContentTypeJSON, file.ContentType)
	assert.Equal(t, []byte("[]"), file.Data)
	assert.Empty(t, file.ArchiveURL)
}

func TestPublisher_ArchivedURL(t *testing.T) {
	archive := new(MockArchive)
	data := []byte("xlsx")
	archive.On("Archive", mock.Anything, "b.xlsx", ContentTypeXLSX, data).
		Return(&storage.ArchivedObject{Key: "exports/b.xlsx", URL: "https://bucket/b.xlsx"}, nil)

	file := NewPublisher(archive, nil).Publish(context.Background(), "b.xlsx", ContentTypeXLSX, data)
	assert.Equal(t, "https://bucket/b.xlsx", file.ArchiveURL)
	archive.AssertExpectations(t)
}

func TestPublisher_ArchiveFailureKeepsDownload(t *testing.T) {
	archive := new(MockArchive)
	archive.On("Archive", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("bucket unreachable"))

	file := NewPublisher(archive, nil).Publish(context.Background(), "c.xlsx", ContentTypeXLSX, []byte("x"))
	require.NotNil(t, file)
	assert.Equal(t, []byte("x"), file.Data)
	assert.Empty(t, file.ArchiveURL)
}

func TestStampedName(t *testing.T) {
	at := time.Date(2025, 6, 15, 9, 30, 5, 0, time.UTC)
	assert.Equal(t, "ventas_20250615_093005.xlsx", StampedName("ventas", "xlsx", at))
}
