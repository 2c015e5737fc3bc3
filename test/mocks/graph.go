package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"nhbrcforms/domain/contracts"
)

// MockGraphConnector implements GraphConnector for testing
type MockGraphConnector struct {
	mock.Mock
}

func (m *MockGraphConnector) Acquire(ctx context.Context) (contracts.GraphSession, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(contracts.GraphSession), args.Error(1)
}

// MockGraphSession implements GraphSession for testing.
// UploadFile drains content before recording the call so that callers
// exercise their file handles the way a real upload would.
type MockGraphSession struct {
	mock.Mock
}

func (m *MockGraphSession) ResolveSiteID(ctx context.Context, siteURL string) (string, error) {
	args := m.Called(ctx, siteURL)
	return args.String(0), args.Error(1)
}

func (m *MockGraphSession) EnsureFolder(ctx context.Context, siteID, parentPath, folderName string) (string, error) {
	args := m.Called(ctx, siteID, parentPath, folderName)
	return args.String(0), args.Error(1)
}

func (m *MockGraphSession) UploadFile(ctx context.Context, siteID, folderPath, fileName string, content io.Reader, size int64) (*contracts.DriveItem, error) {
	if content != nil {
		_, _ = io.Copy(io.Discard, content)
	}
	args := m.Called(ctx, siteID, folderPath, fileName, content, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contracts.DriveItem), args.Error(1)
}

func (m *MockGraphSession) FindList(ctx context.Context, siteID, internalName string) (*contracts.SharePointList, error) {
	args := m.Called(ctx, siteID, internalName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contracts.SharePointList), args.Error(1)
}

func (m *MockGraphSession) CreateListItem(ctx context.Context, siteID, listID string, fields map[string]any) (string, error) {
	args := m.Called(ctx, siteID, listID, fields)
	return args.String(0), args.Error(1)
}
