package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"nhbrcforms/domain/province"
	"nhbrcforms/domain/submission"
)

// MockCounterStore implements CounterStore for testing
type MockCounterStore struct {
	mock.Mock
}

func (m *MockCounterStore) Load(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCounterStore) Save(ctx context.Context, value int64) error {
	args := m.Called(ctx, value)
	return args.Error(0)
}

// MockSubmissionRepository implements SubmissionRepository for testing
type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) Save(ctx context.Context, result *submission.Result) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockSubmissionRepository) GetByReference(ctx context.Context, ref submission.ReferenceNumber) (*submission.Result, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*submission.Result), args.Error(1)
}

func (m *MockSubmissionRepository) ListRecent(ctx context.Context, limit int) ([]*submission.Result, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*submission.Result), args.Error(1)
}

// MockProvinceResolver implements ProvinceResolver for testing
type MockProvinceResolver struct {
	mock.Mock
}

func (m *MockProvinceResolver) Resolve(name string) (province.Target, error) {
	args := m.Called(name)
	return args.Get(0).(province.Target), args.Error(1)
}
