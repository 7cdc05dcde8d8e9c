package iocache

import (
	"context"

	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetReviewStore implements the StoreManager interface.
func (m *MockStoreManager) GetReviewStore() contract.ReviewStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.ReviewStore)
	return store
}

// GetModelStore implements the StoreManager interface.
func (m *MockStoreManager) GetModelStore() contract.ModelStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.ModelStore)
	return store
}

// GetVerdictCache implements the StoreManager interface.
func (m *MockStoreManager) GetVerdictCache() contract.CacheStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.CacheStore)
	return store
}

// MockReviewStore is a mock implementation of ReviewStore for testing.
type MockReviewStore struct {
	mock.Mock
}

var _ contract.ReviewStore = &MockReviewStore{} // Compile-time check

// FetchComments implements the ReviewStore interface.
func (m *MockReviewStore) FetchComments(ctx context.Context) ([]schema.CommentRecord, error) {
	args := m.Called(ctx)
	comments, _ := args.Get(0).([]schema.CommentRecord)
	return comments, args.Error(1)
}

// FetchFeedback implements the ReviewStore interface.
func (m *MockReviewStore) FetchFeedback(ctx context.Context) ([]schema.FeedbackRecord, error) {
	args := m.Called(ctx)
	feedback, _ := args.Get(0).([]schema.FeedbackRecord)
	return feedback, args.Error(1)
}

// AddComment implements the ReviewStore interface.
func (m *MockReviewStore) AddComment(ctx context.Context, text string, rating *float64, userID *int64) (int64, error) {
	args := m.Called(ctx, text, rating, userID)
	id, _ := args.Get(0).(int64)
	return id, args.Error(1)
}

// AddFeedback implements the ReviewStore interface.
func (m *MockReviewStore) AddFeedback(ctx context.Context, commentID int64, importance, quality float64) error {
	args := m.Called(ctx, commentID, importance, quality)
	return args.Error(0)
}

// GetStatus implements the ReviewStore interface.
func (m *MockReviewStore) GetStatus() (schema.ReviewStatus, error) {
	args := m.Called()
	status, _ := args.Get(0).(schema.ReviewStatus)
	return status, args.Error(1)
}

// Close implements the ReviewStore interface.
func (m *MockReviewStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockModelStore is a mock implementation of ModelStore for testing.
type MockModelStore struct {
	mock.Mock
}

var _ contract.ModelStore = &MockModelStore{} // Compile-time check

// Save implements the ModelStore interface.
func (m *MockModelStore) Save(ctx context.Context, name string, payload []byte) (schema.ModelVersion, error) {
	args := m.Called(ctx, name, payload)
	meta, _ := args.Get(0).(schema.ModelVersion)
	return meta, args.Error(1)
}

// Load implements the ModelStore interface.
func (m *MockModelStore) Load(ctx context.Context, name string) ([]byte, schema.ModelVersion, error) {
	args := m.Called(ctx, name)
	payload, _ := args.Get(0).([]byte)
	meta, _ := args.Get(1).(schema.ModelVersion)
	return payload, meta, args.Error(2)
}

// LoadVersion implements the ModelStore interface.
func (m *MockModelStore) LoadVersion(ctx context.Context, name string, version int) ([]byte, schema.ModelVersion, error) {
	args := m.Called(ctx, name, version)
	payload, _ := args.Get(0).([]byte)
	meta, _ := args.Get(1).(schema.ModelVersion)
	return payload, meta, args.Error(2)
}

// List implements the ModelStore interface.
func (m *MockModelStore) List(ctx context.Context, name string) ([]schema.ModelVersion, error) {
	args := m.Called(ctx, name)
	versions, _ := args.Get(0).([]schema.ModelVersion)
	return versions, args.Error(1)
}

// Prune implements the ModelStore interface.
func (m *MockModelStore) Prune(ctx context.Context, name string, keep int) (int, error) {
	args := m.Called(ctx, name, keep)
	return args.Int(0), args.Error(1)
}

// GetStatus implements the ModelStore interface.
func (m *MockModelStore) GetStatus(ctx context.Context, name string) (schema.ModelStoreStatus, error) {
	args := m.Called(ctx, name)
	status, _ := args.Get(0).(schema.ModelStoreStatus)
	return status, args.Error(1)
}

// Close implements the ModelStore interface.
func (m *MockModelStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ contract.CacheStore = &MockCacheStore{} // Compile-time check

// Get implements the CacheStore interface.
func (m *MockCacheStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	ts, _ := args.Get(2).(int64)
	return data, args.Int(1), ts, args.Error(3)
}

// Set implements the CacheStore interface.
func (m *MockCacheStore) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// GetStatus implements the CacheStore interface.
func (m *MockCacheStore) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	status, _ := args.Get(0).(schema.CacheStatus)
	return status, args.Error(1)
}

// Close implements the CacheStore interface.
func (m *MockCacheStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
