package iocache

import (
	"database/sql"
	"testing"

	"github.com/GarnettJZ/makan-apa/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMocks(t *testing.T) {
	store := &MockCacheStore{}
	store.On("Get", "k").Return(nil, 0, int64(0), sql.ErrNoRows)
	store.On("Set", "k", []byte("v"), 1, int64(5)).Return(nil)
	store.On("GetStatus").Return(schema.CacheStatus{Backend: "sqlite"}, nil)
	store.On("Close").Return(nil)

	mgr := &MockCacheManager{}
	mgr.On("GetTimetableStore").Return(store)

	got := mgr.GetTimetableStore()
	_, _, _, err := got.Get("k")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, got.Set("k", []byte("v"), 1, 5))
	status, err := got.GetStatus()
	assert.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.NoError(t, got.Close())

	store.AssertExpectations(t)
	mgr.AssertExpectations(t)
	store.AssertCalled(t, "Set", "k", mock.Anything, 1, int64(5))
}
