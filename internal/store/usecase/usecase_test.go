package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/memorytest"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/store"
	"github.com/fekuna/omnipos-stock-service/internal/store/dto"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newUseCase(t *testing.T) (*storeUseCase, *memorytest.DB) {
	t.Helper()
	db := memorytest.NewDB()
	db.PutStore(model.Store{BaseModel: model.BaseModel{ID: "s1"}, Name: "North", Address: "1 Main St", ManagerID: "mgr", IsActive: true})
	db.PutStore(model.Store{BaseModel: model.BaseModel{ID: "s2"}, Name: "South", ManagerID: "other", IsActive: true})
	db.PutStore(model.Store{BaseModel: model.BaseModel{ID: "s3"}, Name: "Closed", ManagerID: "mgr", IsActive: false})
	uc := NewStoreUseCase(db.StoreRepo(), logger.NewNop()).(*storeUseCase)
	uc.now = func() time.Time { return fixedNow }
	return uc, db
}

func strPtr(s string) *string { return &s }

func TestCreateStore(t *testing.T) {
	uc, db := newUseCase(t)

	s, err := uc.CreateStore(context.Background(), &dto.CreateStoreInput{
		ManagerID: "mgr",
		Name:      " East ",
		Address:   "3 Side St",
		Location:  &model.GeoPoint{Longitude: -73.98, Latitude: 40.75},
	})
	require.NoError(t, err)

	assert.Equal(t, "East", s.Name)
	assert.Equal(t, "mgr", s.ManagerID)
	assert.True(t, s.IsActive)
	assert.Equal(t, fixedNow, s.CreatedAt)

	stored, ok := db.Store(s.ID)
	require.True(t, ok)
	assert.Equal(t, -73.98, stored.Location.Longitude)
}

func TestCreateStore_RequiresFields(t *testing.T) {
	uc, _ := newUseCase(t)
	loc := &model.GeoPoint{}

	cases := []*dto.CreateStoreInput{
		{ManagerID: "mgr", Address: "x", Location: loc},
		{ManagerID: "mgr", Name: "x", Location: loc},
		{ManagerID: "mgr", Name: "x", Address: "x"},
		{Name: "x", Address: "x", Location: loc},
	}
	for _, in := range cases {
		_, err := uc.CreateStore(context.Background(), in)
		assert.ErrorIs(t, err, store.ErrInvalidInput)
	}
}

func TestListStores_ScopedByRole(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	mine, err := uc.ListStores(ctx, auth.UserContext{UserID: "mgr", Role: auth.RoleManager})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "s1", mine[0].ID)

	all, err := uc.ListStores(ctx, auth.UserContext{UserID: "cust", Role: auth.RoleCustomer})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetStore_HidesInactive(t *testing.T) {
	uc, _ := newUseCase(t)

	_, err := uc.GetStore(context.Background(), "s3")
	assert.ErrorIs(t, err, store.ErrNotFound)

	s, err := uc.GetStore(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "North", s.Name)
}

func TestUpdateStore(t *testing.T) {
	uc, db := newUseCase(t)

	s, err := uc.UpdateStore(context.Background(), &dto.UpdateStoreInput{
		ManagerID: "mgr", StoreID: "s1", Name: strPtr("North Branch"), Address: strPtr("  "),
		Location: &model.GeoPoint{Longitude: 1, Latitude: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "North Branch", s.Name)
	assert.Equal(t, "1 Main St", s.Address)

	stored, _ := db.Store("s1")
	assert.Equal(t, "North Branch", stored.Name)
	assert.Equal(t, model.GeoPoint{Longitude: 1, Latitude: 2}, stored.Location)
	assert.Equal(t, "mgr", stored.ManagerID)

	_, err = uc.UpdateStore(context.Background(), &dto.UpdateStoreInput{ManagerID: "mgr", StoreID: "s2", Name: strPtr("x")})
	assert.ErrorIs(t, err, store.ErrForbidden)

	_, err = uc.UpdateStore(context.Background(), &dto.UpdateStoreInput{ManagerID: "mgr", StoreID: "nope"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeactivateStore(t *testing.T) {
	uc, db := newUseCase(t)

	assert.ErrorIs(t, uc.DeactivateStore(context.Background(), "mgr", "s2"), store.ErrForbidden)
	require.NoError(t, uc.DeactivateStore(context.Background(), "mgr", "s1"))

	stored, _ := db.Store("s1")
	assert.False(t, stored.IsActive)
}

func TestCreateStore_RepositoryError(t *testing.T) {
	uc, db := newUseCase(t)
	db.SetHook(func(op string, arg interface{}) error {
		if op == "stores.Create" {
			return errors.New("db down")
		}
		return nil
	})

	_, err := uc.CreateStore(context.Background(), &dto.CreateStoreInput{
		ManagerID: "mgr", Name: "x", Address: "y", Location: &model.GeoPoint{},
	})
	assert.EqualError(t, err, "db down")
}
