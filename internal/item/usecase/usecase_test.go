package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/item"
	"github.com/fekuna/omnipos-stock-service/internal/item/dto"
	"github.com/fekuna/omnipos-stock-service/internal/memorytest"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var createdAt = time.UnixMilli(1741600123456)

func newUseCase(t *testing.T) (*itemUseCase, *memorytest.DB) {
	t.Helper()
	db := memorytest.NewDB()
	db.PutStore(model.Store{BaseModel: model.BaseModel{ID: "s1"}, Name: "Main Street", ManagerID: "mgr", IsActive: true})
	db.PutStore(model.Store{BaseModel: model.BaseModel{ID: "s2"}, Name: "Old Town", ManagerID: "mgr", IsActive: false})
	uc := NewItemUseCase(db.ItemRepo(), db.StoreRepo(), logger.NewNop()).(*itemUseCase)
	uc.now = func() time.Time { return createdAt }
	return uc, db
}

func intPtr(v int) *int { return &v }

func TestGenerateSKU(t *testing.T) {
	cases := []struct {
		store, item, want string
	}{
		{"Main Street", "Green Tea", "MAI-GRE-123456"},
		{"A B", "x y z", "AB-XYZ-123456"},
		{"café", "über", "CAF-ÜBE-123456"},
		{"  Lo", "Milk", "LO-MIL-123456"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, GenerateSKU(tc.store, tc.item, createdAt), tc.store+"/"+tc.item)
	}
}

func TestCreateItem_Defaults(t *testing.T) {
	uc, db := newUseCase(t)

	it, err := uc.CreateItem(context.Background(), &dto.CreateItemInput{
		ManagerID: "mgr", StoreID: "s1", Name: " Green Tea ", Price: 3.5, Description: "  ",
	})
	require.NoError(t, err)

	assert.Equal(t, "Green Tea", it.Name)
	assert.Equal(t, "MAI-GRE-123456", it.SKU)
	assert.Equal(t, 0, it.Quantity)
	assert.Equal(t, model.DefaultReorderThreshold, it.ReorderThreshold)
	assert.Nil(t, it.Description)
	assert.True(t, it.IsActive)

	stored, ok := db.Item(it.ID)
	require.True(t, ok)
	assert.Equal(t, it.SKU, stored.SKU)
}

func TestCreateItem_SKUCollisionBumpsTimestamp(t *testing.T) {
	uc, db := newUseCase(t)
	db.PutItem(model.Item{BaseModel: model.BaseModel{ID: "x"}, StoreID: "s1", SKU: "MAI-GRE-123456"})

	it, err := uc.CreateItem(context.Background(), &dto.CreateItemInput{ManagerID: "mgr", StoreID: "s1", Name: "Green Tea"})
	require.NoError(t, err)
	assert.Equal(t, "MAI-GRE-123457", it.SKU)
}

func TestCreateItem_Rejections(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input dto.CreateItemInput
		want  error
	}{
		{"other manager", dto.CreateItemInput{ManagerID: "someone", StoreID: "s1", Name: "x"}, item.ErrForbidden},
		{"missing store", dto.CreateItemInput{ManagerID: "mgr", StoreID: "nope", Name: "x"}, item.ErrStoreNotFound},
		{"inactive store", dto.CreateItemInput{ManagerID: "mgr", StoreID: "s2", Name: "x"}, item.ErrStoreNotFound},
		{"blank name", dto.CreateItemInput{ManagerID: "mgr", StoreID: "s1", Name: "  "}, item.ErrInvalidInput},
		{"negative price", dto.CreateItemInput{ManagerID: "mgr", StoreID: "s1", Name: "x", Price: -1}, item.ErrInvalidInput},
		{"negative quantity", dto.CreateItemInput{ManagerID: "mgr", StoreID: "s1", Name: "x", Quantity: intPtr(-1)}, item.ErrInvalidInput},
		{"negative threshold", dto.CreateItemInput{ManagerID: "mgr", StoreID: "s1", Name: "x", ReorderThreshold: intPtr(-2)}, item.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := tc.input
			_, err := uc.CreateItem(ctx, &in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func seedItem(db *memorytest.DB) {
	db.PutItem(model.Item{
		BaseModel: model.BaseModel{ID: "i1"}, StoreID: "s1", Name: "Milk", SKU: "MAI-MIL-000001",
		Quantity: 4, ReorderThreshold: 5, IsActive: true,
	})
}

func TestUpdateItem(t *testing.T) {
	uc, db := newUseCase(t)
	seedItem(db)
	name, price := "Oat Milk", 2.25

	it, err := uc.UpdateItem(context.Background(), &dto.UpdateItemInput{
		ManagerID: "mgr", ItemID: "i1", Name: &name, Price: &price, ReorderThreshold: intPtr(2),
	})
	require.NoError(t, err)
	assert.Equal(t, "Oat Milk", it.Name)
	assert.Equal(t, "MAI-MIL-000001", it.SKU)
	assert.Equal(t, 4, it.Quantity)
	assert.Equal(t, createdAt, it.UpdatedAt)

	stored, _ := db.Item("i1")
	assert.Equal(t, 2, stored.ReorderThreshold)

	_, err = uc.UpdateItem(context.Background(), &dto.UpdateItemInput{ManagerID: "other", ItemID: "i1", Name: &name})
	assert.ErrorIs(t, err, item.ErrForbidden)

	_, err = uc.UpdateItem(context.Background(), &dto.UpdateItemInput{ManagerID: "mgr", ItemID: "i1", Quantity: intPtr(-1)})
	assert.ErrorIs(t, err, item.ErrInvalidInput)
}

// reservingRepo simulates an order reservation landing between the read and the
// write of an update.
type reservingRepo struct {
	*memorytest.ItemRepo
	reserve map[string]int
}

func (r *reservingRepo) FindByID(ctx context.Context, id string) (*model.Item, error) {
	i, err := r.ItemRepo.FindByID(ctx, id)
	if err != nil || r.reserve == nil {
		return i, err
	}
	if err := r.ItemRepo.ReserveStock(ctx, r.reserve); err != nil {
		return nil, err
	}
	r.reserve = nil
	return i, nil
}

func TestUpdateItem_KeepsConcurrentStockChange(t *testing.T) {
	db := memorytest.NewDB()
	db.PutStore(model.Store{BaseModel: model.BaseModel{ID: "s1"}, Name: "Main Street", ManagerID: "mgr", IsActive: true})
	seedItem(db)
	repo := &reservingRepo{ItemRepo: db.ItemRepo(), reserve: map[string]int{"i1": 3}}
	uc := NewItemUseCase(repo, db.StoreRepo(), logger.NewNop())
	name := "Oat Milk"

	_, err := uc.UpdateItem(context.Background(), &dto.UpdateItemInput{ManagerID: "mgr", ItemID: "i1", Name: &name})
	require.NoError(t, err)

	stored, _ := db.Item("i1")
	assert.Equal(t, "Oat Milk", stored.Name)
	assert.Equal(t, 1, stored.Quantity)
}

func TestUpdateItem_ExplicitQuantity(t *testing.T) {
	uc, db := newUseCase(t)
	seedItem(db)

	it, err := uc.UpdateItem(context.Background(), &dto.UpdateItemInput{ManagerID: "mgr", ItemID: "i1", Quantity: intPtr(25)})
	require.NoError(t, err)
	assert.Equal(t, 25, it.Quantity)

	stored, _ := db.Item("i1")
	assert.Equal(t, 25, stored.Quantity)
}

func TestAdjustStock(t *testing.T) {
	uc, db := newUseCase(t)
	seedItem(db)
	ctx := context.Background()

	it, err := uc.AdjustStock(ctx, &dto.AdjustStockInput{ManagerID: "mgr", ItemID: "i1", Delta: -4})
	require.NoError(t, err)
	assert.Equal(t, 0, it.Quantity)

	_, err = uc.AdjustStock(ctx, &dto.AdjustStockInput{ManagerID: "mgr", ItemID: "i1", Delta: -1})
	assert.ErrorIs(t, err, item.ErrInsufficientStock)

	_, err = uc.AdjustStock(ctx, &dto.AdjustStockInput{ManagerID: "mgr", ItemID: "missing", Delta: 1})
	assert.ErrorIs(t, err, item.ErrNotFound)
}

func TestDeactivateItem(t *testing.T) {
	uc, db := newUseCase(t)
	seedItem(db)

	require.NoError(t, uc.DeactivateItem(context.Background(), "mgr", "i1"))

	stored, _ := db.Item("i1")
	assert.False(t, stored.IsActive)

	err := uc.DeactivateItem(context.Background(), "mgr", "i1")
	assert.ErrorIs(t, err, item.ErrNotFound)
}

func TestListLowStock(t *testing.T) {
	uc, db := newUseCase(t)
	db.PutItem(model.Item{BaseModel: model.BaseModel{ID: "a"}, StoreID: "s1", Name: "A", Quantity: 3, ReorderThreshold: 5, IsActive: true})
	db.PutItem(model.Item{BaseModel: model.BaseModel{ID: "b"}, StoreID: "s1", Name: "B", Quantity: 0, ReorderThreshold: 5, IsActive: true})
	db.PutItem(model.Item{BaseModel: model.BaseModel{ID: "c"}, StoreID: "s1", Name: "C", Quantity: 9, ReorderThreshold: 5, IsActive: true})
	db.PutItem(model.Item{BaseModel: model.BaseModel{ID: "d"}, StoreID: "s2", Name: "D", Quantity: 0, ReorderThreshold: 5, IsActive: true})

	items, err := uc.ListLowStock(context.Background(), "mgr")
	require.NoError(t, err)

	var ids []string
	for _, i := range items {
		ids = append(ids, i.ID)
	}
	assert.Equal(t, []string{"b", "a"}, ids)

	none, err := uc.ListLowStock(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCreateItem_RepositoryError(t *testing.T) {
	uc, db := newUseCase(t)
	boom := errors.New("insert failed")
	db.SetHook(func(op string, arg interface{}) error {
		if op == "items.Create" {
			return boom
		}
		return nil
	})

	_, err := uc.CreateItem(context.Background(), &dto.CreateItemInput{ManagerID: "mgr", StoreID: "s1", Name: "x"})
	assert.ErrorIs(t, err, boom)
}
