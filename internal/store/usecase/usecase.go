package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/store"
	"github.com/fekuna/omnipos-stock-service/internal/store/dto"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type storeUseCase struct {
	repo   store.Repository
	logger logger.ZapLogger
	now    func() time.Time
}

func NewStoreUseCase(repo store.Repository, log logger.ZapLogger) store.UseCase {
	return &storeUseCase{
		repo:   repo,
		logger: log,
		now:    time.Now,
	}
}

func (uc *storeUseCase) CreateStore(ctx context.Context, input *dto.CreateStoreInput) (*model.Store, error) {
	name := strings.TrimSpace(input.Name)
	address := strings.TrimSpace(input.Address)
	if name == "" || address == "" || input.Location == nil {
		return nil, fmt.Errorf("%w: name, address, and coordinates are required", store.ErrInvalidInput)
	}
	if input.ManagerID == "" {
		return nil, fmt.Errorf("%w: manager is required", store.ErrInvalidInput)
	}

	now := uc.now()
	s := &model.Store{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:      name,
		Address:   address,
		Location:  *input.Location,
		ManagerID: input.ManagerID,
		IsActive:  true,
	}
	if err := uc.repo.Create(ctx, s); err != nil {
		return nil, err
	}
	uc.logger.Info("store created", zap.String("store_id", s.ID), zap.String("manager_id", s.ManagerID))
	return s, nil
}

func (uc *storeUseCase) GetStore(ctx context.Context, id string) (*model.Store, error) {
	s, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil || !s.IsActive {
		return nil, store.ErrNotFound
	}
	return s, nil
}

// ListStores shows managers their own stores and everyone else every active store.
func (uc *storeUseCase) ListStores(ctx context.Context, user auth.UserContext) ([]model.Store, error) {
	if user.IsManager() {
		return uc.repo.ListByManager(ctx, user.UserID)
	}
	return uc.repo.ListActive(ctx)
}

func (uc *storeUseCase) ListPublic(ctx context.Context) ([]model.Store, error) {
	return uc.repo.ListActive(ctx)
}

func (uc *storeUseCase) UpdateStore(ctx context.Context, input *dto.UpdateStoreInput) (*model.Store, error) {
	s, err := uc.owned(ctx, input.StoreID, input.ManagerID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" {
			s.Name = name
		}
	}
	if input.Address != nil {
		if address := strings.TrimSpace(*input.Address); address != "" {
			s.Address = address
		}
	}
	if input.Location != nil {
		s.Location = *input.Location
	}

	s.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (uc *storeUseCase) DeactivateStore(ctx context.Context, managerID, storeID string) error {
	if _, err := uc.owned(ctx, storeID, managerID); err != nil {
		return err
	}
	if err := uc.repo.Deactivate(ctx, storeID); err != nil {
		return err
	}
	uc.logger.Info("store deactivated", zap.String("store_id", storeID))
	return nil
}

func (uc *storeUseCase) owned(ctx context.Context, storeID, managerID string) (*model.Store, error) {
	s, err := uc.repo.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, store.ErrNotFound
	}
	if s.ManagerID != managerID {
		return nil, store.ErrForbidden
	}
	return s, nil
}
