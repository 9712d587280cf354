package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

// storeRow flattens the point into two columns; model.Store keeps it as a GeoPoint.
type storeRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Address   string    `db:"address"`
	Longitude float64   `db:"longitude"`
	Latitude  float64   `db:"latitude"`
	ManagerID string    `db:"manager_id"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func fromModel(s *model.Store) storeRow {
	return storeRow{
		ID:        s.ID,
		Name:      s.Name,
		Address:   s.Address,
		Longitude: s.Location.Longitude,
		Latitude:  s.Location.Latitude,
		ManagerID: s.ManagerID,
		IsActive:  s.IsActive,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (r storeRow) toModel() model.Store {
	return model.Store{
		BaseModel: model.BaseModel{ID: r.ID, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
		Name:      r.Name,
		Address:   r.Address,
		Location:  model.GeoPoint{Longitude: r.Longitude, Latitude: r.Latitude},
		ManagerID: r.ManagerID,
		IsActive:  r.IsActive,
	}
}

const storeColumns = `id, name, address, longitude, latitude, manager_id, is_active, created_at, updated_at`

func (r *PGRepository) Create(ctx context.Context, s *model.Store) error {
	query := `
        INSERT INTO stores (` + storeColumns + `)
        VALUES (:id, :name, :address, :longitude, :latitude, :manager_id, :is_active, :created_at, :updated_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, fromModel(s))
	return err
}

func (r *PGRepository) Update(ctx context.Context, s *model.Store) error {
	query := `
        UPDATE stores
        SET name = :name,
            address = :address,
            longitude = :longitude,
            latitude = :latitude,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, fromModel(s))
	return err
}

func (r *PGRepository) Deactivate(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE stores SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Store, error) {
	var row storeRow
	err := r.DB.GetContext(ctx, &row, `SELECT `+storeColumns+` FROM stores WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s := row.toModel()
	return &s, nil
}

func (r *PGRepository) ListActive(ctx context.Context) ([]model.Store, error) {
	return r.list(ctx, `SELECT `+storeColumns+` FROM stores WHERE is_active = TRUE ORDER BY name`)
}

func (r *PGRepository) ListByManager(ctx context.Context, managerID string) ([]model.Store, error) {
	return r.list(ctx, `SELECT `+storeColumns+` FROM stores WHERE manager_id = $1 AND is_active = TRUE ORDER BY name`, managerID)
}

func (r *PGRepository) list(ctx context.Context, query string, args ...interface{}) ([]model.Store, error) {
	var rows []storeRow
	if err := r.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	stores := make([]model.Store, len(rows))
	for i, row := range rows {
		stores[i] = row.toModel()
	}
	return stores, nil
}
