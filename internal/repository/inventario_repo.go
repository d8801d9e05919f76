package repository

import (
	"context"

	"entrepeques/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventarioRepository interface {
	FindUnidadByID(ctx context.Context, id uuid.UUID) (*model.UnidadInventario, error)
	ListMovimientos(ctx context.Context, unidadID uuid.UUID) ([]model.MovimientoStock, error)

	// Used inside transactions — callers must pass the tx instance
	CreateUnidadTx(tx *gorm.DB, u *model.UnidadInventario) error
	FindUnidadForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.UnidadInventario, error)
	FindUnidadByItemForUpdateTx(tx *gorm.DB, itemID uuid.UUID) (*model.UnidadInventario, error)
	UpdateStockTx(tx *gorm.DB, id uuid.UUID, delta int) error
	CreateMovimientoTx(tx *gorm.DB, m *model.MovimientoStock) error

	DB() *gorm.DB
}

type inventarioRepo struct{ db *gorm.DB }

func NewInventarioRepository(db *gorm.DB) InventarioRepository { return &inventarioRepo{db: db} }

func (r *inventarioRepo) DB() *gorm.DB { return r.db }

func (r *inventarioRepo) FindUnidadByID(ctx context.Context, id uuid.UUID) (*model.UnidadInventario, error) {
	var u model.UnidadInventario
	err := r.db.WithContext(ctx).Preload("Item").First(&u, id).Error
	return &u, err
}

func (r *inventarioRepo) ListMovimientos(ctx context.Context, unidadID uuid.UUID) ([]model.MovimientoStock, error) {
	var movs []model.MovimientoStock
	err := r.db.WithContext(ctx).Where("unidad_id = ?", unidadID).
		Order("created_at DESC").Find(&movs).Error
	return movs, err
}

func (r *inventarioRepo) CreateUnidadTx(tx *gorm.DB, u *model.UnidadInventario) error {
	return tx.Create(u).Error
}

// FindUnidadForUpdateTx row-locks the unit so concurrent sales serialize on
// the stock check.
func (r *inventarioRepo) FindUnidadForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.UnidadInventario, error) {
	var u model.UnidadInventario
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, id).Error
	return &u, err
}

func (r *inventarioRepo) FindUnidadByItemForUpdateTx(tx *gorm.DB, itemID uuid.UUID) (*model.UnidadInventario, error) {
	var u model.UnidadInventario
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("valuacion_item_id = ?", itemID).First(&u).Error
	return &u, err
}

func (r *inventarioRepo) UpdateStockTx(tx *gorm.DB, id uuid.UUID, delta int) error {
	return tx.Model(&model.UnidadInventario{}).Where("id = ?", id).
		Update("cantidad", gorm.Expr("cantidad + ?", delta)).Error
}

func (r *inventarioRepo) CreateMovimientoTx(tx *gorm.DB, m *model.MovimientoStock) error {
	return tx.Create(m).Error
}
