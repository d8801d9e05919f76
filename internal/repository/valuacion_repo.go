package repository

import (
	"context"

	"entrepeques/internal/dto"
	"entrepeques/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ValuacionRepository interface {
	Create(ctx context.Context, v *model.Valuacion) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Valuacion, error)
	List(ctx context.Context, filter dto.ValuacionFilter) ([]model.Valuacion, int64, error)
	UpdateEstado(ctx context.Context, id uuid.UUID, estado string) error

	// Used inside the finalize transaction — callers must pass the tx instance
	CreateTx(tx *gorm.DB, v *model.Valuacion) error
	CreateItemTx(tx *gorm.DB, item *model.ValuacionItem) error
	FinalizarTx(tx *gorm.DB, id uuid.UUID, totales map[string]interface{}) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type valuacionRepo struct{ db *gorm.DB }

func NewValuacionRepository(db *gorm.DB) ValuacionRepository { return &valuacionRepo{db: db} }

func (r *valuacionRepo) DB() *gorm.DB { return r.db }

func (r *valuacionRepo) Create(ctx context.Context, v *model.Valuacion) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *valuacionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Valuacion, error) {
	var v model.Valuacion
	err := r.db.WithContext(ctx).Preload("Cliente").Preload("Items").First(&v, id).Error
	return &v, err
}

func (r *valuacionRepo) List(ctx context.Context, filter dto.ValuacionFilter) ([]model.Valuacion, int64, error) {
	var valuaciones []model.Valuacion
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Valuacion{})

	if filter.Estado != "" && filter.Estado != "all" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.ClienteID != "" {
		q = q.Where("cliente_id = ?", filter.ClienteID)
	}
	if filter.Desde != "" {
		q = q.Where("DATE(fecha_valuacion) >= ?", filter.Desde)
	}
	if filter.Hasta != "" {
		q = q.Where("DATE(fecha_valuacion) <= ?", filter.Hasta)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Cliente").Preload("Items").
		Order("fecha_valuacion DESC").
		Limit(filter.Limit).Offset(offset).
		Find(&valuaciones).Error
	return valuaciones, total, err
}

func (r *valuacionRepo) UpdateEstado(ctx context.Context, id uuid.UUID, estado string) error {
	return r.db.WithContext(ctx).Model(&model.Valuacion{}).Where("id = ?", id).Update("estado", estado).Error
}

func (r *valuacionRepo) CreateTx(tx *gorm.DB, v *model.Valuacion) error {
	return tx.Create(v).Error
}

func (r *valuacionRepo) CreateItemTx(tx *gorm.DB, item *model.ValuacionItem) error {
	return tx.Create(item).Error
}

// FinalizarTx marks the valuation completed and stamps the payout totals.
// Guarded on estado so a concurrent finalize of the same valuation fails the
// transaction instead of double-applying.
func (r *valuacionRepo) FinalizarTx(tx *gorm.DB, id uuid.UUID, totales map[string]interface{}) error {
	totales["estado"] = model.ValuacionCompletada
	res := tx.Model(&model.Valuacion{}).
		Where("id = ? AND estado = ?", id, model.ValuacionPendiente).
		Updates(totales)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
