package repository

import (
	"context"

	"entrepeques/internal/dto"
	"entrepeques/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VentaRepository interface {
	Create(ctx context.Context, tx *gorm.DB, v *model.Venta) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
	FindByPagoExternoID(ctx context.Context, pagoExternoID string) (*model.Venta, error)
	UpdateEstadoPago(ctx context.Context, id uuid.UUID, estadoPago string) error
	List(ctx context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) DB() *gorm.DB { return r.db }

func (r *ventaRepo) Create(ctx context.Context, tx *gorm.DB, v *model.Venta) error {
	return tx.WithContext(ctx).Create(v).Error
}

func (r *ventaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).Preload("Items").First(&v, id).Error
	return &v, err
}

func (r *ventaRepo) FindByPagoExternoID(ctx context.Context, pagoExternoID string) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).Where("pago_externo_id = ?", pagoExternoID).First(&v).Error
	return &v, err
}

func (r *ventaRepo) UpdateEstadoPago(ctx context.Context, id uuid.UUID, estadoPago string) error {
	return r.db.WithContext(ctx).Model(&model.Venta{}).Where("id = ?", id).Update("estado_pago", estadoPago).Error
}

func (r *ventaRepo) List(ctx context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error) {
	var ventas []model.Venta
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Venta{})

	if filter.Estado != "" && filter.Estado != "all" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.Fecha != "" {
		q = q.Where("DATE(fecha_venta) = ?", filter.Fecha)
	} else {
		// Default: today
		q = q.Where("DATE(fecha_venta) = CURRENT_DATE")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Items").
		Order("fecha_venta DESC").
		Limit(filter.Limit).Offset(offset).
		Find(&ventas).Error
	return ventas, total, err
}
