package repository

import (
	"context"

	"entrepeques/internal/dto"
	"entrepeques/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConsignacionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.RegistroConsignacion, error)
	FindByItemID(ctx context.Context, itemID uuid.UUID) (*model.RegistroConsignacion, error)
	List(ctx context.Context, filter dto.ConsignacionFilter) ([]model.RegistroConsignacion, int64, error)
	Update(ctx context.Context, reg *model.RegistroConsignacion) error
	CountByEstado(ctx context.Context) (map[string]int64, error)
	SumMontos(ctx context.Context) (porPagar, pagado decimal.Decimal, err error)

	// Used inside transactions — callers must pass the tx instance
	CreateTx(tx *gorm.DB, reg *model.RegistroConsignacion) error
	FindByItemForUpdateTx(tx *gorm.DB, itemID uuid.UUID) (*model.RegistroConsignacion, error)
	UpdateTx(tx *gorm.DB, reg *model.RegistroConsignacion) error

	DB() *gorm.DB
}

type consignacionRepo struct{ db *gorm.DB }

func NewConsignacionRepository(db *gorm.DB) ConsignacionRepository { return &consignacionRepo{db: db} }

func (r *consignacionRepo) DB() *gorm.DB { return r.db }

func (r *consignacionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.RegistroConsignacion, error) {
	var reg model.RegistroConsignacion
	err := r.db.WithContext(ctx).Preload("Item").Preload("Cliente").First(&reg, id).Error
	return &reg, err
}

func (r *consignacionRepo) FindByItemID(ctx context.Context, itemID uuid.UUID) (*model.RegistroConsignacion, error) {
	var reg model.RegistroConsignacion
	err := r.db.WithContext(ctx).Where("valuacion_item_id = ?", itemID).First(&reg).Error
	return &reg, err
}

func (r *consignacionRepo) List(ctx context.Context, filter dto.ConsignacionFilter) ([]model.RegistroConsignacion, int64, error) {
	var registros []model.RegistroConsignacion
	var total int64

	q := r.db.WithContext(ctx).Model(&model.RegistroConsignacion{})

	if filter.Estado != "" && filter.Estado != "all" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.ClienteID != "" {
		q = q.Where("cliente_id = ?", filter.ClienteID)
	}
	if filter.Vencidas {
		q = q.Where("estado = ? AND fecha_listado < NOW() - INTERVAL '90 days'", model.ConsignacionDisponible)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Item").Preload("Cliente").
		Order("fecha_listado ASC").
		Limit(filter.Limit).Offset(offset).
		Find(&registros).Error
	return registros, total, err
}

func (r *consignacionRepo) Update(ctx context.Context, reg *model.RegistroConsignacion) error {
	return r.db.WithContext(ctx).Save(reg).Error
}

func (r *consignacionRepo) CountByEstado(ctx context.Context) (map[string]int64, error) {
	type fila struct {
		Estado string
		Total  int64
	}
	var filas []fila
	err := r.db.WithContext(ctx).Model(&model.RegistroConsignacion{}).
		Select("estado, COUNT(*) AS total").Group("estado").Scan(&filas).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(filas))
	for _, f := range filas {
		out[f.Estado] = f.Total
	}
	return out, nil
}

// SumMontos returns the outstanding consignor debt (consignor share of sold
// but unpaid records) and the historic total paid out.
func (r *consignacionRepo) SumMontos(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	var porPagar, pagado decimal.Decimal

	err := r.db.WithContext(ctx).Model(&model.RegistroConsignacion{}).
		Where("estado = ?", model.ConsignacionVendidaSinPagar).
		Select("COALESCE(SUM(precio_venta_real * porcentaje_consignacion / 100), 0)").
		Scan(&porPagar).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	err = r.db.WithContext(ctx).Model(&model.RegistroConsignacion{}).
		Where("estado = ?", model.ConsignacionPagada).
		Select("COALESCE(SUM(monto_pagado), 0)").
		Scan(&pagado).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return porPagar, pagado, nil
}

func (r *consignacionRepo) CreateTx(tx *gorm.DB, reg *model.RegistroConsignacion) error {
	return tx.Create(reg).Error
}

func (r *consignacionRepo) FindByItemForUpdateTx(tx *gorm.DB, itemID uuid.UUID) (*model.RegistroConsignacion, error) {
	var reg model.RegistroConsignacion
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("valuacion_item_id = ?", itemID).First(&reg).Error
	return &reg, err
}

func (r *consignacionRepo) UpdateTx(tx *gorm.DB, reg *model.RegistroConsignacion) error {
	return tx.Save(reg).Error
}
