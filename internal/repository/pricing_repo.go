package repository

import (
	"context"

	"entrepeques/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PricingRepository resolves the reference data the pricing engine works
// with: subcategory factors, categorical weights, flat clothing rates and the
// feature schemas items are validated against.
type PricingRepository interface {
	FindSubcategoria(ctx context.Context, id uuid.UUID) (*model.Subcategoria, error)
	ListSubcategorias(ctx context.Context, categoriaID *uuid.UUID) ([]model.Subcategoria, error)

	// FindFactores returns every weight row of a subcategory in one query;
	// the service resolves (tipo, valor) pairs in memory.
	FindFactores(ctx context.Context, subcategoriaID uuid.UUID) ([]model.FactorValuacion, error)

	FindPrecioRopa(ctx context.Context, grupo, tipoPrenda, nivel string) (*model.PrecioRopa, error)
	ListPreciosRopa(ctx context.Context, grupo string) ([]model.PrecioRopa, error)
	ListTallas(ctx context.Context, grupo string) ([]model.TallaRopa, error)

	ListDefiniciones(ctx context.Context, subcategoriaID uuid.UUID) ([]model.DefinicionCaracteristica, error)

	DB() *gorm.DB
}

type pricingRepo struct{ db *gorm.DB }

func NewPricingRepository(db *gorm.DB) PricingRepository { return &pricingRepo{db: db} }

func (r *pricingRepo) DB() *gorm.DB { return r.db }

func (r *pricingRepo) FindSubcategoria(ctx context.Context, id uuid.UUID) (*model.Subcategoria, error) {
	var s model.Subcategoria
	err := r.db.WithContext(ctx).Where("id = ? AND activo = true", id).First(&s).Error
	return &s, err
}

func (r *pricingRepo) ListSubcategorias(ctx context.Context, categoriaID *uuid.UUID) ([]model.Subcategoria, error) {
	var subs []model.Subcategoria
	q := r.db.WithContext(ctx).Where("activo = true")
	if categoriaID != nil {
		q = q.Where("categoria_id = ?", *categoriaID)
	}
	err := q.Order("nombre ASC").Find(&subs).Error
	return subs, err
}

func (r *pricingRepo) FindFactores(ctx context.Context, subcategoriaID uuid.UUID) ([]model.FactorValuacion, error) {
	var factores []model.FactorValuacion
	err := r.db.WithContext(ctx).Where("subcategoria_id = ?", subcategoriaID).Find(&factores).Error
	return factores, err
}

func (r *pricingRepo) FindPrecioRopa(ctx context.Context, grupo, tipoPrenda, nivel string) (*model.PrecioRopa, error) {
	var p model.PrecioRopa
	err := r.db.WithContext(ctx).
		Where("grupo_categoria = ? AND tipo_prenda = ? AND nivel_calidad = ? AND activo = true",
			grupo, tipoPrenda, nivel).
		First(&p).Error
	return &p, err
}

func (r *pricingRepo) ListPreciosRopa(ctx context.Context, grupo string) ([]model.PrecioRopa, error) {
	var precios []model.PrecioRopa
	q := r.db.WithContext(ctx).Where("activo = true")
	if grupo != "" {
		q = q.Where("grupo_categoria = ?", grupo)
	}
	err := q.Order("grupo_categoria, tipo_prenda, nivel_calidad").Find(&precios).Error
	return precios, err
}

func (r *pricingRepo) ListTallas(ctx context.Context, grupo string) ([]model.TallaRopa, error) {
	var tallas []model.TallaRopa
	q := r.db.WithContext(ctx).Model(&model.TallaRopa{})
	if grupo != "" {
		q = q.Where("grupo_categoria = ?", grupo)
	}
	err := q.Order("grupo_categoria, orden ASC").Find(&tallas).Error
	return tallas, err
}

func (r *pricingRepo) ListDefiniciones(ctx context.Context, subcategoriaID uuid.UUID) ([]model.DefinicionCaracteristica, error) {
	var defs []model.DefinicionCaracteristica
	err := r.db.WithContext(ctx).Where("subcategoria_id = ?", subcategoriaID).
		Order("clave ASC").Find(&defs).Error
	return defs, err
}
