package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Factor types recognized by the pricing engine.
const (
	FactorEstado   = "estado"
	FactorDemanda  = "demanda"
	FactorLimpieza = "limpieza"
	FactorRenombre = "renombre"
)

// Subcategoria carries the per-subcategory pricing factors. The nuevo/usado
// variant is chosen from the article's declared state. All factors live in
// (0,1] so computed prices can never exceed the new price.
type Subcategoria struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CategoriaID uuid.UUID `gorm:"type:uuid;index;not null"`
	Nombre      string    `gorm:"not null"`
	EsRopa      bool      `gorm:"not null;default:false"`
	// GrupoRopa applies only when EsRopa: cuerpo_completo | arriba_cintura |
	// abajo_cintura | calzado | dama_maternidad
	GrupoRopa         *string         `gorm:"type:varchar(30)"`
	FactorCompraNuevo decimal.Decimal `gorm:"type:decimal(6,4);not null"`
	FactorCompraUsado decimal.Decimal `gorm:"type:decimal(6,4);not null"`
	FactorVentaNuevo  decimal.Decimal `gorm:"type:decimal(6,4);not null"`
	FactorVentaUsado  decimal.Decimal `gorm:"type:decimal(6,4);not null"`
	Activo            bool            `gorm:"not null;default:true"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Subcategoria) TableName() string { return "subcategorias" }

// FactorValuacion is one categorical weight row:
// (subcategoria, tipo_factor, valor_factor) → peso ∈ [0,1].
type FactorValuacion struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SubcategoriaID uuid.UUID       `gorm:"type:uuid;index:idx_factor_lookup;not null"`
	TipoFactor     string          `gorm:"type:varchar(20);index:idx_factor_lookup;not null"`
	ValorFactor    string          `gorm:"type:varchar(30);index:idx_factor_lookup;not null"`
	Peso           decimal.Decimal `gorm:"type:decimal(6,4);not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (FactorValuacion) TableName() string { return "factores_valuacion" }

// PrecioRopa is one flat-rate clothing price row. Clothing bypasses the
// scoring model entirely.
type PrecioRopa struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	GrupoCategoria string          `gorm:"type:varchar(30);index:idx_precio_ropa;not null"`
	TipoPrenda     string          `gorm:"type:varchar(40);index:idx_precio_ropa;not null"`
	NivelCalidad   string          `gorm:"type:varchar(20);index:idx_precio_ropa;not null"`
	PrecioCompra   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PrecioVenta    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Activo         bool            `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (PrecioRopa) TableName() string { return "precios_ropa" }

// TallaRopa enumerates the sizes shown on the bulk clothing grid per group.
type TallaRopa struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	GrupoCategoria string    `gorm:"type:varchar(30);index;not null"`
	Valor          string    `gorm:"type:varchar(30);not null"`
	Orden          int       `gorm:"not null;default:0"`
}

func (TallaRopa) TableName() string { return "tallas_ropa" }

// DefinicionCaracteristica is the versioned schema a subcategory's feature
// map is validated against — arbitrary keys are rejected.
type DefinicionCaracteristica struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SubcategoriaID uuid.UUID `gorm:"type:uuid;index;not null"`
	Clave          string    `gorm:"type:varchar(40);not null"`
	Nombre         string    `gorm:"not null"`
	// Tipo: texto | numero | seleccion
	Tipo      string  `gorm:"type:varchar(20);not null"`
	Opciones  *string // comma-separated, only for tipo=seleccion
	Version   int     `gorm:"not null;default:1"`
	Requerida bool    `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (DefinicionCaracteristica) TableName() string { return "definiciones_caracteristica" }
