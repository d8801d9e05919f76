package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Valuation lifecycle states. Pending is initial; completed and cancelled are
// terminal — a valuation is never reopened.
const (
	ValuacionPendiente  = "pending"
	ValuacionCompletada = "completed"
	ValuacionCancelada  = "cancelled"
)

// Modalities — the payout arrangement chosen per item.
const (
	ModalidadCompraDirecta = "compra directa"
	ModalidadCreditoTienda = "crédito en tienda"
	ModalidadConsignacion  = "consignación"
)

// Valuacion groups the items a client brings in for appraisal.
type Valuacion struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClienteID         uuid.UUID `gorm:"type:uuid;index;not null"`
	ValuadorID        uuid.UUID `gorm:"type:uuid;index;not null"`
	Estado            string    `gorm:"type:varchar(20);not null;default:'pending'"`
	FechaValuacion    time.Time `gorm:"not null;default:now()"`
	Notas             *string
	TotalCompra       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalConsignacion decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Cliente *Cliente        `gorm:"foreignKey:ClienteID"`
	Items   []ValuacionItem `gorm:"foreignKey:ValuacionID;constraint:OnDelete:CASCADE"`
}

func (Valuacion) TableName() string { return "valuaciones" }

// ValuacionItem is one appraised article with its computed price set.
// Caracteristicas holds the typed feature map validated against the
// subcategory's DefinicionCaracteristica rows before acceptance.
type ValuacionItem struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ValuacionID    uuid.UUID  `gorm:"type:uuid;index;not null"`
	CategoriaID    uuid.UUID  `gorm:"type:uuid;not null"`
	SubcategoriaID uuid.UUID  `gorm:"type:uuid;index;not null"`
	MarcaID        *uuid.UUID `gorm:"type:uuid"`
	// EstadoArticulo: "Nuevo", "Usado como nuevo", "Usado", …
	EstadoArticulo string `gorm:"type:varchar(40);not null"`
	// RenombreMarca: Sencilla | Normal | Alta | Premium
	RenombreMarca string `gorm:"type:varchar(20);not null"`
	Modalidad     string `gorm:"type:varchar(30);not null"`
	// EstadoFisico: excelente | bueno | regular
	EstadoFisico string `gorm:"type:varchar(20);not null"`
	// Demanda: alta | media | baja
	Demanda string `gorm:"type:varchar(20);not null"`
	// Limpieza: buena | regular | mala
	Limpieza        string            `gorm:"type:varchar(20);not null"`
	Caracteristicas map[string]string `gorm:"serializer:json"`
	PrecioNuevo     decimal.Decimal   `gorm:"type:decimal(12,2);not null"`
	Cantidad        int               `gorm:"not null;default:1"`

	PuntajeCompra        decimal.Decimal `gorm:"type:decimal(6,4);not null"`
	PuntajeVenta         decimal.Decimal `gorm:"type:decimal(6,4);not null"`
	PrecioCompraSugerido decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PrecioVentaSugerido  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PrecioCreditoTienda  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PrecioConsignacion   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Appraiser overrides — take precedence over the suggested prices
	PrecioCompraFinal *decimal.Decimal `gorm:"type:decimal(12,2)"`
	PrecioVentaFinal  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Notas             *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (ValuacionItem) TableName() string { return "valuacion_items" }

// PrecioCompraEfectivo returns the appraiser override when set, the suggested
// purchase price otherwise.
func (i *ValuacionItem) PrecioCompraEfectivo() decimal.Decimal {
	if i.PrecioCompraFinal != nil {
		return *i.PrecioCompraFinal
	}
	return i.PrecioCompraSugerido
}

// PrecioVentaEfectivo returns the appraiser override when set, the suggested
// sale price otherwise.
func (i *ValuacionItem) PrecioVentaEfectivo() decimal.Decimal {
	if i.PrecioVentaFinal != nil {
		return *i.PrecioVentaFinal
	}
	return i.PrecioVentaSugerido
}
