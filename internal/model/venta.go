package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment states mirrored from the gateway. Webhook corrections are applied
// idempotently keyed by PagoExternoID.
const (
	PagoAprobado    = "aprobado"
	PagoRechazado   = "rechazado"
	PagoReembolsado = "reembolsado"
	PagoPendiente   = "pendiente"
)

// Venta records a sale event reported by the sales front end against
// inventory units produced by this back office.
type Venta struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	// UsuarioID is the seller, taken from the bearer token of the request that
	// registered the sale.
	UsuarioID  uuid.UUID       `gorm:"type:uuid;index"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Estado     string          `gorm:"type:varchar(20);not null;default:'completada'"`
	MetodoPago string          `gorm:"type:varchar(30);not null"`
	// PagoExternoID is the gateway's payment id — the idempotency key for
	// webhook-driven status corrections.
	PagoExternoID *string   `gorm:"uniqueIndex"`
	EstadoPago    string    `gorm:"type:varchar(20);not null;default:'aprobado'"`
	FechaVenta    time.Time `gorm:"not null;default:now()"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Items []VentaItem `gorm:"foreignKey:VentaID;constraint:OnDelete:CASCADE"`
}

func (Venta) TableName() string { return "ventas" }

// VentaItem is one sold inventory unit within a Venta.
type VentaItem struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID            uuid.UUID       `gorm:"type:uuid;index;not null"`
	UnidadInventarioID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Cantidad           int             `gorm:"not null"`
	PrecioUnitario     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt          time.Time

	Unidad *UnidadInventario `gorm:"foreignKey:UnidadInventarioID"`
}

func (VentaItem) TableName() string { return "venta_items" }
