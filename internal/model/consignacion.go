package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Consignment states. Available is initial; paid and returned are terminal.
// sold_unpaid is reachable only from available.
const (
	ConsignacionDisponible      = "available"
	ConsignacionVendidaSinPagar = "sold_unpaid"
	ConsignacionPagada          = "paid"
	ConsignacionDevuelta        = "returned"
)

// RegistroConsignacion tracks the post-sale financial lifecycle of one
// consigned item. 1:1 with its ValuacionItem; created only at finalize time
// for items with modalidad consignación.
type RegistroConsignacion struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ValuacionItemID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	ClienteID       uuid.UUID `gorm:"type:uuid;index;not null"`
	FechaListado    time.Time `gorm:"not null;default:now()"`
	Estado          string    `gorm:"type:varchar(20);not null;default:'available'"`
	FechaVenta      *time.Time
	PrecioVentaReal *decimal.Decimal `gorm:"type:decimal(12,2)"`
	FechaPago       *time.Time
	MontoPagado     *decimal.Decimal `gorm:"type:decimal(12,2)"`
	// PorcentajeConsignacion is the consignor's share of the actual sale price.
	PorcentajeConsignacion decimal.Decimal `gorm:"type:decimal(5,2);not null;default:50"`
	Notas                  *string
	CreatedAt              time.Time
	UpdatedAt              time.Time

	Item    *ValuacionItem `gorm:"foreignKey:ValuacionItemID"`
	Cliente *Cliente       `gorm:"foreignKey:ClienteID"`
}

func (RegistroConsignacion) TableName() string { return "registros_consignacion" }
