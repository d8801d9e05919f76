package model

import (
	"time"

	"github.com/google/uuid"
)

// UnidadInventario is one physical stock unit derived from a finalized
// valuation item. It weakly references the item — it never owns it.
type UnidadInventario struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ValuacionItemID uuid.UUID `gorm:"type:uuid;index;not null"`
	Cantidad        int       `gorm:"not null;default:0"`
	Ubicacion       string    `gorm:"type:varchar(60);not null;default:'Polanco'"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Item *ValuacionItem `gorm:"foreignKey:ValuacionItemID"`
}

func (UnidadInventario) TableName() string { return "unidades_inventario" }

// MovimientoStock registra cada cambio de stock en una unidad de inventario.
// Se crea automáticamente al finalizar una valuación, vender, o devolver.
type MovimientoStock struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UnidadID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Tipo          string    `gorm:"not null"` // "alta_valuacion" | "venta" | "devolucion_consignacion"
	Cantidad      int       `gorm:"not null"` // positive = entrada, negative = salida
	StockAnterior int       `gorm:"not null"`
	StockNuevo    int       `gorm:"not null"`
	Motivo        string
	ReferenciaID  *uuid.UUID `gorm:"type:uuid"` // valuacion_id or venta_id if applicable
	CreatedAt     time.Time

	Unidad *UnidadInventario `gorm:"foreignKey:UnidadID"`
}

func (MovimientoStock) TableName() string { return "movimientos_stock" }
