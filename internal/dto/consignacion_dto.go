package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// MarcarPagadoRequest settles a sold_unpaid consignment. When Monto is nil the
// consignor is paid their percentage (default 50%) of the actual sale price.
type MarcarPagadoRequest struct {
	Monto *decimal.Decimal `json:"monto"`
	Notas *string          `json:"notas"`
}

type MarcarDevueltoRequest struct {
	Motivo string `json:"motivo" validate:"required,min=5"`
}

// ConsignacionFilter is bound from query string of GET /v1/consignaciones.
type ConsignacionFilter struct {
	ClienteID string `form:"cliente_id" validate:"omitempty,uuid"`
	Estado    string `form:"estado,default=all"` // available | sold_unpaid | paid | returned | all
	// Vencidas=true restricts to records past their contract expiry date.
	Vencidas bool `form:"vencidas"`
	Page     int  `form:"page,default=1"   validate:"min=1"`
	Limit    int  `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ConsignacionResponse struct {
	ID              string  `json:"id"`
	ValuacionItemID string  `json:"valuacion_item_id"`
	ClienteID       string  `json:"cliente_id"`
	Estado          string  `json:"estado"`
	FechaListado    string  `json:"fecha_listado"`
	FechaVenta      *string `json:"fecha_venta"`
	FechaPago       *string `json:"fecha_pago"`

	PrecioListado          decimal.Decimal  `json:"precio_listado"`
	PrecioActual           decimal.Decimal  `json:"precio_actual"`
	PrecioVentaReal        *decimal.Decimal `json:"precio_venta_real"`
	MontoPagado            *decimal.Decimal `json:"monto_pagado"`
	PorcentajeConsignacion decimal.Decimal  `json:"porcentaje_consignacion"`

	SemanasListada   int     `json:"semanas_listada"`
	FechaVencimiento string  `json:"fecha_vencimiento"`
	ElegibleAbandono bool    `json:"elegible_abandono"`
	Notas            *string `json:"notas"`

	Cliente *ClienteResponse       `json:"cliente,omitempty"`
	Item    *ItemValuacionResponse `json:"item,omitempty"`
}

type ConsignacionListResponse struct {
	Data  []ConsignacionResponse `json:"data"`
	Total int64                  `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}

// TramoDescuento is one row of the published age-based discount schedule.
type TramoDescuento struct {
	SemanaDesde int             `json:"semana_desde"`
	SemanaHasta *int            `json:"semana_hasta"` // nil = open-ended
	Factor      decimal.Decimal `json:"factor"`
}

type TablaDescuentosResponse struct {
	Tramos []TramoDescuento `json:"tramos"`
}

// EstadisticasConsignacionResponse aggregates the consignment book for the
// back-office dashboard.
type EstadisticasConsignacionResponse struct {
	Disponibles      int64           `json:"disponibles"`
	VendidasSinPagar int64           `json:"vendidas_sin_pagar"`
	Pagadas          int64           `json:"pagadas"`
	Devueltas        int64           `json:"devueltas"`
	MontoPorPagar    decimal.Decimal `json:"monto_por_pagar"`
	MontoPagado      decimal.Decimal `json:"monto_pagado"`
}
