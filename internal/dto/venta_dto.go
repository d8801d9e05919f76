package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemVentaRequest struct {
	UnidadInventarioID string `json:"unidad_inventario_id" validate:"required,uuid"`
	Cantidad           int    `json:"cantidad"             validate:"required,min=1"`
}

// RegistrarVentaRequest records a sale against inventory units. Card payments
// carry a gateway token which is authorized before anything is persisted.
type RegistrarVentaRequest struct {
	Items      []ItemVentaRequest `json:"items"       validate:"required,min=1,dive"`
	MetodoPago string             `json:"metodo_pago" validate:"required,oneof=efectivo tarjeta transferencia credito_tienda"`
	TokenPago  *string            `json:"token_pago"  validate:"omitempty,min=8"`
	// ClienteID is required for credito_tienda payments.
	ClienteID *string `json:"cliente_id" validate:"omitempty,uuid"`
}

// WebhookPagoRequest is the gateway's asynchronous status correction.
type WebhookPagoRequest struct {
	PagoExternoID string `json:"pago_externo_id" validate:"required"`
	Estado        string `json:"estado"          validate:"required,oneof=aprobado rechazado reembolsado pendiente"`
}

// VentaFilter is bound from query string of GET /v1/ventas.
type VentaFilter struct {
	Fecha  string `form:"fecha"`              // YYYY-MM-DD; empty = today
	Estado string `form:"estado,default=all"` // completada | anulada | all
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemVentaResponse struct {
	UnidadInventarioID string          `json:"unidad_inventario_id"`
	Cantidad           int             `json:"cantidad"`
	PrecioUnitario     decimal.Decimal `json:"precio_unitario"`
	Subtotal           decimal.Decimal `json:"subtotal"`
}

type VentaResponse struct {
	ID            string              `json:"id"`
	UsuarioID     string              `json:"usuario_id"`
	Items         []ItemVentaResponse `json:"items"`
	Total         decimal.Decimal     `json:"total"`
	Estado        string              `json:"estado"`
	MetodoPago    string              `json:"metodo_pago"`
	EstadoPago    string              `json:"estado_pago"`
	PagoExternoID *string             `json:"pago_externo_id"`
	FechaVenta    string              `json:"fecha_venta"`
}

type VentaListResponse struct {
	Data  []VentaResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
