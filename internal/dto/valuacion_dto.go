package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ItemValuacionRequest carries the attributes of one appraised article. The
// same shape feeds the stateless calculators and the finalize operation.
// The four scoring attributes are mandatory for scored subcategories but do
// not apply to clothing, which resolves a flat rate from tipo_prenda and
// nivel_calidad instead — the pricing service enforces presence per kind.
type ItemValuacionRequest struct {
	// Ref is an optional caller-supplied correlation id, echoed back verbatim
	// in batch results.
	Ref            *string `json:"ref"             validate:"omitempty,max=64"`
	CategoriaID    string  `json:"categoria_id"    validate:"required,uuid"`
	SubcategoriaID string  `json:"subcategoria_id" validate:"required,uuid"`
	MarcaID        *string `json:"marca_id"        validate:"omitempty,uuid"`
	EstadoArticulo string  `json:"estado_articulo" validate:"required"`
	RenombreMarca  string  `json:"renombre_marca"  validate:"omitempty,oneof=Sencilla Normal Alta Premium"`
	Modalidad      string  `json:"modalidad"       validate:"required,oneof='compra directa' 'crédito en tienda' consignación"`
	EstadoFisico   string  `json:"estado_fisico"   validate:"omitempty,oneof=excelente bueno regular"`
	Demanda        string  `json:"demanda"         validate:"omitempty,oneof=alta media baja"`
	Limpieza       string  `json:"limpieza"        validate:"omitempty,oneof=buena regular mala"`

	PrecioNuevo     decimal.Decimal   `json:"precio_nuevo" validate:"required"`
	Cantidad        int               `json:"cantidad"     validate:"required,min=1"`
	Caracteristicas map[string]string `json:"caracteristicas"`

	// Appraiser overrides — accepted only on finalize, ignored by the calculators
	PrecioCompraFinal *decimal.Decimal `json:"precio_compra_final"`
	PrecioVentaFinal  *decimal.Decimal `json:"precio_venta_final"`
	Notas             *string          `json:"notas"`
}

type CrearValuacionRequest struct {
	ClienteID string  `json:"cliente_id" validate:"required,uuid"`
	Notas     *string `json:"notas"`
}

type CalcularLoteRequest struct {
	Items []ItemValuacionRequest `json:"items" validate:"required,min=1,max=100,dive"`
}

// FinalizarCompletaRequest closes a valuation atomically: persists the items,
// creates inventory units and consignment records, and updates store credit.
// ValuacionID may reference an existing pending valuation; when absent one is
// created in the same transaction.
//
// The consignor comes in one of two ways: ClienteID references a registered
// client, or Cliente carries the data of a walk-in. A walk-in is matched by
// phone number and registered inside the closing transaction when unknown.
type FinalizarCompletaRequest struct {
	ValuacionID *string                `json:"valuacion_id" validate:"omitempty,uuid"`
	ClienteID   string                 `json:"cliente_id"   validate:"required_without=Cliente,omitempty,uuid"`
	Cliente     *CrearClienteRequest   `json:"cliente"      validate:"omitempty"`
	Items       []ItemValuacionRequest `json:"items"        validate:"required,min=1,dive"`
	Notas       *string                `json:"notas"`
}

type CancelarValuacionRequest struct {
	Motivo string `json:"motivo" validate:"required,min=5"`
}

// ValuacionFilter is bound from query string of GET /v1/valuaciones.
type ValuacionFilter struct {
	ClienteID string `form:"cliente_id" validate:"omitempty,uuid"`
	Estado    string `form:"estado,default=all"` // pending | completed | cancelled | all
	Desde     string `form:"desde"`              // YYYY-MM-DD
	Hasta     string `form:"hasta"`              // YYYY-MM-DD
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// CalculoItemResponse is the full price set for one article.
type CalculoItemResponse struct {
	PuntajeCompra        decimal.Decimal `json:"puntaje_compra"`
	PuntajeVenta         decimal.Decimal `json:"puntaje_venta"`
	PrecioCompraSugerido decimal.Decimal `json:"precio_compra_sugerido"`
	PrecioVentaSugerido  decimal.Decimal `json:"precio_venta_sugerido"`
	PrecioCreditoTienda  decimal.Decimal `json:"precio_credito_tienda"`
	PrecioConsignacion   decimal.Decimal `json:"precio_consignacion"`
}

// CalculoLoteItem wraps one batch result: exactly one of Resultado or Error is
// set. A failing item never aborts the batch. Ref echoes the caller-supplied
// correlation id of the item, when one was sent.
type CalculoLoteItem struct {
	Indice    int                  `json:"indice"`
	Ref       *string              `json:"ref,omitempty"`
	Resultado *CalculoItemResponse `json:"resultado,omitempty"`
	Error     *string              `json:"error,omitempty"`
}

type CalculoLoteResponse struct {
	Resultados []CalculoLoteItem `json:"resultados"`
}

type ItemValuacionResponse struct {
	ID                   string            `json:"id"`
	CategoriaID          string            `json:"categoria_id"`
	SubcategoriaID       string            `json:"subcategoria_id"`
	MarcaID              *string           `json:"marca_id"`
	EstadoArticulo       string            `json:"estado_articulo"`
	RenombreMarca        string            `json:"renombre_marca"`
	Modalidad            string            `json:"modalidad"`
	EstadoFisico         string            `json:"estado_fisico"`
	Demanda              string            `json:"demanda"`
	Limpieza             string            `json:"limpieza"`
	Caracteristicas      map[string]string `json:"caracteristicas,omitempty"`
	PrecioNuevo          decimal.Decimal   `json:"precio_nuevo"`
	Cantidad             int               `json:"cantidad"`
	PuntajeCompra        decimal.Decimal   `json:"puntaje_compra"`
	PuntajeVenta         decimal.Decimal   `json:"puntaje_venta"`
	PrecioCompraSugerido decimal.Decimal   `json:"precio_compra_sugerido"`
	PrecioVentaSugerido  decimal.Decimal   `json:"precio_venta_sugerido"`
	PrecioCreditoTienda  decimal.Decimal   `json:"precio_credito_tienda"`
	PrecioConsignacion   decimal.Decimal   `json:"precio_consignacion"`
	PrecioCompraFinal    *decimal.Decimal  `json:"precio_compra_final"`
	PrecioVentaFinal     *decimal.Decimal  `json:"precio_venta_final"`
	Notas                *string           `json:"notas"`
}

type ValuacionResponse struct {
	ID                string                  `json:"id"`
	ClienteID         string                  `json:"cliente_id"`
	Cliente           *ClienteResponse        `json:"cliente,omitempty"`
	ValuadorID        string                  `json:"valuador_id"`
	Estado            string                  `json:"estado"`
	FechaValuacion    string                  `json:"fecha_valuacion"`
	Notas             *string                 `json:"notas"`
	TotalCompra       decimal.Decimal         `json:"total_compra"`
	TotalConsignacion decimal.Decimal         `json:"total_consignacion"`
	Items             []ItemValuacionResponse `json:"items"`
}

type ValuacionListResponse struct {
	Data  []ValuacionResponse `json:"data"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}

// FinalizarCompletaResponse reports everything the closing transaction
// produced.
type FinalizarCompletaResponse struct {
	Valuacion             ValuacionResponse `json:"valuacion"`
	UnidadesCreadas       int               `json:"unidades_creadas"`
	ConsignacionesCreadas int               `json:"consignaciones_creadas"`
	CreditoAcreditado     decimal.Decimal   `json:"credito_acreditado"`
}
