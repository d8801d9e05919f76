package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// PrecioPrendaRequest looks up the flat rate of a single garment.
type PrecioPrendaRequest struct {
	GrupoCategoria string `json:"grupo_categoria" validate:"required"`
	TipoPrenda     string `json:"tipo_prenda"     validate:"required"`
	NivelCalidad   string `json:"nivel_calidad"   validate:"required,oneof=economico estandar premium"`
}

// CeldaLoteRopa is one cell of the bulk intake grid.
type CeldaLoteRopa struct {
	TipoPrenda   string `json:"tipo_prenda"   validate:"required"`
	NivelCalidad string `json:"nivel_calidad" validate:"required,oneof=economico estandar premium"`
	Talla        string `json:"talla"         validate:"required"`
	Cantidad     int    `json:"cantidad"      validate:"required,min=1"`
}

// DistribuirLoteRequest prices a bulk clothing lot against a clothing
// subcategory. TotalDeclarado must equal the sum of the cell quantities or
// the whole lot is rejected.
type DistribuirLoteRequest struct {
	CategoriaID    string          `json:"categoria_id"    validate:"required,uuid"`
	SubcategoriaID string          `json:"subcategoria_id" validate:"required,uuid"`
	Modalidad      string          `json:"modalidad"       validate:"required,oneof='compra directa' 'crédito en tienda' consignación"`
	TotalDeclarado int             `json:"total_declarado" validate:"required,min=1"`
	Celdas         []CeldaLoteRopa `json:"celdas"          validate:"required,min=1,dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PrecioPrendaResponse struct {
	GrupoCategoria string          `json:"grupo_categoria"`
	TipoPrenda     string          `json:"tipo_prenda"`
	NivelCalidad   string          `json:"nivel_calidad"`
	PrecioCompra   decimal.Decimal `json:"precio_compra"`
	PrecioVenta    decimal.Decimal `json:"precio_venta"`
}

// ItemLoteRopa is one priced grid cell turned into a finalize-ready draft.
// Item can be submitted to the finalize operation as-is; the garment features
// (tipo_prenda, nivel_calidad, talla) travel in its Caracteristicas.
type ItemLoteRopa struct {
	Item     ItemValuacionRequest `json:"item"`
	Precios  CalculoItemResponse  `json:"precios"`
	Subtotal decimal.Decimal      `json:"subtotal"`
}

type DistribuirLoteResponse struct {
	GrupoCategoria     string          `json:"grupo_categoria"`
	Modalidad          string          `json:"modalidad"`
	TotalPrendas       int             `json:"total_prendas"`
	Items              []ItemLoteRopa  `json:"items"`
	TotalCompra        decimal.Decimal `json:"total_compra"`
	TotalVentaEstimado decimal.Decimal `json:"total_venta_estimado"`
	TotalCreditoTienda decimal.Decimal `json:"total_credito_tienda"`
	TotalConsignacion  decimal.Decimal `json:"total_consignacion"`
}

type TallaResponse struct {
	GrupoCategoria string `json:"grupo_categoria"`
	Valor          string `json:"valor"`
	Orden          int    `json:"orden"`
}
