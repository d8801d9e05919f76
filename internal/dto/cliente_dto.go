package dto

import "github.com/shopspring/decimal"

type CrearClienteRequest struct {
	Nombre         string  `json:"nombre"         validate:"required,min=2"`
	Telefono       string  `json:"telefono"       validate:"required,min=8,max=15"`
	Email          *string `json:"email"          validate:"omitempty,email"`
	Identificacion *string `json:"identificacion" validate:"omitempty,min=5"`
}

type ActualizarClienteRequest struct {
	Nombre         *string `json:"nombre"         validate:"omitempty,min=2"`
	Telefono       *string `json:"telefono"       validate:"omitempty,min=8,max=15"`
	Email          *string `json:"email"          validate:"omitempty,email"`
	Identificacion *string `json:"identificacion" validate:"omitempty,min=5"`
	Activo         *bool   `json:"activo"`
}

// ClienteFilter is bound from query string of GET /v1/clientes.
// Busqueda matches against nombre and telefono.
type ClienteFilter struct {
	Busqueda string `form:"busqueda"`
	Activo   string `form:"activo,default=true"` // true | false | all
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type ClienteResponse struct {
	ID             string          `json:"id"`
	Nombre         string          `json:"nombre"`
	Telefono       string          `json:"telefono"`
	Email          *string         `json:"email"`
	Identificacion *string         `json:"identificacion"`
	SaldoCredito   decimal.Decimal `json:"saldo_credito"`
	Activo         bool            `json:"activo"`
	CreatedAt      string          `json:"created_at"`
}

type ClienteListResponse struct {
	Data  []ClienteResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
