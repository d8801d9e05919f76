package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cliente is the owner of valued merchandise. Created on first valuation or
// sale; SaldoCredito is mutated only by external redemption/accrual flows.
type Cliente struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre         string    `gorm:"index;not null"`
	Telefono       string    `gorm:"uniqueIndex;not null"`
	Email          *string
	Identificacion *string
	SaldoCredito   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Activo         bool            `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
