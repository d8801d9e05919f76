package service

import (
	"context"
	"errors"
	"time"

	"entrepeques/internal/apierror"
	"entrepeques/internal/dto"
	"entrepeques/internal/model"
	"entrepeques/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Contract terms: 90-day listing plus a 30-day pickup grace period. After
// both elapse an unsold item may be flagged for abandonment, but the actual
// transition is always a manual staff action.
const (
	DiasContrato = 90
	DiasGracia   = 30
)

// Age-based markdown schedule applied to the listed sale price. The last tier
// holds: an item never drops below 80% of list.
var (
	descuentoSemana8  = decimal.RequireFromString("0.90")
	descuentoSemana16 = decimal.RequireFromString("0.80")
)

type ConsignacionService interface {
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ConsignacionResponse, error)
	Listar(ctx context.Context, filter dto.ConsignacionFilter) (*dto.ConsignacionListResponse, error)
	MarcarPagado(ctx context.Context, id uuid.UUID, req dto.MarcarPagadoRequest) (*dto.ConsignacionResponse, error)
	MarcarDevuelto(ctx context.Context, id uuid.UUID, motivo string) (*dto.ConsignacionResponse, error)
	TablaDescuentos() dto.TablaDescuentosResponse
	Estadisticas(ctx context.Context) (*dto.EstadisticasConsignacionResponse, error)

	// RegistrarVentaTx transitions available → sold_unpaid inside the caller's
	// sale transaction.
	RegistrarVentaTx(tx *gorm.DB, itemID uuid.UUID, precioVentaReal decimal.Decimal, fecha time.Time) error
}

type consignacionService struct {
	repo           repository.ConsignacionRepository
	inventarioRepo repository.InventarioRepository
}

func NewConsignacionService(
	repo repository.ConsignacionRepository,
	inventarioRepo repository.InventarioRepository,
) ConsignacionService {
	return &consignacionService{repo: repo, inventarioRepo: inventarioRepo}
}

// FactorDescuento returns the markdown factor for an item listed the given
// number of full weeks ago.
func FactorDescuento(semanas int) decimal.Decimal {
	switch {
	case semanas < 8:
		return decimal.NewFromInt(1)
	case semanas < 16:
		return descuentoSemana8
	default:
		return descuentoSemana16
	}
}

// SemanasListada counts full weeks between listing and now.
func SemanasListada(fechaListado, ahora time.Time) int {
	if ahora.Before(fechaListado) {
		return 0
	}
	return int(ahora.Sub(fechaListado).Hours() / (24 * 7))
}

func (s *consignacionService) TablaDescuentos() dto.TablaDescuentosResponse {
	ocho, dieciseis, veinticuatro := 8, 16, 24
	return dto.TablaDescuentosResponse{
		Tramos: []dto.TramoDescuento{
			{SemanaDesde: 0, SemanaHasta: &ocho, Factor: decimal.NewFromInt(1)},
			{SemanaDesde: ocho, SemanaHasta: &dieciseis, Factor: descuentoSemana8},
			{SemanaDesde: dieciseis, SemanaHasta: &veinticuatro, Factor: descuentoSemana16},
			{SemanaDesde: veinticuatro, SemanaHasta: nil, Factor: descuentoSemana16},
		},
	}
}

func (s *consignacionService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ConsignacionResponse, error) {
	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("registro de consignación")
		}
		return nil, err
	}
	return consignacionToResponse(reg, time.Now()), nil
}

func (s *consignacionService) Listar(ctx context.Context, filter dto.ConsignacionFilter) (*dto.ConsignacionListResponse, error) {
	registros, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	ahora := time.Now()
	resp := &dto.ConsignacionListResponse{
		Data:  make([]dto.ConsignacionResponse, 0, len(registros)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range registros {
		resp.Data = append(resp.Data, *consignacionToResponse(&registros[i], ahora))
	}
	return resp, nil
}

// MarcarPagado settles a sold consignment with its consignor. Without an
// explicit amount the consignor receives their percentage (default 50%) of
// the actual sale price. Paying twice is a conflict.
func (s *consignacionService) MarcarPagado(ctx context.Context, id uuid.UUID, req dto.MarcarPagadoRequest) (*dto.ConsignacionResponse, error) {
	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("registro de consignación")
		}
		return nil, err
	}
	if reg.Estado != model.ConsignacionVendidaSinPagar {
		return nil, apierror.Conflict("solo un registro vendido sin pagar puede marcarse como pagado (estado actual: " + reg.Estado + ")")
	}

	monto := decimal.Zero
	if req.Monto != nil {
		monto = *req.Monto
	} else if reg.PrecioVentaReal != nil {
		monto = reg.PrecioVentaReal.Mul(reg.PorcentajeConsignacion).Div(decimal.NewFromInt(100)).Round(2)
	}
	if !monto.IsPositive() {
		return nil, apierror.Validation("monto", "el monto a pagar debe ser mayor a cero")
	}

	ahora := time.Now()
	reg.Estado = model.ConsignacionPagada
	reg.FechaPago = &ahora
	reg.MontoPagado = &monto
	if req.Notas != nil {
		reg.Notas = req.Notas
	}
	if err := s.repo.Update(ctx, reg); err != nil {
		return nil, err
	}
	return consignacionToResponse(reg, ahora), nil
}

// MarcarDevuelto hands an unsold item back to its consignor and retires the
// stock unit. Only available records can be returned.
func (s *consignacionService) MarcarDevuelto(ctx context.Context, id uuid.UUID, motivo string) (*dto.ConsignacionResponse, error) {
	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("registro de consignación")
		}
		return nil, err
	}
	if reg.Estado != model.ConsignacionDisponible {
		return nil, apierror.Conflict("solo un registro disponible puede devolverse (estado actual: " + reg.Estado + ")")
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		reg.Estado = model.ConsignacionDevuelta
		reg.Notas = &motivo
		if err := s.repo.UpdateTx(tx, reg); err != nil {
			return err
		}

		unidad, err := s.inventarioRepo.FindUnidadByItemForUpdateTx(tx, reg.ValuacionItemID)
		if err != nil {
			return err
		}
		if unidad.Cantidad <= 0 {
			return nil // already off the floor
		}
		if err := s.inventarioRepo.UpdateStockTx(tx, unidad.ID, -unidad.Cantidad); err != nil {
			return err
		}
		return s.inventarioRepo.CreateMovimientoTx(tx, &model.MovimientoStock{
			UnidadID:      unidad.ID,
			Tipo:          "devolucion_consignacion",
			Cantidad:      -unidad.Cantidad,
			StockAnterior: unidad.Cantidad,
			StockNuevo:    0,
			Motivo:        motivo,
			ReferenciaID:  &reg.ID,
		})
	})
	if txErr != nil {
		return nil, txErr
	}
	return consignacionToResponse(reg, time.Now()), nil
}

func (s *consignacionService) RegistrarVentaTx(tx *gorm.DB, itemID uuid.UUID, precioVentaReal decimal.Decimal, fecha time.Time) error {
	reg, err := s.repo.FindByItemForUpdateTx(tx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("registro de consignación")
		}
		return err
	}
	if reg.Estado != model.ConsignacionDisponible {
		return apierror.Conflict("el artículo consignado ya no está disponible (estado: " + reg.Estado + ")")
	}
	reg.Estado = model.ConsignacionVendidaSinPagar
	reg.FechaVenta = &fecha
	reg.PrecioVentaReal = &precioVentaReal
	return s.repo.UpdateTx(tx, reg)
}

func (s *consignacionService) Estadisticas(ctx context.Context) (*dto.EstadisticasConsignacionResponse, error) {
	conteos, err := s.repo.CountByEstado(ctx)
	if err != nil {
		return nil, err
	}
	porPagar, pagado, err := s.repo.SumMontos(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.EstadisticasConsignacionResponse{
		Disponibles:      conteos[model.ConsignacionDisponible],
		VendidasSinPagar: conteos[model.ConsignacionVendidaSinPagar],
		Pagadas:          conteos[model.ConsignacionPagada],
		Devueltas:        conteos[model.ConsignacionDevuelta],
		MontoPorPagar:    porPagar,
		MontoPagado:      pagado,
	}, nil
}

func consignacionToResponse(reg *model.RegistroConsignacion, ahora time.Time) *dto.ConsignacionResponse {
	semanas := SemanasListada(reg.FechaListado, ahora)
	vencimiento := reg.FechaListado.AddDate(0, 0, DiasContrato)
	finGracia := vencimiento.AddDate(0, 0, DiasGracia)

	resp := &dto.ConsignacionResponse{
		ID:                     reg.ID.String(),
		ValuacionItemID:        reg.ValuacionItemID.String(),
		ClienteID:              reg.ClienteID.String(),
		Estado:                 reg.Estado,
		FechaListado:           reg.FechaListado.Format("2006-01-02"),
		PrecioVentaReal:        reg.PrecioVentaReal,
		MontoPagado:            reg.MontoPagado,
		PorcentajeConsignacion: reg.PorcentajeConsignacion,
		SemanasListada:         semanas,
		FechaVencimiento:       vencimiento.Format("2006-01-02"),
		ElegibleAbandono:       reg.Estado == model.ConsignacionDisponible && ahora.After(finGracia),
		Notas:                  reg.Notas,
	}
	if reg.FechaVenta != nil {
		f := reg.FechaVenta.Format("2006-01-02")
		resp.FechaVenta = &f
	}
	if reg.FechaPago != nil {
		f := reg.FechaPago.Format("2006-01-02")
		resp.FechaPago = &f
	}
	if reg.Item != nil {
		listado := reg.Item.PrecioVentaEfectivo()
		resp.PrecioListado = listado
		resp.PrecioActual = listado.Mul(FactorDescuento(semanas)).Round(2)
		item := itemToResponse(reg.Item)
		resp.Item = &item
	}
	if reg.Cliente != nil {
		resp.Cliente = clienteToResponse(reg.Cliente)
	}
	return resp
}
