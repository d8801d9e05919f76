package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"entrepeques/internal/apierror"
	"entrepeques/internal/dto"
	"entrepeques/internal/infra"
	"entrepeques/internal/model"
	"entrepeques/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Pasarela abstracts the payment gateway client so unit tests can stub it.
type Pasarela interface {
	Autorizar(ctx context.Context, payload infra.PagoPayload) (*infra.PagoResponse, error)
}

type VentaService interface {
	RegistrarVenta(ctx context.Context, usuarioID uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	AplicarWebhookPago(ctx context.Context, req dto.WebhookPagoRequest) error
	Obtener(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error)
	Listar(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error)
}

type ventaService struct {
	repo             repository.VentaRepository
	inventarioRepo   repository.InventarioRepository
	clienteRepo      repository.ClienteRepository
	consignacionRepo repository.ConsignacionRepository
	consignacion     ConsignacionService
	pasarela         Pasarela
	cb               *infra.CircuitBreaker
	storeName        string
}

func NewVentaService(
	repo repository.VentaRepository,
	inventarioRepo repository.InventarioRepository,
	clienteRepo repository.ClienteRepository,
	consignacionRepo repository.ConsignacionRepository,
	consignacion ConsignacionService,
	pasarela Pasarela,
	cb *infra.CircuitBreaker,
	storeName string,
) VentaService {
	return &ventaService{
		repo:             repo,
		inventarioRepo:   inventarioRepo,
		clienteRepo:      clienteRepo,
		consignacionRepo: consignacionRepo,
		consignacion:     consignacion,
		pasarela:         pasarela,
		cb:               cb,
		storeName:        storeName,
	}
}

// ── RegistrarVenta ────────────────────────────────────────────────────────────
// Sale registration is two-phase:
//  1. Pre-flight (outside TX): resolve every unit, compute the discounted
//     line prices, and — for card payments — authorize the charge against the
//     gateway. The gateway is consulted BEFORE any row is written, so a
//     rejected or unreachable gateway never leaves partial state behind.
//  2. TX: create venta + items, row-lock each unit and re-check stock,
//     decrement, record movements, transition sold consignments, and deduct
//     store credit when that is the payment method.

func (s *ventaService) RegistrarVenta(ctx context.Context, usuarioID uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	ahora := time.Now()

	type lineaResuelta struct {
		unidadID       uuid.UUID
		itemID         uuid.UUID
		consignado     bool
		cantidad       int
		precioUnitario decimal.Decimal
		subtotal       decimal.Decimal
	}

	var lineas []lineaResuelta
	total := decimal.Zero

	for _, item := range req.Items {
		uid, err := uuid.Parse(item.UnidadInventarioID)
		if err != nil {
			return nil, apierror.Validation("unidad_inventario_id", "identificador inválido")
		}
		unidad, err := s.inventarioRepo.FindUnidadByID(ctx, uid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apierror.NotFound("unidad de inventario")
			}
			return nil, err
		}
		if unidad.Item == nil {
			return nil, apierror.NotFound("artículo de la unidad")
		}
		if unidad.Cantidad < item.Cantidad {
			return nil, apierror.Conflict("stock insuficiente para la unidad " + uid.String())
		}

		precio := unidad.Item.PrecioVentaEfectivo()
		consignado := unidad.Item.Modalidad == model.ModalidadConsignacion
		if consignado {
			// Consigned articles sell at their age-discounted price and one at a time.
			if item.Cantidad != 1 {
				return nil, apierror.Validation("cantidad", "un artículo consignado se vende por unidad")
			}
			reg, err := s.consignacionDisponible(ctx, unidad.ValuacionItemID)
			if err != nil {
				return nil, err
			}
			precio = precio.Mul(FactorDescuento(SemanasListada(reg.FechaListado, ahora))).Round(2)
		}

		subtotal := precio.Mul(decimal.NewFromInt(int64(item.Cantidad))).Round(2)
		total = total.Add(subtotal)
		lineas = append(lineas, lineaResuelta{
			unidadID:       uid,
			itemID:         unidad.ValuacionItemID,
			consignado:     consignado,
			cantidad:       item.Cantidad,
			precioUnitario: precio,
			subtotal:       subtotal,
		})
	}

	// Payment pre-flight.
	estadoPago := model.PagoAprobado
	var pagoExternoID *string
	var clienteID *uuid.UUID

	switch req.MetodoPago {
	case "tarjeta":
		if req.TokenPago == nil {
			return nil, apierror.Validation("token_pago", "obligatorio para pagos con tarjeta")
		}
		resp, err := s.autorizarPago(ctx, *req.TokenPago, total)
		if err != nil {
			return nil, err
		}
		// Only a definitive gateway verdict may touch local state. A pending
		// or unknown status is treated like an unreachable gateway: nothing is
		// written and the front end retries.
		switch resp.Estado {
		case model.PagoAprobado:
			pagoExternoID = &resp.PagoExternoID
		case model.PagoRechazado:
			return nil, apierror.Validation("pago", "rechazado por la pasarela: "+resp.DetalleEstado)
		default:
			return nil, apierror.External("pasarela",
				fmt.Errorf("estado de pago no definitivo: %q", resp.Estado))
		}

	case "credito_tienda":
		if req.ClienteID == nil {
			return nil, apierror.Validation("cliente_id", "obligatorio para pagos con crédito en tienda")
		}
		cid, err := uuid.Parse(*req.ClienteID)
		if err != nil {
			return nil, apierror.Validation("cliente_id", "identificador inválido")
		}
		cliente, err := s.clienteRepo.FindByID(ctx, cid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apierror.NotFound("cliente")
			}
			return nil, err
		}
		if cliente.SaldoCredito.LessThan(total) {
			return nil, apierror.Conflict("saldo de crédito insuficiente")
		}
		clienteID = &cid
	}

	venta := model.Venta{
		UsuarioID:     usuarioID,
		Total:         total,
		Estado:        "completada",
		MetodoPago:    req.MetodoPago,
		PagoExternoID: pagoExternoID,
		EstadoPago:    estadoPago,
		FechaVenta:    ahora,
	}
	for _, l := range lineas {
		venta.Items = append(venta.Items, model.VentaItem{
			UnidadInventarioID: l.unidadID,
			Cantidad:           l.cantidad,
			PrecioUnitario:     l.precioUnitario,
		})
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, &venta); err != nil {
			return err
		}

		for _, l := range lineas {
			unidad, err := s.inventarioRepo.FindUnidadForUpdateTx(tx, l.unidadID)
			if err != nil {
				return err
			}
			// Re-check under lock: the pre-flight read was optimistic.
			if unidad.Cantidad < l.cantidad {
				return apierror.Conflict("stock insuficiente para la unidad " + l.unidadID.String())
			}
			if err := s.inventarioRepo.UpdateStockTx(tx, l.unidadID, -l.cantidad); err != nil {
				return err
			}
			if err := s.inventarioRepo.CreateMovimientoTx(tx, &model.MovimientoStock{
				UnidadID:      l.unidadID,
				Tipo:          "venta",
				Cantidad:      -l.cantidad,
				StockAnterior: unidad.Cantidad,
				StockNuevo:    unidad.Cantidad - l.cantidad,
				ReferenciaID:  &venta.ID,
			}); err != nil {
				return err
			}

			if l.consignado {
				if err := s.consignacion.RegistrarVentaTx(tx, l.itemID, l.precioUnitario, ahora); err != nil {
					return err
				}
			}
		}

		if clienteID != nil {
			return s.clienteRepo.AjustarSaldoCreditoTx(tx, *clienteID, total.Neg())
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return ventaToResponse(&venta), nil
}

func (s *ventaService) autorizarPago(ctx context.Context, token string, total decimal.Decimal) (*infra.PagoResponse, error) {
	payload := infra.PagoPayload{
		Token:       token,
		Monto:       total,
		Moneda:      "MXN",
		Descripcion: s.storeName,
	}

	var resp *infra.PagoResponse
	call := func() error {
		var err error
		resp, err = s.pasarela.Autorizar(ctx, payload)
		return err
	}

	var err error
	if s.cb != nil {
		err = s.cb.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		return nil, apierror.External("pasarela", err)
	}
	return resp, nil
}

// consignacionDisponible reads the consignment record behind an item and
// verifies it is still available for sale.
func (s *ventaService) consignacionDisponible(ctx context.Context, itemID uuid.UUID) (*model.RegistroConsignacion, error) {
	reg, err := s.consignacionRepo.FindByItemID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("registro de consignación")
		}
		return nil, err
	}
	if reg.Estado != model.ConsignacionDisponible {
		return nil, apierror.Conflict("el artículo consignado ya no está disponible (estado: " + reg.Estado + ")")
	}
	return reg, nil
}

// AplicarWebhookPago applies an asynchronous status correction from the
// gateway, keyed by the external payment id. Replays are no-ops.
func (s *ventaService) AplicarWebhookPago(ctx context.Context, req dto.WebhookPagoRequest) error {
	v, err := s.repo.FindByPagoExternoID(ctx, req.PagoExternoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("venta con pago externo " + req.PagoExternoID)
		}
		return err
	}
	if v.EstadoPago == req.Estado {
		return nil // idempotent replay
	}
	return s.repo.UpdateEstadoPago(ctx, v.ID, req.Estado)
}

func (s *ventaService) Obtener(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("venta")
		}
		return nil, err
	}
	return ventaToResponse(v), nil
}

func (s *ventaService) Listar(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error) {
	ventas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.VentaListResponse{
		Data:  make([]dto.VentaResponse, 0, len(ventas)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range ventas {
		resp.Data = append(resp.Data, *ventaToResponse(&ventas[i]))
	}
	return resp, nil
}

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	resp := &dto.VentaResponse{
		ID:            v.ID.String(),
		UsuarioID:     v.UsuarioID.String(),
		Total:         v.Total,
		Estado:        v.Estado,
		MetodoPago:    v.MetodoPago,
		EstadoPago:    v.EstadoPago,
		PagoExternoID: v.PagoExternoID,
		FechaVenta:    v.FechaVenta.Format("2006-01-02T15:04:05Z07:00"),
	}
	for _, item := range v.Items {
		resp.Items = append(resp.Items, dto.ItemVentaResponse{
			UnidadInventarioID: item.UnidadInventarioID.String(),
			Cantidad:           item.Cantidad,
			PrecioUnitario:     item.PrecioUnitario,
			Subtotal:           item.PrecioUnitario.Mul(decimal.NewFromInt(int64(item.Cantidad))).Round(2),
		})
	}
	return resp
}
