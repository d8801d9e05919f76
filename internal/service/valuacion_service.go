package service

import (
	"context"
	"errors"
	"fmt"

	"entrepeques/internal/apierror"
	"entrepeques/internal/dto"
	"entrepeques/internal/model"
	"entrepeques/internal/repository"
	"entrepeques/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ValuacionService interface {
	Crear(ctx context.Context, valuadorID uuid.UUID, req dto.CrearValuacionRequest) (*dto.ValuacionResponse, error)
	CalcularLote(ctx context.Context, req dto.CalcularLoteRequest) (*dto.CalculoLoteResponse, error)
	FinalizarCompleta(ctx context.Context, valuadorID uuid.UUID, req dto.FinalizarCompletaRequest) (*dto.FinalizarCompletaResponse, error)
	Cancelar(ctx context.Context, id uuid.UUID, motivo string) error
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ValuacionResponse, error)
	Listar(ctx context.Context, filter dto.ValuacionFilter) (*dto.ValuacionListResponse, error)
}

type valuacionService struct {
	repo             repository.ValuacionRepository
	clienteRepo      repository.ClienteRepository
	inventarioRepo   repository.InventarioRepository
	consignacionRepo repository.ConsignacionRepository
	pricing          PricingService
	dispatcher       *worker.Dispatcher
}

func NewValuacionService(
	repo repository.ValuacionRepository,
	clienteRepo repository.ClienteRepository,
	inventarioRepo repository.InventarioRepository,
	consignacionRepo repository.ConsignacionRepository,
	pricing PricingService,
	dispatcher *worker.Dispatcher,
) ValuacionService {
	return &valuacionService{
		repo:             repo,
		clienteRepo:      clienteRepo,
		inventarioRepo:   inventarioRepo,
		consignacionRepo: consignacionRepo,
		pricing:          pricing,
		dispatcher:       dispatcher,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

func (s *valuacionService) Crear(ctx context.Context, valuadorID uuid.UUID, req dto.CrearValuacionRequest) (*dto.ValuacionResponse, error) {
	clienteID, err := uuid.Parse(req.ClienteID)
	if err != nil {
		return nil, apierror.Validation("cliente_id", "identificador inválido")
	}
	cliente, err := s.clienteRepo.FindByID(ctx, clienteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("cliente")
		}
		return nil, err
	}

	v := &model.Valuacion{
		ClienteID:  clienteID,
		ValuadorID: valuadorID,
		Estado:     model.ValuacionPendiente,
		Notas:      req.Notas,
		Cliente:    cliente,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	return valuacionToResponse(v), nil
}

// CalcularLote prices up to 100 items in one call. Items fail independently:
// a bad cell yields an error entry at its index while the rest of the batch
// resolves normally.
func (s *valuacionService) CalcularLote(ctx context.Context, req dto.CalcularLoteRequest) (*dto.CalculoLoteResponse, error) {
	resp := &dto.CalculoLoteResponse{
		Resultados: make([]dto.CalculoLoteItem, 0, len(req.Items)),
	}
	for i, item := range req.Items {
		calc, err := s.pricing.CalcularItem(ctx, item)
		if err != nil {
			msg := err.Error()
			resp.Resultados = append(resp.Resultados, dto.CalculoLoteItem{Indice: i, Ref: item.Ref, Error: &msg})
			continue
		}
		resp.Resultados = append(resp.Resultados, dto.CalculoLoteItem{Indice: i, Ref: item.Ref, Resultado: calc})
	}
	return resp, nil
}

// FinalizarCompleta closes a valuation in a single transaction: the items are
// persisted with their frozen prices, every item becomes a stock unit with an
// intake movement, consignment items open their financial record, and store
// credit is accredited. Either all of it lands or none of it does.
//
// Prices are resolved before the transaction opens — the gateway of record is
// the pricing engine, and a pricing failure must not leave a half-written
// valuation behind.
func (s *valuacionService) FinalizarCompleta(ctx context.Context, valuadorID uuid.UUID, req dto.FinalizarCompletaRequest) (*dto.FinalizarCompletaResponse, error) {
	cliente, clienteNuevo, err := s.resolverCliente(ctx, req)
	if err != nil {
		return nil, err
	}
	clienteID := cliente.ID // uuid.Nil for a walk-in until the tx registers them

	// Resolve the target valuation, if reopening a pending one.
	var existente *model.Valuacion
	if req.ValuacionID != nil {
		if clienteNuevo {
			return nil, apierror.Validation("cliente", "una valuación pendiente ya tiene un cliente registrado")
		}
		vid, err := uuid.Parse(*req.ValuacionID)
		if err != nil {
			return nil, apierror.Validation("valuacion_id", "identificador inválido")
		}
		existente, err = s.repo.FindByID(ctx, vid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apierror.NotFound("valuación")
			}
			return nil, err
		}
		if existente.Estado != model.ValuacionPendiente {
			return nil, apierror.Conflict("la valuación ya fue " + estadoLegible(existente.Estado))
		}
		if existente.ClienteID != clienteID {
			return nil, apierror.Validation("cliente_id", "la valuación pertenece a otro cliente")
		}
	}

	// Pre-flight: price every item outside the transaction.
	items := make([]model.ValuacionItem, 0, len(req.Items))
	totalCompra := decimal.Zero
	totalConsignacion := decimal.Zero
	creditoTotal := decimal.Zero
	consignaciones := 0

	for i, ir := range req.Items {
		item, err := s.resolverItem(ctx, ir)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		cantidad := decimal.NewFromInt(int64(item.Cantidad))
		switch item.Modalidad {
		case model.ModalidadCompraDirecta:
			totalCompra = totalCompra.Add(item.PrecioCompraEfectivo().Mul(cantidad))
		case model.ModalidadCreditoTienda:
			creditoTotal = creditoTotal.Add(item.PrecioCreditoTienda.Mul(cantidad))
		case model.ModalidadConsignacion:
			totalConsignacion = totalConsignacion.Add(item.PrecioConsignacion.Mul(cantidad))
			consignaciones++
		}
		items = append(items, *item)
	}

	var valuacionID uuid.UUID
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if clienteNuevo {
			if err := s.clienteRepo.CreateTx(tx, cliente); err != nil {
				return err
			}
			clienteID = cliente.ID
		}

		if existente != nil {
			valuacionID = existente.ID
		} else {
			nueva := &model.Valuacion{
				ClienteID:  clienteID,
				ValuadorID: valuadorID,
				Estado:     model.ValuacionPendiente,
				Notas:      req.Notas,
			}
			if err := s.repo.CreateTx(tx, nueva); err != nil {
				return err
			}
			valuacionID = nueva.ID
		}

		for i := range items {
			item := &items[i]
			item.ValuacionID = valuacionID
			if err := s.repo.CreateItemTx(tx, item); err != nil {
				return err
			}

			unidad := &model.UnidadInventario{
				ValuacionItemID: item.ID,
				Cantidad:        item.Cantidad,
			}
			if err := s.inventarioRepo.CreateUnidadTx(tx, unidad); err != nil {
				return err
			}
			if err := s.inventarioRepo.CreateMovimientoTx(tx, &model.MovimientoStock{
				UnidadID:      unidad.ID,
				Tipo:          "alta_valuacion",
				Cantidad:      item.Cantidad,
				StockAnterior: 0,
				StockNuevo:    item.Cantidad,
				Motivo:        "alta por valuación finalizada",
				ReferenciaID:  &valuacionID,
			}); err != nil {
				return err
			}

			if item.Modalidad == model.ModalidadConsignacion {
				if err := s.consignacionRepo.CreateTx(tx, &model.RegistroConsignacion{
					ValuacionItemID:        item.ID,
					ClienteID:              clienteID,
					Estado:                 model.ConsignacionDisponible,
					PorcentajeConsignacion: decimal.NewFromInt(50),
				}); err != nil {
					return err
				}
			}
		}

		if creditoTotal.IsPositive() {
			if err := s.clienteRepo.AjustarSaldoCreditoTx(tx, clienteID, creditoTotal); err != nil {
				return err
			}
		}

		err := s.repo.FinalizarTx(tx, valuacionID, map[string]interface{}{
			"total_compra":       totalCompra.Round(2),
			"total_consignacion": totalConsignacion.Round(2),
		})
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.Conflict("la valuación fue finalizada por otra operación")
		}
		return err
	})
	if txErr != nil {
		return nil, txErr
	}

	// The contract is generated off the request path; a queue failure only
	// delays the email, it never undoes the valuation.
	if consignaciones > 0 && s.dispatcher != nil {
		if err := s.dispatcher.Dispatch(ctx, worker.QueueContratos, worker.ContratoJob{
			ValuacionID: valuacionID.String(),
		}); err != nil {
			log.Error().Err(err).Str("valuacion_id", valuacionID.String()).Msg("no se pudo encolar el contrato")
		}
	}

	v := &model.Valuacion{
		ID:                valuacionID,
		ClienteID:         clienteID,
		ValuadorID:        valuadorID,
		Estado:            model.ValuacionCompletada,
		Notas:             req.Notas,
		TotalCompra:       totalCompra.Round(2),
		TotalConsignacion: totalConsignacion.Round(2),
		Cliente:           cliente,
		Items:             items,
	}
	return &dto.FinalizarCompletaResponse{
		Valuacion:             *valuacionToResponse(v),
		UnidadesCreadas:       len(items),
		ConsignacionesCreadas: consignaciones,
		CreditoAcreditado:     creditoTotal.Round(2),
	}, nil
}

// resolverCliente resolves the consignor of a finalize request. An explicit
// cliente_id must reference a registered client. Walk-in data is matched by
// phone number; an unknown phone yields a client row to be created inside the
// closing transaction (reported by the second return value).
func (s *valuacionService) resolverCliente(ctx context.Context, req dto.FinalizarCompletaRequest) (*model.Cliente, bool, error) {
	if req.ClienteID != "" {
		clienteID, err := uuid.Parse(req.ClienteID)
		if err != nil {
			return nil, false, apierror.Validation("cliente_id", "identificador inválido")
		}
		cliente, err := s.clienteRepo.FindByID(ctx, clienteID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, false, apierror.NotFound("cliente")
			}
			return nil, false, err
		}
		return cliente, false, nil
	}

	if req.Cliente == nil {
		return nil, false, apierror.Validation("cliente_id", "se requiere cliente_id o los datos del cliente")
	}
	existente, err := s.clienteRepo.FindByTelefono(ctx, req.Cliente.Telefono)
	switch {
	case err == nil:
		return existente, false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &model.Cliente{
			Nombre:         req.Cliente.Nombre,
			Telefono:       req.Cliente.Telefono,
			Email:          req.Cliente.Email,
			Identificacion: req.Cliente.Identificacion,
			Activo:         true,
		}, true, nil
	default:
		return nil, false, err
	}
}

// resolverItem prices one request item and freezes the result into a model
// row. Appraiser overrides are bounded by the declared new price.
func (s *valuacionService) resolverItem(ctx context.Context, ir dto.ItemValuacionRequest) (*model.ValuacionItem, error) {
	calc, err := s.pricing.CalcularItem(ctx, ir)
	if err != nil {
		return nil, err
	}

	categoriaID, err := uuid.Parse(ir.CategoriaID)
	if err != nil {
		return nil, apierror.Validation("categoria_id", "identificador inválido")
	}
	subcategoriaID, _ := uuid.Parse(ir.SubcategoriaID) // validated by CalcularItem

	var marcaID *uuid.UUID
	if ir.MarcaID != nil {
		mid, err := uuid.Parse(*ir.MarcaID)
		if err != nil {
			return nil, apierror.Validation("marca_id", "identificador inválido")
		}
		marcaID = &mid
	}

	for campo, override := range map[string]*decimal.Decimal{
		"precio_compra_final": ir.PrecioCompraFinal,
		"precio_venta_final":  ir.PrecioVentaFinal,
	} {
		if override == nil {
			continue
		}
		if !override.IsPositive() {
			return nil, apierror.Validation(campo, "debe ser mayor a cero")
		}
		if override.GreaterThan(ir.PrecioNuevo) {
			return nil, apierror.Validation(campo, "no puede exceder el precio de artículo nuevo")
		}
	}

	item := &model.ValuacionItem{
		CategoriaID:          categoriaID,
		SubcategoriaID:       subcategoriaID,
		MarcaID:              marcaID,
		EstadoArticulo:       ir.EstadoArticulo,
		RenombreMarca:        ir.RenombreMarca,
		Modalidad:            ir.Modalidad,
		EstadoFisico:         ir.EstadoFisico,
		Demanda:              ir.Demanda,
		Limpieza:             ir.Limpieza,
		Caracteristicas:      ir.Caracteristicas,
		PrecioNuevo:          ir.PrecioNuevo,
		Cantidad:             ir.Cantidad,
		PuntajeCompra:        calc.PuntajeCompra,
		PuntajeVenta:         calc.PuntajeVenta,
		PrecioCompraSugerido: calc.PrecioCompraSugerido,
		PrecioVentaSugerido:  calc.PrecioVentaSugerido,
		PrecioCreditoTienda:  calc.PrecioCreditoTienda,
		PrecioConsignacion:   calc.PrecioConsignacion,
		PrecioCompraFinal:    ir.PrecioCompraFinal,
		PrecioVentaFinal:     ir.PrecioVentaFinal,
		Notas:                ir.Notas,
	}

	// An overridden purchase price shifts the modality prices with it.
	if ir.PrecioCompraFinal != nil {
		item.PrecioCreditoTienda = ir.PrecioCompraFinal.Mul(factorCreditoTienda).Round(2)
		item.PrecioConsignacion = ir.PrecioCompraFinal.Mul(factorConsignacion).Round(2)
	}
	return item, nil
}

func (s *valuacionService) Cancelar(ctx context.Context, id uuid.UUID, motivo string) error {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("valuación")
		}
		return err
	}
	if v.Estado != model.ValuacionPendiente {
		return apierror.Conflict("solo una valuación pendiente puede cancelarse (estado actual: " + v.Estado + ")")
	}
	log.Info().Str("valuacion_id", id.String()).Str("motivo", motivo).Msg("valuación cancelada")
	return s.repo.UpdateEstado(ctx, id, model.ValuacionCancelada)
}

func (s *valuacionService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ValuacionResponse, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("valuación")
		}
		return nil, err
	}
	return valuacionToResponse(v), nil
}

func (s *valuacionService) Listar(ctx context.Context, filter dto.ValuacionFilter) (*dto.ValuacionListResponse, error) {
	valuaciones, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.ValuacionListResponse{
		Data:  make([]dto.ValuacionResponse, 0, len(valuaciones)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range valuaciones {
		resp.Data = append(resp.Data, *valuacionToResponse(&valuaciones[i]))
	}
	return resp, nil
}

func estadoLegible(estado string) string {
	switch estado {
	case model.ValuacionCompletada:
		return "completada"
	case model.ValuacionCancelada:
		return "cancelada"
	default:
		return estado
	}
}

func itemToResponse(item *model.ValuacionItem) dto.ItemValuacionResponse {
	resp := dto.ItemValuacionResponse{
		ID:                   item.ID.String(),
		CategoriaID:          item.CategoriaID.String(),
		SubcategoriaID:       item.SubcategoriaID.String(),
		EstadoArticulo:       item.EstadoArticulo,
		RenombreMarca:        item.RenombreMarca,
		Modalidad:            item.Modalidad,
		EstadoFisico:         item.EstadoFisico,
		Demanda:              item.Demanda,
		Limpieza:             item.Limpieza,
		Caracteristicas:      item.Caracteristicas,
		PrecioNuevo:          item.PrecioNuevo,
		Cantidad:             item.Cantidad,
		PuntajeCompra:        item.PuntajeCompra,
		PuntajeVenta:         item.PuntajeVenta,
		PrecioCompraSugerido: item.PrecioCompraSugerido,
		PrecioVentaSugerido:  item.PrecioVentaSugerido,
		PrecioCreditoTienda:  item.PrecioCreditoTienda,
		PrecioConsignacion:   item.PrecioConsignacion,
		PrecioCompraFinal:    item.PrecioCompraFinal,
		PrecioVentaFinal:     item.PrecioVentaFinal,
		Notas:                item.Notas,
	}
	if item.MarcaID != nil {
		m := item.MarcaID.String()
		resp.MarcaID = &m
	}
	return resp
}

func valuacionToResponse(v *model.Valuacion) *dto.ValuacionResponse {
	resp := &dto.ValuacionResponse{
		ID:                v.ID.String(),
		ClienteID:         v.ClienteID.String(),
		ValuadorID:        v.ValuadorID.String(),
		Estado:            v.Estado,
		FechaValuacion:    v.FechaValuacion.Format("2006-01-02T15:04:05Z07:00"),
		Notas:             v.Notas,
		TotalCompra:       v.TotalCompra,
		TotalConsignacion: v.TotalConsignacion,
		Items:             make([]dto.ItemValuacionResponse, 0, len(v.Items)),
	}
	if v.Cliente != nil {
		resp.Cliente = clienteToResponse(v.Cliente)
	}
	for i := range v.Items {
		resp.Items = append(resp.Items, itemToResponse(&v.Items[i]))
	}
	return resp
}
