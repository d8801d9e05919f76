package service_test

import (
	"context"
	"errors"
	"testing"

	"entrepeques/internal/apierror"
	"entrepeques/internal/dto"
	"entrepeques/internal/infra"
	"entrepeques/internal/model"
	"entrepeques/internal/repository"
	"entrepeques/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubVentaRepo is an in-memory VentaRepository for testing.
type stubVentaRepo struct {
	ventas map[uuid.UUID]*model.Venta
}

func newStubVentaRepo() *stubVentaRepo {
	return &stubVentaRepo{ventas: make(map[uuid.UUID]*model.Venta)}
}

func (r *stubVentaRepo) Create(_ context.Context, _ *gorm.DB, v *model.Venta) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	r.ventas[v.ID] = v
	return nil
}

func (r *stubVentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	v, ok := r.ventas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (r *stubVentaRepo) FindByPagoExternoID(_ context.Context, pagoExternoID string) (*model.Venta, error) {
	for _, v := range r.ventas {
		if v.PagoExternoID != nil && *v.PagoExternoID == pagoExternoID {
			return v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubVentaRepo) UpdateEstadoPago(_ context.Context, id uuid.UUID, estadoPago string) error {
	v, ok := r.ventas[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	v.EstadoPago = estadoPago
	return nil
}

func (r *stubVentaRepo) List(_ context.Context, _ dto.VentaFilter) ([]model.Venta, int64, error) {
	var out []model.Venta
	for _, v := range r.ventas {
		out = append(out, *v)
	}
	return out, int64(len(out)), nil
}

func (r *stubVentaRepo) DB() *gorm.DB { return nil }

var _ repository.VentaRepository = (*stubVentaRepo)(nil)

// stubPasarela scripts the gateway response for a test.
type stubPasarela struct {
	resp     *infra.PagoResponse
	err      error
	llamadas int
}

func (p *stubPasarela) Autorizar(_ context.Context, _ infra.PagoPayload) (*infra.PagoResponse, error) {
	p.llamadas++
	return p.resp, p.err
}

var _ service.Pasarela = (*stubPasarela)(nil)

// ── Fixture ──────────────────────────────────────────────────────────────────

type ventaFixture struct {
	svc              service.VentaService
	repo             *stubVentaRepo
	inventarioRepo   *stubInventarioRepo
	clienteRepo      *stubClienteRepo
	consignacionRepo *stubConsignacionRepo
	pasarela         *stubPasarela
}

func buildVentaSvc() *ventaFixture {
	repo := newStubVentaRepo()
	inventarioRepo := newStubInventarioRepo()
	clienteRepo := newStubClienteRepo()
	consignacionRepo := newStubConsignacionRepo()
	pasarela := &stubPasarela{}
	consignacionSvc := service.NewConsignacionService(consignacionRepo, inventarioRepo)

	svc := service.NewVentaService(
		repo, inventarioRepo, clienteRepo, consignacionRepo, consignacionSvc,
		pasarela, nil, "Entrepeques")
	return &ventaFixture{
		svc:              svc,
		repo:             repo,
		inventarioRepo:   inventarioRepo,
		clienteRepo:      clienteRepo,
		consignacionRepo: consignacionRepo,
		pasarela:         pasarela,
	}
}

// seedUnidad registers a direct-purchase article on the floor.
func seedUnidad(inv *stubInventarioRepo, precioVenta string, cantidad int) *model.UnidadInventario {
	item := &model.ValuacionItem{
		ID:                  uuid.New(),
		Modalidad:           model.ModalidadCompraDirecta,
		PrecioVentaSugerido: decimal.RequireFromString(precioVenta),
		Cantidad:            cantidad,
	}
	unidad := &model.UnidadInventario{
		ID:              uuid.New(),
		ValuacionItemID: item.ID,
		Cantidad:        cantidad,
		Item:            item,
	}
	inv.unidades[unidad.ID] = unidad
	return unidad
}

func ventaDe(unidad *model.UnidadInventario, cantidad int, metodo string) dto.RegistrarVentaRequest {
	return dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{
			{UnidadInventarioID: unidad.ID.String(), Cantidad: cantidad},
		},
		MetodoPago: metodo,
	}
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestRegistrarVenta_Efectivo(t *testing.T) {
	f := buildVentaSvc()
	unidad := seedUnidad(f.inventarioRepo, "250.00", 3)
	vendedor := uuid.New()

	resp, err := f.svc.RegistrarVenta(context.Background(), vendedor, ventaDe(unidad, 2, "efectivo"))
	require.NoError(t, err)

	assert.Equal(t, "500.00", resp.Total.StringFixed(2))
	assert.Equal(t, "completada", resp.Estado)
	assert.Equal(t, model.PagoAprobado, resp.EstadoPago)
	assert.Nil(t, resp.PagoExternoID)
	// the seller from the token is stamped on the sale
	assert.Equal(t, vendedor.String(), resp.UsuarioID)

	assert.Equal(t, 1, unidad.Cantidad)
	require.Len(t, f.inventarioRepo.movimientos, 1)
	assert.Equal(t, "venta", f.inventarioRepo.movimientos[0].Tipo)
	assert.Equal(t, -2, f.inventarioRepo.movimientos[0].Cantidad)
	// the gateway is never consulted for cash
	assert.Equal(t, 0, f.pasarela.llamadas)
}

func TestRegistrarVenta_StockInsuficiente(t *testing.T) {
	f := buildVentaSvc()
	unidad := seedUnidad(f.inventarioRepo, "250.00", 1)

	_, err := f.svc.RegistrarVenta(context.Background(), uuid.New(), ventaDe(unidad, 2, "efectivo"))
	var conflict *apierror.ConflictError
	require.ErrorAs(t, err, &conflict)

	assert.Empty(t, f.repo.ventas)
	assert.Equal(t, 1, unidad.Cantidad)
}

func TestRegistrarVenta_TarjetaAprobada(t *testing.T) {
	f := buildVentaSvc()
	unidad := seedUnidad(f.inventarioRepo, "250.00", 1)
	f.pasarela.resp = &infra.PagoResponse{
		PagoExternoID: "pg_123",
		Estado:        model.PagoAprobado,
	}

	req := ventaDe(unidad, 1, "tarjeta")
	token := "tok_abcdef12"
	req.TokenPago = &token

	resp, err := f.svc.RegistrarVenta(context.Background(), uuid.New(), req)
	require.NoError(t, err)
	require.NotNil(t, resp.PagoExternoID)
	assert.Equal(t, "pg_123", *resp.PagoExternoID)
	assert.Equal(t, 1, f.pasarela.llamadas)
	assert.Equal(t, 0, unidad.Cantidad)
}

func TestRegistrarVenta_TarjetaRechazada(t *testing.T) {
	f := buildVentaSvc()
	unidad := seedUnidad(f.inventarioRepo, "250.00", 1)
	f.pasarela.resp = &infra.PagoResponse{
		PagoExternoID: "pg_456",
		Estado:        model.PagoRechazado,
		DetalleEstado: "fondos insuficientes",
	}

	req := ventaDe(unidad, 1, "tarjeta")
	token := "tok_abcdef12"
	req.TokenPago = &token

	_, err := f.svc.RegistrarVenta(context.Background(), uuid.New(), req)
	var valErr *apierror.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields, "pago")

	// a rejected charge leaves no trace
	assert.Empty(t, f.repo.ventas)
	assert.Equal(t, 1, unidad.Cantidad)
	assert.Empty(t, f.inventarioRepo.movimientos)
}

func TestRegistrarVenta_PasarelaSinVeredicto(t *testing.T) {
	f := buildVentaSvc()
	unidad := seedUnidad(f.inventarioRepo, "250.00", 1)
	// the gateway answered but took no decision yet
	f.pasarela.resp = &infra.PagoResponse{
		PagoExternoID: "pg_999",
		Estado:        model.PagoPendiente,
	}

	req := ventaDe(unidad, 1, "tarjeta")
	token := "tok_abcdef12"
	req.TokenPago = &token

	_, err := f.svc.RegistrarVenta(context.Background(), uuid.New(), req)
	var external *apierror.ExternalServiceError
	require.ErrorAs(t, err, &external)

	// an indeterminate verdict commits nothing
	assert.Empty(t, f.repo.ventas)
	assert.Equal(t, 1, unidad.Cantidad)
	assert.Empty(t, f.inventarioRepo.movimientos)
}

func TestRegistrarVenta_PasarelaCaida(t *testing.T) {
	f := buildVentaSvc()
	unidad := seedUnidad(f.inventarioRepo, "250.00", 1)
	f.pasarela.err = errors.New("connection refused")

	req := ventaDe(unidad, 1, "tarjeta")
	token := "tok_abcdef12"
	req.TokenPago = &token

	_, err := f.svc.RegistrarVenta(context.Background(), uuid.New(), req)
	var external *apierror.ExternalServiceError
	require.ErrorAs(t, err, &external)

	assert.Empty(t, f.repo.ventas)
	assert.Equal(t, 1, unidad.Cantidad)
}

func TestRegistrarVenta_TarjetaSinToken(t *testing.T) {
	f := buildVentaSvc()
	unidad := seedUnidad(f.inventarioRepo, "250.00", 1)

	_, err := f.svc.RegistrarVenta(context.Background(), uuid.New(), ventaDe(unidad, 1, "tarjeta"))
	var valErr *apierror.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields, "token_pago")
}

func TestRegistrarVenta_CreditoTienda(t *testing.T) {
	f := buildVentaSvc()
	unidad := seedUnidad(f.inventarioRepo, "250.00", 1)
	cliente := &model.Cliente{
		ID:           uuid.New(),
		Nombre:       "María López",
		Telefono:     "5512345678",
		SaldoCredito: decimal.RequireFromString("300.00"),
		Activo:       true,
	}
	f.clienteRepo.clientes[cliente.ID] = cliente

	req := ventaDe(unidad, 1, "credito_tienda")
	cid := cliente.ID.String()
	req.ClienteID = &cid

	_, err := f.svc.RegistrarVenta(context.Background(), uuid.New(), req)
	require.NoError(t, err)
	assert.Equal(t, "50.00", cliente.SaldoCredito.StringFixed(2))
}

func TestRegistrarVenta_CreditoInsuficiente(t *testing.T) {
	f := buildVentaSvc()
	unidad := seedUnidad(f.inventarioRepo, "250.00", 1)
	cliente := &model.Cliente{
		ID:           uuid.New(),
		Nombre:       "María López",
		Telefono:     "5512345678",
		SaldoCredito: decimal.RequireFromString("100.00"),
		Activo:       true,
	}
	f.clienteRepo.clientes[cliente.ID] = cliente

	req := ventaDe(unidad, 1, "credito_tienda")
	cid := cliente.ID.String()
	req.ClienteID = &cid

	_, err := f.svc.RegistrarVenta(context.Background(), uuid.New(), req)
	var conflict *apierror.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "100.00", cliente.SaldoCredito.StringFixed(2))
	assert.Empty(t, f.repo.ventas)
}

func TestRegistrarVenta_ConsignadoPrecioConDescuento(t *testing.T) {
	f := buildVentaSvc()
	// listed 18 full weeks ago → 0.80 tier over the 400.00 list price
	reg := seedConsignacion(f.consignacionRepo, f.inventarioRepo, model.ConsignacionDisponible, 18*7)
	unidad, err := f.inventarioRepo.FindUnidadByItemForUpdateTx(nil, reg.ValuacionItemID)
	require.NoError(t, err)

	resp, err := f.svc.RegistrarVenta(context.Background(), uuid.New(), ventaDe(unidad, 1, "efectivo"))
	require.NoError(t, err)
	assert.Equal(t, "320.00", resp.Total.StringFixed(2))

	// the consignment record transitions with the real sale price frozen in
	assert.Equal(t, model.ConsignacionVendidaSinPagar, reg.Estado)
	require.NotNil(t, reg.PrecioVentaReal)
	assert.Equal(t, "320.00", reg.PrecioVentaReal.StringFixed(2))
	assert.Equal(t, 0, unidad.Cantidad)
}

func TestRegistrarVenta_ConsignadoPorUnidad(t *testing.T) {
	f := buildVentaSvc()
	reg := seedConsignacion(f.consignacionRepo, f.inventarioRepo, model.ConsignacionDisponible, 10)
	unidad, err := f.inventarioRepo.FindUnidadByItemForUpdateTx(nil, reg.ValuacionItemID)
	require.NoError(t, err)
	unidad.Cantidad = 2 // corrupted stock should still not allow a multi-unit sale

	_, err = f.svc.RegistrarVenta(context.Background(), uuid.New(), ventaDe(unidad, 2, "efectivo"))
	var valErr *apierror.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields, "cantidad")
}

func TestRegistrarVenta_ConsignadoYaVendido(t *testing.T) {
	f := buildVentaSvc()
	reg := seedConsignacion(f.consignacionRepo, f.inventarioRepo, model.ConsignacionVendidaSinPagar, 10)
	unidad, err := f.inventarioRepo.FindUnidadByItemForUpdateTx(nil, reg.ValuacionItemID)
	require.NoError(t, err)

	_, err = f.svc.RegistrarVenta(context.Background(), uuid.New(), ventaDe(unidad, 1, "efectivo"))
	var conflict *apierror.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestAplicarWebhookPago(t *testing.T) {
	f := buildVentaSvc()
	pagoID := "pg_789"
	venta := &model.Venta{
		ID:            uuid.New(),
		MetodoPago:    "tarjeta",
		EstadoPago:    model.PagoAprobado,
		PagoExternoID: &pagoID,
	}
	f.repo.ventas[venta.ID] = venta

	err := f.svc.AplicarWebhookPago(context.Background(), dto.WebhookPagoRequest{
		PagoExternoID: pagoID,
		Estado:        model.PagoReembolsado,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PagoReembolsado, venta.EstadoPago)
}

func TestAplicarWebhookPago_ReintentoIdempotente(t *testing.T) {
	f := buildVentaSvc()
	pagoID := "pg_789"
	venta := &model.Venta{
		ID:            uuid.New(),
		MetodoPago:    "tarjeta",
		EstadoPago:    model.PagoReembolsado,
		PagoExternoID: &pagoID,
	}
	f.repo.ventas[venta.ID] = venta

	// the gateway replays the same notification — nothing changes, no error
	err := f.svc.AplicarWebhookPago(context.Background(), dto.WebhookPagoRequest{
		PagoExternoID: pagoID,
		Estado:        model.PagoReembolsado,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PagoReembolsado, venta.EstadoPago)
}

func TestAplicarWebhookPago_PagoDesconocido(t *testing.T) {
	f := buildVentaSvc()

	err := f.svc.AplicarWebhookPago(context.Background(), dto.WebhookPagoRequest{
		PagoExternoID: "pg_inexistente",
		Estado:        model.PagoRechazado,
	})
	var notFound *apierror.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
