package service_test

import (
	"context"
	"testing"

	"entrepeques/internal/apierror"
	"entrepeques/internal/dto"
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

// stubValuacionRepo is an in-memory ValuacionRepository for testing.
type stubValuacionRepo struct {
	valuaciones map[uuid.UUID]*model.Valuacion
	items       []model.ValuacionItem
}

func newStubValuacionRepo() *stubValuacionRepo {
	return &stubValuacionRepo{valuaciones: make(map[uuid.UUID]*model.Valuacion)}
}

func (r *stubValuacionRepo) Create(_ context.Context, v *model.Valuacion) error {
	return r.CreateTx(nil, v)
}

func (r *stubValuacionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Valuacion, error) {
	v, ok := r.valuaciones[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (r *stubValuacionRepo) List(_ context.Context, _ dto.ValuacionFilter) ([]model.Valuacion, int64, error) {
	var out []model.Valuacion
	for _, v := range r.valuaciones {
		out = append(out, *v)
	}
	return out, int64(len(out)), nil
}

func (r *stubValuacionRepo) UpdateEstado(_ context.Context, id uuid.UUID, estado string) error {
	v, ok := r.valuaciones[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	v.Estado = estado
	return nil
}

func (r *stubValuacionRepo) CreateTx(_ *gorm.DB, v *model.Valuacion) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	r.valuaciones[v.ID] = v
	return nil
}

func (r *stubValuacionRepo) CreateItemTx(_ *gorm.DB, item *model.ValuacionItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.items = append(r.items, *item)
	return nil
}

func (r *stubValuacionRepo) FinalizarTx(_ *gorm.DB, id uuid.UUID, totales map[string]interface{}) error {
	v, ok := r.valuaciones[id]
	if !ok || v.Estado != model.ValuacionPendiente {
		return gorm.ErrRecordNotFound
	}
	v.Estado = model.ValuacionCompletada
	if t, ok := totales["total_compra"].(decimal.Decimal); ok {
		v.TotalCompra = t
	}
	if t, ok := totales["total_consignacion"].(decimal.Decimal); ok {
		v.TotalConsignacion = t
	}
	return nil
}

func (r *stubValuacionRepo) DB() *gorm.DB { return nil }

var _ repository.ValuacionRepository = (*stubValuacionRepo)(nil)

// stubClienteRepo is an in-memory ClienteRepository shared by the valuation,
// client and sale tests. telefonoErr, when set, scripts a failure of the
// phone lookup.
type stubClienteRepo struct {
	clientes    map[uuid.UUID]*model.Cliente
	telefonoErr error
}

func newStubClienteRepo() *stubClienteRepo {
	return &stubClienteRepo{clientes: make(map[uuid.UUID]*model.Cliente)}
}

func (r *stubClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	return r.CreateTx(nil, c)
}

func (r *stubClienteRepo) CreateTx(_ *gorm.DB, c *model.Cliente) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.clientes[c.ID] = c
	return nil
}

func (r *stubClienteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	c, ok := r.clientes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubClienteRepo) FindByTelefono(_ context.Context, telefono string) (*model.Cliente, error) {
	if r.telefonoErr != nil {
		return nil, r.telefonoErr
	}
	for _, c := range r.clientes {
		if c.Telefono == telefono {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubClienteRepo) List(_ context.Context, _ dto.ClienteFilter) ([]model.Cliente, int64, error) {
	var out []model.Cliente
	for _, c := range r.clientes {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *stubClienteRepo) Update(_ context.Context, c *model.Cliente) error {
	r.clientes[c.ID] = c
	return nil
}

func (r *stubClienteRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	c, ok := r.clientes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Activo = false
	return nil
}

func (r *stubClienteRepo) AjustarSaldoCreditoTx(_ *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	c, ok := r.clientes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.SaldoCredito = c.SaldoCredito.Add(delta)
	return nil
}

func (r *stubClienteRepo) DB() *gorm.DB { return nil }

var _ repository.ClienteRepository = (*stubClienteRepo)(nil)

// ── Fixture ──────────────────────────────────────────────────────────────────

type valuacionFixture struct {
	svc              service.ValuacionService
	repo             *stubValuacionRepo
	clienteRepo      *stubClienteRepo
	inventarioRepo   *stubInventarioRepo
	consignacionRepo *stubConsignacionRepo
	cliente          *model.Cliente
	sub              *model.Subcategoria
}

func buildValuacionSvc(t *testing.T) *valuacionFixture {
	t.Helper()

	pricingRepo := newStubPricingRepo()
	sub := seedCarriolas(pricingRepo)
	pricing := service.NewPricingService(pricingRepo, nil)

	repo := newStubValuacionRepo()
	clienteRepo := newStubClienteRepo()
	inventarioRepo := newStubInventarioRepo()
	consignacionRepo := newStubConsignacionRepo()

	cliente := &model.Cliente{
		ID:           uuid.New(),
		Nombre:       "María López",
		Telefono:     "5512345678",
		SaldoCredito: decimal.Zero,
		Activo:       true,
	}
	clienteRepo.clientes[cliente.ID] = cliente

	svc := service.NewValuacionService(repo, clienteRepo, inventarioRepo, consignacionRepo, pricing, nil)
	return &valuacionFixture{
		svc:              svc,
		repo:             repo,
		clienteRepo:      clienteRepo,
		inventarioRepo:   inventarioRepo,
		consignacionRepo: consignacionRepo,
		cliente:          cliente,
		sub:              sub,
	}
}

func (f *valuacionFixture) item(modalidad string, cantidad int) dto.ItemValuacionRequest {
	req := itemRequest(f.sub)
	req.Modalidad = modalidad
	req.Cantidad = cantidad
	return req
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestCrearValuacion(t *testing.T) {
	f := buildValuacionSvc(t)

	resp, err := f.svc.Crear(context.Background(), uuid.New(), dto.CrearValuacionRequest{
		ClienteID: f.cliente.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, model.ValuacionPendiente, resp.Estado)
	assert.Equal(t, f.cliente.ID.String(), resp.ClienteID)
}

func TestCrearValuacion_ClienteInexistente(t *testing.T) {
	f := buildValuacionSvc(t)

	_, err := f.svc.Crear(context.Background(), uuid.New(), dto.CrearValuacionRequest{
		ClienteID: uuid.NewString(),
	})
	var notFound *apierror.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestFinalizarCompleta_Mixta(t *testing.T) {
	f := buildValuacionSvc(t)

	// base prices per unit: compra 192.78, crédito 212.06, consignación 231.34
	resp, err := f.svc.FinalizarCompleta(context.Background(), uuid.New(), dto.FinalizarCompletaRequest{
		ClienteID: f.cliente.ID.String(),
		Items: []dto.ItemValuacionRequest{
			f.item(model.ModalidadCompraDirecta, 2),
			f.item(model.ModalidadCreditoTienda, 1),
			f.item(model.ModalidadConsignacion, 1),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, model.ValuacionCompletada, resp.Valuacion.Estado)
	assert.Equal(t, "385.56", resp.Valuacion.TotalCompra.StringFixed(2))
	assert.Equal(t, "231.34", resp.Valuacion.TotalConsignacion.StringFixed(2))
	assert.Equal(t, 3, resp.UnidadesCreadas)
	assert.Equal(t, 1, resp.ConsignacionesCreadas)
	assert.Equal(t, "212.06", resp.CreditoAcreditado.StringFixed(2))

	// store credit landed on the client
	assert.Equal(t, "212.06", f.cliente.SaldoCredito.StringFixed(2))

	// one stock unit per item, each with its intake movement
	assert.Len(t, f.inventarioRepo.unidades, 3)
	require.Len(t, f.inventarioRepo.movimientos, 3)
	for _, m := range f.inventarioRepo.movimientos {
		assert.Equal(t, "alta_valuacion", m.Tipo)
		assert.Equal(t, 0, m.StockAnterior)
	}

	// the consigned item opened its financial record
	require.Len(t, f.consignacionRepo.registros, 1)
	for _, reg := range f.consignacionRepo.registros {
		assert.Equal(t, model.ConsignacionDisponible, reg.Estado)
		assert.Equal(t, "50", reg.PorcentajeConsignacion.String())
		assert.Equal(t, f.cliente.ID, reg.ClienteID)
	}
}

func TestFinalizarCompleta_ClienteNuevoPorTelefono(t *testing.T) {
	f := buildValuacionSvc(t)

	resp, err := f.svc.FinalizarCompleta(context.Background(), uuid.New(), dto.FinalizarCompletaRequest{
		Cliente: &dto.CrearClienteRequest{
			Nombre:   "Laura Martínez",
			Telefono: "5598765432",
		},
		Items: []dto.ItemValuacionRequest{f.item(model.ModalidadConsignacion, 1)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.ConsignacionesCreadas)
	assert.Equal(t, 1, resp.UnidadesCreadas)

	// the walk-in was registered inside the closing transaction
	require.Len(t, f.clienteRepo.clientes, 2)
	nuevo, err := f.clienteRepo.FindByTelefono(context.Background(), "5598765432")
	require.NoError(t, err)
	assert.Equal(t, "Laura Martínez", nuevo.Nombre)
	assert.True(t, nuevo.Activo)
	assert.Equal(t, nuevo.ID.String(), resp.Valuacion.ClienteID)

	// and the consignment record points at the new client
	for _, reg := range f.consignacionRepo.registros {
		assert.Equal(t, nuevo.ID, reg.ClienteID)
	}
}

func TestFinalizarCompleta_ClienteExistentePorTelefono(t *testing.T) {
	f := buildValuacionSvc(t)

	// same phone as the fixture client: no duplicate row, the existing one wins
	resp, err := f.svc.FinalizarCompleta(context.Background(), uuid.New(), dto.FinalizarCompletaRequest{
		Cliente: &dto.CrearClienteRequest{
			Nombre:   "María L. (segunda visita)",
			Telefono: f.cliente.Telefono,
		},
		Items: []dto.ItemValuacionRequest{f.item(model.ModalidadCompraDirecta, 1)},
	})
	require.NoError(t, err)
	assert.Len(t, f.clienteRepo.clientes, 1)
	assert.Equal(t, f.cliente.ID.String(), resp.Valuacion.ClienteID)
}

func TestFinalizarCompleta_SinClienteNiDatos(t *testing.T) {
	f := buildValuacionSvc(t)

	_, err := f.svc.FinalizarCompleta(context.Background(), uuid.New(), dto.FinalizarCompletaRequest{
		Items: []dto.ItemValuacionRequest{f.item(model.ModalidadCompraDirecta, 1)},
	})
	var valErr *apierror.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields, "cliente_id")
}

func TestFinalizarCompleta_ValuacionExistente(t *testing.T) {
	f := buildValuacionSvc(t)

	pendiente, err := f.svc.Crear(context.Background(), uuid.New(), dto.CrearValuacionRequest{
		ClienteID: f.cliente.ID.String(),
	})
	require.NoError(t, err)

	resp, err := f.svc.FinalizarCompleta(context.Background(), uuid.New(), dto.FinalizarCompletaRequest{
		ValuacionID: &pendiente.ID,
		ClienteID:   f.cliente.ID.String(),
		Items:       []dto.ItemValuacionRequest{f.item(model.ModalidadCompraDirecta, 1)},
	})
	require.NoError(t, err)
	assert.Equal(t, pendiente.ID, resp.Valuacion.ID)

	stored := f.repo.valuaciones[uuid.MustParse(pendiente.ID)]
	assert.Equal(t, model.ValuacionCompletada, stored.Estado)
}

func TestFinalizarCompleta_DobleFinalizacion(t *testing.T) {
	f := buildValuacionSvc(t)

	pendiente, err := f.svc.Crear(context.Background(), uuid.New(), dto.CrearValuacionRequest{
		ClienteID: f.cliente.ID.String(),
	})
	require.NoError(t, err)

	req := dto.FinalizarCompletaRequest{
		ValuacionID: &pendiente.ID,
		ClienteID:   f.cliente.ID.String(),
		Items:       []dto.ItemValuacionRequest{f.item(model.ModalidadCompraDirecta, 1)},
	}
	_, err = f.svc.FinalizarCompleta(context.Background(), uuid.New(), req)
	require.NoError(t, err)

	_, err = f.svc.FinalizarCompleta(context.Background(), uuid.New(), req)
	var conflict *apierror.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestFinalizarCompleta_ClienteAjeno(t *testing.T) {
	f := buildValuacionSvc(t)

	otro := &model.Cliente{ID: uuid.New(), Nombre: "Otro", Telefono: "5599999999", Activo: true}
	f.clienteRepo.clientes[otro.ID] = otro

	pendiente, err := f.svc.Crear(context.Background(), uuid.New(), dto.CrearValuacionRequest{
		ClienteID: f.cliente.ID.String(),
	})
	require.NoError(t, err)

	_, err = f.svc.FinalizarCompleta(context.Background(), uuid.New(), dto.FinalizarCompletaRequest{
		ValuacionID: &pendiente.ID,
		ClienteID:   otro.ID.String(),
		Items:       []dto.ItemValuacionRequest{f.item(model.ModalidadCompraDirecta, 1)},
	})
	var valErr *apierror.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestFinalizarCompleta_FalloDePrecioNoPersisteNada(t *testing.T) {
	f := buildValuacionSvc(t)

	malo := f.item(model.ModalidadCompraDirecta, 1)
	malo.SubcategoriaID = uuid.NewString() // unknown subcategory

	_, err := f.svc.FinalizarCompleta(context.Background(), uuid.New(), dto.FinalizarCompletaRequest{
		ClienteID: f.cliente.ID.String(),
		Items: []dto.ItemValuacionRequest{
			f.item(model.ModalidadCreditoTienda, 1),
			malo,
		},
	})
	require.Error(t, err)

	// pricing runs before the transaction opens: nothing may have landed
	assert.Empty(t, f.repo.valuaciones)
	assert.Empty(t, f.repo.items)
	assert.Empty(t, f.inventarioRepo.unidades)
	assert.True(t, f.cliente.SaldoCredito.IsZero())
}

func TestFinalizarCompleta_OverrideDesplazaModalidades(t *testing.T) {
	f := buildValuacionSvc(t)

	item := f.item(model.ModalidadConsignacion, 1)
	item.PrecioCompraFinal = decPtr("100.00")

	resp, err := f.svc.FinalizarCompleta(context.Background(), uuid.New(), dto.FinalizarCompletaRequest{
		ClienteID: f.cliente.ID.String(),
		Items:     []dto.ItemValuacionRequest{item},
	})
	require.NoError(t, err)

	require.Len(t, resp.Valuacion.Items, 1)
	got := resp.Valuacion.Items[0]
	assert.Equal(t, "110.00", got.PrecioCreditoTienda.StringFixed(2))
	assert.Equal(t, "120.00", got.PrecioConsignacion.StringFixed(2))
	assert.Equal(t, "120.00", resp.Valuacion.TotalConsignacion.StringFixed(2))
}

func TestFinalizarCompleta_OverrideExcedePrecioNuevo(t *testing.T) {
	f := buildValuacionSvc(t)

	item := f.item(model.ModalidadCompraDirecta, 1)
	item.PrecioVentaFinal = decPtr("1500.00") // precio_nuevo is 1000

	_, err := f.svc.FinalizarCompleta(context.Background(), uuid.New(), dto.FinalizarCompletaRequest{
		ClienteID: f.cliente.ID.String(),
		Items:     []dto.ItemValuacionRequest{item},
	})
	var valErr *apierror.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields, "precio_venta_final")
}

func TestCalcularLote_FallosAislados(t *testing.T) {
	f := buildValuacionSvc(t)

	malo := f.item(model.ModalidadCompraDirecta, 1)
	malo.SubcategoriaID = uuid.NewString()

	resp, err := f.svc.CalcularLote(context.Background(), dto.CalcularLoteRequest{
		Items: []dto.ItemValuacionRequest{
			f.item(model.ModalidadCompraDirecta, 1),
			malo,
			f.item(model.ModalidadConsignacion, 1),
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Resultados, 3)

	assert.NotNil(t, resp.Resultados[0].Resultado)
	assert.Nil(t, resp.Resultados[0].Error)

	assert.Nil(t, resp.Resultados[1].Resultado)
	require.NotNil(t, resp.Resultados[1].Error)
	assert.Equal(t, 1, resp.Resultados[1].Indice)

	assert.NotNil(t, resp.Resultados[2].Resultado)
}

func TestCalcularLote_EcoDeReferencias(t *testing.T) {
	f := buildValuacionSvc(t)

	bueno := f.item(model.ModalidadCompraDirecta, 1)
	bueno.Ref = strP("fila-a1")
	malo := f.item(model.ModalidadCompraDirecta, 1)
	malo.SubcategoriaID = uuid.NewString()
	malo.Ref = strP("fila-b2")

	resp, err := f.svc.CalcularLote(context.Background(), dto.CalcularLoteRequest{
		Items: []dto.ItemValuacionRequest{bueno, malo},
	})
	require.NoError(t, err)
	require.Len(t, resp.Resultados, 2)

	// the caller's correlation id comes back verbatim on success and on error
	require.NotNil(t, resp.Resultados[0].Ref)
	assert.Equal(t, "fila-a1", *resp.Resultados[0].Ref)
	require.NotNil(t, resp.Resultados[1].Ref)
	assert.Equal(t, "fila-b2", *resp.Resultados[1].Ref)
	assert.NotNil(t, resp.Resultados[1].Error)
}

func TestCancelar(t *testing.T) {
	f := buildValuacionSvc(t)

	pendiente, err := f.svc.Crear(context.Background(), uuid.New(), dto.CrearValuacionRequest{
		ClienteID: f.cliente.ID.String(),
	})
	require.NoError(t, err)
	id := uuid.MustParse(pendiente.ID)

	require.NoError(t, f.svc.Cancelar(context.Background(), id, "cliente no aceptó la oferta"))
	assert.Equal(t, model.ValuacionCancelada, f.repo.valuaciones[id].Estado)

	// terminal states never reopen
	err = f.svc.Cancelar(context.Background(), id, "segundo intento")
	var conflict *apierror.ConflictError
	assert.ErrorAs(t, err, &conflict)
}
