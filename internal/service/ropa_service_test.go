package service_test

import (
	"context"
	"testing"

	"entrepeques/internal/apierror"
	"entrepeques/internal/dto"
	"entrepeques/internal/model"
	"entrepeques/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedTarifarioRopa registers a clothing subcategory plus its flat-rate rows
// and sizes, returning the subcategory the grid requests point at.
func seedTarifarioRopa(repo *stubPricingRepo) *model.Subcategoria {
	grupo := "cuerpo_completo"
	sub := &model.Subcategoria{
		ID:          uuid.New(),
		CategoriaID: uuid.New(),
		Nombre:      "Ropa bebé (0-24m)",
		EsRopa:      true,
		GrupoRopa:   &grupo,
		Activo:      true,
	}
	repo.subcategorias[sub.ID] = sub

	filas := []struct {
		prenda, nivel, compra, venta string
	}{
		{"mameluco", "economico", "15.00", "45.00"},
		{"mameluco", "estandar", "25.00", "70.00"},
		{"mameluco", "premium", "45.00", "120.00"},
	}
	for _, f := range filas {
		repo.preciosRopa = append(repo.preciosRopa, model.PrecioRopa{
			ID:             uuid.New(),
			GrupoCategoria: "cuerpo_completo",
			TipoPrenda:     f.prenda,
			NivelCalidad:   f.nivel,
			PrecioCompra:   dec(f.compra),
			PrecioVenta:    dec(f.venta),
			Activo:         true,
		})
	}
	repo.tallas = []model.TallaRopa{
		{ID: uuid.New(), GrupoCategoria: "cuerpo_completo", Valor: "RN", Orden: 0},
		{ID: uuid.New(), GrupoCategoria: "cuerpo_completo", Valor: "0-3m", Orden: 1},
		{ID: uuid.New(), GrupoCategoria: "calzado", Valor: "10cm", Orden: 0},
	}
	return sub
}

func TestPrecioPrenda(t *testing.T) {
	repo := newStubPricingRepo()
	seedTarifarioRopa(repo)
	svc := service.NewRopaService(repo)

	resp, err := svc.PrecioPrenda(context.Background(), dto.PrecioPrendaRequest{
		GrupoCategoria: "cuerpo_completo",
		TipoPrenda:     "mameluco",
		NivelCalidad:   "premium",
	})
	require.NoError(t, err)
	assert.Equal(t, "45.00", resp.PrecioCompra.StringFixed(2))
	assert.Equal(t, "120.00", resp.PrecioVenta.StringFixed(2))
}

func TestPrecioPrenda_NoExiste(t *testing.T) {
	repo := newStubPricingRepo()
	seedTarifarioRopa(repo)
	svc := service.NewRopaService(repo)

	_, err := svc.PrecioPrenda(context.Background(), dto.PrecioPrendaRequest{
		GrupoCategoria: "calzado",
		TipoPrenda:     "mameluco",
		NivelCalidad:   "premium",
	})
	var notFound *apierror.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestDistribuirLote(t *testing.T) {
	repo := newStubPricingRepo()
	sub := seedTarifarioRopa(repo)
	svc := service.NewRopaService(repo)

	resp, err := svc.DistribuirLote(context.Background(), dto.DistribuirLoteRequest{
		CategoriaID:    sub.CategoriaID.String(),
		SubcategoriaID: sub.ID.String(),
		Modalidad:      "compra directa",
		TotalDeclarado: 8,
		Celdas: []dto.CeldaLoteRopa{
			{TipoPrenda: "mameluco", NivelCalidad: "economico", Talla: "RN", Cantidad: 5},
			{TipoPrenda: "mameluco", NivelCalidad: "estandar", Talla: "0-3m", Cantidad: 3},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "cuerpo_completo", resp.GrupoCategoria)
	assert.Equal(t, 8, resp.TotalPrendas)
	require.Len(t, resp.Items, 2)
	// 5 × 15.00 + 3 × 25.00
	assert.Equal(t, "150.00", resp.TotalCompra.StringFixed(2))
	// 5 × 45.00 + 3 × 70.00
	assert.Equal(t, "435.00", resp.TotalVentaEstimado.StringFixed(2))
	assert.Equal(t, "165.00", resp.TotalCreditoTienda.StringFixed(2))
	assert.Equal(t, "180.00", resp.TotalConsignacion.StringFixed(2))

	// each cell became a finalize-ready draft with its garment features
	primero := resp.Items[0]
	assert.Equal(t, "75.00", primero.Subtotal.StringFixed(2))
	assert.Equal(t, sub.ID.String(), primero.Item.SubcategoriaID)
	assert.Equal(t, "compra directa", primero.Item.Modalidad)
	assert.Equal(t, 5, primero.Item.Cantidad)
	assert.Equal(t, "mameluco", primero.Item.Caracteristicas["tipo_prenda"])
	assert.Equal(t, "economico", primero.Item.Caracteristicas["nivel_calidad"])
	assert.Equal(t, "RN", primero.Item.Caracteristicas["talla"])
	assert.Equal(t, "15.00", primero.Precios.PrecioCompraSugerido.StringFixed(2))
	assert.Equal(t, "16.50", primero.Precios.PrecioCreditoTienda.StringFixed(2))
	assert.Equal(t, "18.00", primero.Precios.PrecioConsignacion.StringFixed(2))
}

func TestDistribuirLote_ItemsAlimentanFinalizacion(t *testing.T) {
	pricingRepo := newStubPricingRepo()
	sub := seedTarifarioRopa(pricingRepo)
	ropaSvc := service.NewRopaService(pricingRepo)

	lote, err := ropaSvc.DistribuirLote(context.Background(), dto.DistribuirLoteRequest{
		CategoriaID:    sub.CategoriaID.String(),
		SubcategoriaID: sub.ID.String(),
		Modalidad:      "consignación",
		TotalDeclarado: 4,
		Celdas: []dto.CeldaLoteRopa{
			{TipoPrenda: "mameluco", NivelCalidad: "economico", Talla: "RN", Cantidad: 3},
			{TipoPrenda: "mameluco", NivelCalidad: "premium", Talla: "0-3m", Cantidad: 1},
		},
	})
	require.NoError(t, err)

	// the drafts flow into the finalize operation without any reshaping
	pricing := service.NewPricingService(pricingRepo, nil)
	valRepo := newStubValuacionRepo()
	clienteRepo := newStubClienteRepo()
	invRepo := newStubInventarioRepo()
	consRepo := newStubConsignacionRepo()
	cliente := &model.Cliente{ID: uuid.New(), Nombre: "María López", Telefono: "5512345678", Activo: true}
	clienteRepo.clientes[cliente.ID] = cliente
	valSvc := service.NewValuacionService(valRepo, clienteRepo, invRepo, consRepo, pricing, nil)

	items := make([]dto.ItemValuacionRequest, 0, len(lote.Items))
	for _, it := range lote.Items {
		items = append(items, it.Item)
	}

	resp, err := valSvc.FinalizarCompleta(context.Background(), uuid.New(), dto.FinalizarCompletaRequest{
		ClienteID: cliente.ID.String(),
		Items:     items,
	})
	require.NoError(t, err)
	assert.Equal(t, len(lote.Items), resp.UnidadesCreadas)
	assert.Equal(t, len(lote.Items), resp.ConsignacionesCreadas)
	// 3 × 15.00 × 1.2 + 1 × 45.00 × 1.2
	assert.Equal(t, "108.00", resp.Valuacion.TotalConsignacion.StringFixed(2))
}

func TestDistribuirLote_TotalNoCuadra(t *testing.T) {
	repo := newStubPricingRepo()
	sub := seedTarifarioRopa(repo)
	svc := service.NewRopaService(repo)

	_, err := svc.DistribuirLote(context.Background(), dto.DistribuirLoteRequest{
		CategoriaID:    sub.CategoriaID.String(),
		SubcategoriaID: sub.ID.String(),
		Modalidad:      "compra directa",
		TotalDeclarado: 9, // cells sum to 8
		Celdas: []dto.CeldaLoteRopa{
			{TipoPrenda: "mameluco", NivelCalidad: "economico", Talla: "RN", Cantidad: 5},
			{TipoPrenda: "mameluco", NivelCalidad: "estandar", Talla: "0-3m", Cantidad: 3},
		},
	})
	var valErr *apierror.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields, "total_declarado")
}

func TestDistribuirLote_CeldaSinTarifa(t *testing.T) {
	repo := newStubPricingRepo()
	sub := seedTarifarioRopa(repo)
	svc := service.NewRopaService(repo)

	_, err := svc.DistribuirLote(context.Background(), dto.DistribuirLoteRequest{
		CategoriaID:    sub.CategoriaID.String(),
		SubcategoriaID: sub.ID.String(),
		Modalidad:      "consignación",
		TotalDeclarado: 1,
		Celdas: []dto.CeldaLoteRopa{
			{TipoPrenda: "abrigo", NivelCalidad: "premium", Talla: "RN", Cantidad: 1},
		},
	})
	var notFound *apierror.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestDistribuirLote_SubcategoriaNoEsRopa(t *testing.T) {
	repo := newStubPricingRepo()
	seedTarifarioRopa(repo)
	carriolas := seedCarriolas(repo)
	svc := service.NewRopaService(repo)

	_, err := svc.DistribuirLote(context.Background(), dto.DistribuirLoteRequest{
		CategoriaID:    carriolas.CategoriaID.String(),
		SubcategoriaID: carriolas.ID.String(),
		Modalidad:      "compra directa",
		TotalDeclarado: 1,
		Celdas: []dto.CeldaLoteRopa{
			{TipoPrenda: "mameluco", NivelCalidad: "economico", Talla: "RN", Cantidad: 1},
		},
	})
	var valErr *apierror.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields, "subcategoria_id")
}

func TestTallas_FiltraPorGrupo(t *testing.T) {
	repo := newStubPricingRepo()
	seedTarifarioRopa(repo)
	svc := service.NewRopaService(repo)

	tallas, err := svc.Tallas(context.Background(), "cuerpo_completo")
	require.NoError(t, err)
	require.Len(t, tallas, 2)
	assert.Equal(t, "RN", tallas[0].Valor)
}
