package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"entrepeques/internal/apierror"
	"entrepeques/internal/dto"
	"entrepeques/internal/model"
	"entrepeques/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Modality markups over the direct purchase price: store credit pays 10% more,
// consignment 20% more.
var (
	factorCreditoTienda = decimal.RequireFromString("1.10")
	factorConsignacion  = decimal.RequireFromString("1.20")
)

const pricingCacheTTL = 4 * time.Hour

// PricingService computes the full price set of a single article. It is
// stateless: nothing is persisted, so the front end can call it repeatedly
// while the appraiser adjusts attributes.
type PricingService interface {
	CalcularItem(ctx context.Context, req dto.ItemValuacionRequest) (*dto.CalculoItemResponse, error)
}

type pricingService struct {
	repo repository.PricingRepository
	rdb  *redis.Client
}

func NewPricingService(repo repository.PricingRepository, rdb *redis.Client) PricingService {
	return &pricingService{repo: repo, rdb: rdb}
}

// CalcularItem resolves the subcategory, validates the feature map, and
// computes scores and prices.
//
// Scored articles:
//
//	puntaje_compra = peso(renombre) × peso(estado) × peso(demanda) × peso(limpieza)
//	puntaje_venta  = peso(renombre) × peso(estado) × peso(demanda)
//	precio_compra  = precio_nuevo × puntaje_compra × factor_compra (nuevo/usado)
//	precio_venta   = precio_nuevo × puntaje_venta  × factor_venta  (nuevo/usado)
//
// Cleanliness deliberately affects only the purchase side: the store cleans
// every article before listing, so the buyer-facing price ignores it.
//
// Clothing subcategories bypass scoring entirely and resolve a flat rate from
// the clothing price table via the tipo_prenda / nivel_calidad features.
//
// All weights and factors live in [0,1], so no computed price can exceed the
// declared new price.
func (s *pricingService) CalcularItem(ctx context.Context, req dto.ItemValuacionRequest) (*dto.CalculoItemResponse, error) {
	subID, err := uuid.Parse(req.SubcategoriaID)
	if err != nil {
		return nil, apierror.Validation("subcategoria_id", "identificador inválido")
	}
	if !req.PrecioNuevo.IsPositive() {
		return nil, apierror.Validation("precio_nuevo", "debe ser mayor a cero")
	}

	sub, err := s.cachedSubcategoria(ctx, subID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("subcategoría")
		}
		return nil, err
	}

	// Clothing features name a cell of the flat-rate grid, not a schema'd
	// attribute map — they skip the per-subcategory schema check.
	if sub.EsRopa {
		return s.calcularRopa(ctx, sub, req)
	}

	defs, err := s.repo.ListDefiniciones(ctx, subID)
	if err != nil {
		return nil, err
	}
	if err := validarCaracteristicas(defs, req.Caracteristicas); err != nil {
		return nil, err
	}
	return s.calcularPuntuado(ctx, sub, req)
}

func (s *pricingService) calcularPuntuado(ctx context.Context, sub *model.Subcategoria, req dto.ItemValuacionRequest) (*dto.CalculoItemResponse, error) {
	// Scored subcategories need all four attributes; clothing does not, so the
	// request shape cannot require them and the check lives here.
	faltantes := map[string]string{}
	for campo, valor := range map[string]string{
		"renombre_marca": req.RenombreMarca,
		"estado_fisico":  req.EstadoFisico,
		"demanda":        req.Demanda,
		"limpieza":       req.Limpieza,
	} {
		if valor == "" {
			faltantes[campo] = "obligatorio para subcategorías con puntaje"
		}
	}
	if len(faltantes) > 0 {
		return nil, apierror.NewValidation(faltantes)
	}

	factores, err := s.cachedFactores(ctx, sub.ID)
	if err != nil {
		return nil, err
	}

	pesos := make(map[string]decimal.Decimal, len(factores))
	for _, f := range factores {
		pesos[f.TipoFactor+"|"+strings.ToLower(f.ValorFactor)] = f.Peso
	}
	peso := func(tipo, valor string) (decimal.Decimal, error) {
		p, ok := pesos[tipo+"|"+strings.ToLower(valor)]
		if !ok {
			return decimal.Zero, apierror.NotFound("factor de valuación (" + tipo + "=" + valor + ")")
		}
		return p, nil
	}

	wRenombre, err := peso(model.FactorRenombre, req.RenombreMarca)
	if err != nil {
		return nil, err
	}
	wEstado, err := peso(model.FactorEstado, req.EstadoFisico)
	if err != nil {
		return nil, err
	}
	wDemanda, err := peso(model.FactorDemanda, req.Demanda)
	if err != nil {
		return nil, err
	}
	wLimpieza, err := peso(model.FactorLimpieza, req.Limpieza)
	if err != nil {
		return nil, err
	}

	puntajeCompra := wRenombre.Mul(wEstado).Mul(wDemanda).Mul(wLimpieza).Round(4)
	puntajeVenta := wRenombre.Mul(wEstado).Mul(wDemanda).Round(4)

	factorCompra := sub.FactorCompraUsado
	factorVenta := sub.FactorVentaUsado
	if req.EstadoArticulo == "Nuevo" {
		factorCompra = sub.FactorCompraNuevo
		factorVenta = sub.FactorVentaNuevo
	}

	precioCompra := req.PrecioNuevo.Mul(puntajeCompra).Mul(factorCompra).Round(2)
	precioVenta := req.PrecioNuevo.Mul(puntajeVenta).Mul(factorVenta).Round(2)

	return &dto.CalculoItemResponse{
		PuntajeCompra:        puntajeCompra,
		PuntajeVenta:         puntajeVenta,
		PrecioCompraSugerido: precioCompra,
		PrecioVentaSugerido:  precioVenta,
		PrecioCreditoTienda:  precioCompra.Mul(factorCreditoTienda).Round(2),
		PrecioConsignacion:   precioCompra.Mul(factorConsignacion).Round(2),
	}, nil
}

// calcularRopa resolves the flat clothing rate. The grid features name the
// garment; the subcategory names the group.
func (s *pricingService) calcularRopa(ctx context.Context, sub *model.Subcategoria, req dto.ItemValuacionRequest) (*dto.CalculoItemResponse, error) {
	if sub.GrupoRopa == nil {
		return nil, apierror.Validation("subcategoria_id", "subcategoría de ropa sin grupo configurado")
	}
	tipoPrenda := req.Caracteristicas["tipo_prenda"]
	nivel := req.Caracteristicas["nivel_calidad"]
	if tipoPrenda == "" || nivel == "" {
		return nil, apierror.Validation("caracteristicas", "tipo_prenda y nivel_calidad son obligatorios para ropa")
	}

	precio, err := s.repo.FindPrecioRopa(ctx, *sub.GrupoRopa, tipoPrenda, nivel)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("precio de ropa")
		}
		return nil, err
	}

	uno := decimal.NewFromInt(1)
	return &dto.CalculoItemResponse{
		PuntajeCompra:        uno,
		PuntajeVenta:         uno,
		PrecioCompraSugerido: precio.PrecioCompra,
		PrecioVentaSugerido:  precio.PrecioVenta,
		PrecioCreditoTienda:  precio.PrecioCompra.Mul(factorCreditoTienda).Round(2),
		PrecioConsignacion:   precio.PrecioCompra.Mul(factorConsignacion).Round(2),
	}, nil
}

// validarCaracteristicas checks the feature map against the subcategory's
// schema: required keys present, unknown keys rejected, typed values parse.
func validarCaracteristicas(defs []model.DefinicionCaracteristica, caracteristicas map[string]string) error {
	byClave := make(map[string]model.DefinicionCaracteristica, len(defs))
	for _, d := range defs {
		byClave[d.Clave] = d
	}

	fields := map[string]string{}
	for clave, valor := range caracteristicas {
		def, ok := byClave[clave]
		if !ok {
			fields[clave] = "característica no definida para esta subcategoría"
			continue
		}
		switch def.Tipo {
		case "numero":
			if _, err := strconv.ParseFloat(valor, 64); err != nil {
				fields[clave] = "debe ser numérica"
			}
		case "seleccion":
			if def.Opciones == nil || !contieneOpcion(*def.Opciones, valor) {
				fields[clave] = "valor fuera de las opciones permitidas"
			}
		}
	}
	for _, d := range defs {
		if d.Requerida {
			if v, ok := caracteristicas[d.Clave]; !ok || v == "" {
				fields[d.Clave] = "característica obligatoria"
			}
		}
	}

	if len(fields) > 0 {
		return apierror.NewValidation(fields)
	}
	return nil
}

func contieneOpcion(opciones, valor string) bool {
	for _, o := range strings.Split(opciones, ",") {
		if strings.TrimSpace(o) == valor {
			return true
		}
	}
	return false
}

// ── Read-through cache ────────────────────────────────────────────────────────
// Pricing reference data changes rarely but is read on every keystroke of the
// appraisal form. Redis failures fall through to the DB — the cache is never
// load-bearing.

func (s *pricingService) cachedSubcategoria(ctx context.Context, id uuid.UUID) (*model.Subcategoria, error) {
	key := "pricing:sub:" + id.String()
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
			var sub model.Subcategoria
			if json.Unmarshal(raw, &sub) == nil {
				return &sub, nil
			}
		}
	}

	sub, err := s.repo.FindSubcategoria(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(sub); err == nil {
			if err := s.rdb.Set(ctx, key, raw, pricingCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("pricing cache write failed")
			}
		}
	}
	return sub, nil
}

func (s *pricingService) cachedFactores(ctx context.Context, subID uuid.UUID) ([]model.FactorValuacion, error) {
	key := "pricing:factores:" + subID.String()
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
			var factores []model.FactorValuacion
			if json.Unmarshal(raw, &factores) == nil {
				return factores, nil
			}
		}
	}

	factores, err := s.repo.FindFactores(ctx, subID)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(factores); err == nil {
			if err := s.rdb.Set(ctx, key, raw, pricingCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("pricing cache write failed")
			}
		}
	}
	return factores, nil
}
