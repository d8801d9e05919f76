package service

import (
	"context"
	"errors"
	"fmt"

	"entrepeques/internal/apierror"
	"entrepeques/internal/dto"
	"entrepeques/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RopaService prices clothing, which uses flat rates per (group, garment
// type, quality level) instead of the scoring model.
type RopaService interface {
	PrecioPrenda(ctx context.Context, req dto.PrecioPrendaRequest) (*dto.PrecioPrendaResponse, error)
	DistribuirLote(ctx context.Context, req dto.DistribuirLoteRequest) (*dto.DistribuirLoteResponse, error)
	Tallas(ctx context.Context, grupo string) ([]dto.TallaResponse, error)
	Precios(ctx context.Context, grupo string) ([]dto.PrecioPrendaResponse, error)
}

type ropaService struct {
	repo repository.PricingRepository
}

func NewRopaService(repo repository.PricingRepository) RopaService {
	return &ropaService{repo: repo}
}

func (s *ropaService) PrecioPrenda(ctx context.Context, req dto.PrecioPrendaRequest) (*dto.PrecioPrendaResponse, error) {
	p, err := s.repo.FindPrecioRopa(ctx, req.GrupoCategoria, req.TipoPrenda, req.NivelCalidad)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("precio de ropa")
		}
		return nil, err
	}
	return &dto.PrecioPrendaResponse{
		GrupoCategoria: p.GrupoCategoria,
		TipoPrenda:     p.TipoPrenda,
		NivelCalidad:   p.NivelCalidad,
		PrecioCompra:   p.PrecioCompra,
		PrecioVenta:    p.PrecioVenta,
	}, nil
}

// DistribuirLote prices a bulk clothing intake. The declared garment count
// must match the sum of the grid cells exactly — a mismatch rejects the whole
// lot, since it means the appraiser miscounted. Each cell becomes a draft
// valuation item carrying the garment features, ready to be submitted to the
// finalize operation without the caller rebuilding anything.
func (s *ropaService) DistribuirLote(ctx context.Context, req dto.DistribuirLoteRequest) (*dto.DistribuirLoteResponse, error) {
	suma := 0
	for _, c := range req.Celdas {
		suma += c.Cantidad
	}
	if suma != req.TotalDeclarado {
		return nil, apierror.Validation("total_declarado",
			fmt.Sprintf("la suma de las celdas (%d) no coincide con el total declarado (%d)", suma, req.TotalDeclarado))
	}

	subID, err := uuid.Parse(req.SubcategoriaID)
	if err != nil {
		return nil, apierror.Validation("subcategoria_id", "identificador inválido")
	}
	sub, err := s.repo.FindSubcategoria(ctx, subID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("subcategoría")
		}
		return nil, err
	}
	if !sub.EsRopa || sub.GrupoRopa == nil {
		return nil, apierror.Validation("subcategoria_id", "la subcategoría no es de ropa")
	}
	grupo := *sub.GrupoRopa

	resp := &dto.DistribuirLoteResponse{
		GrupoCategoria: grupo,
		Modalidad:      req.Modalidad,
		TotalPrendas:   suma,
	}
	totalCompra := decimal.Zero
	totalVenta := decimal.Zero

	for _, c := range req.Celdas {
		p, err := s.repo.FindPrecioRopa(ctx, grupo, c.TipoPrenda, c.NivelCalidad)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apierror.NotFound(
					fmt.Sprintf("precio de ropa (%s / %s / %s)", grupo, c.TipoPrenda, c.NivelCalidad))
			}
			return nil, err
		}

		cantidad := decimal.NewFromInt(int64(c.Cantidad))
		subtotal := p.PrecioCompra.Mul(cantidad).Round(2)
		totalCompra = totalCompra.Add(subtotal)
		totalVenta = totalVenta.Add(p.PrecioVenta.Mul(cantidad).Round(2))

		uno := decimal.NewFromInt(1)
		resp.Items = append(resp.Items, dto.ItemLoteRopa{
			Item: dto.ItemValuacionRequest{
				CategoriaID:    req.CategoriaID,
				SubcategoriaID: req.SubcategoriaID,
				EstadoArticulo: "Usado",
				Modalidad:      req.Modalidad,
				PrecioNuevo:    p.PrecioVenta,
				Cantidad:       c.Cantidad,
				Caracteristicas: map[string]string{
					"tipo_prenda":   c.TipoPrenda,
					"nivel_calidad": c.NivelCalidad,
					"talla":         c.Talla,
				},
			},
			Precios: dto.CalculoItemResponse{
				PuntajeCompra:        uno,
				PuntajeVenta:         uno,
				PrecioCompraSugerido: p.PrecioCompra,
				PrecioVentaSugerido:  p.PrecioVenta,
				PrecioCreditoTienda:  p.PrecioCompra.Mul(factorCreditoTienda).Round(2),
				PrecioConsignacion:   p.PrecioCompra.Mul(factorConsignacion).Round(2),
			},
			Subtotal: subtotal,
		})
	}

	resp.TotalCompra = totalCompra
	resp.TotalVentaEstimado = totalVenta
	resp.TotalCreditoTienda = totalCompra.Mul(factorCreditoTienda).Round(2)
	resp.TotalConsignacion = totalCompra.Mul(factorConsignacion).Round(2)
	return resp, nil
}

func (s *ropaService) Tallas(ctx context.Context, grupo string) ([]dto.TallaResponse, error) {
	tallas, err := s.repo.ListTallas(ctx, grupo)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TallaResponse, 0, len(tallas))
	for _, t := range tallas {
		out = append(out, dto.TallaResponse{
			GrupoCategoria: t.GrupoCategoria,
			Valor:          t.Valor,
			Orden:          t.Orden,
		})
	}
	return out, nil
}

func (s *ropaService) Precios(ctx context.Context, grupo string) ([]dto.PrecioPrendaResponse, error) {
	precios, err := s.repo.ListPreciosRopa(ctx, grupo)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PrecioPrendaResponse, 0, len(precios))
	for _, p := range precios {
		out = append(out, dto.PrecioPrendaResponse{
			GrupoCategoria: p.GrupoCategoria,
			TipoPrenda:     p.TipoPrenda,
			NivelCalidad:   p.NivelCalidad,
			PrecioCompra:   p.PrecioCompra,
			PrecioVenta:    p.PrecioVenta,
		})
	}
	return out, nil
}
