package service

import (
	"context"
	"errors"

	"entrepeques/internal/apierror"
	"entrepeques/internal/dto"
	"entrepeques/internal/model"
	"entrepeques/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClienteService interface {
	Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error)
	Listar(ctx context.Context, filter dto.ClienteFilter) (*dto.ClienteListResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
}

type clienteService struct {
	repo repository.ClienteRepository
}

func NewClienteService(repo repository.ClienteRepository) ClienteService {
	return &clienteService{repo: repo}
}

// Crear registers a client. The phone number is the natural dedup key —
// consignors routinely come back months later without remembering they are
// already registered.
func (s *clienteService) Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error) {
	existente, err := s.repo.FindByTelefono(ctx, req.Telefono)
	if err == nil {
		return nil, apierror.Conflict("ya existe un cliente con el teléfono " + existente.Telefono)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	c := &model.Cliente{
		Nombre:         req.Nombre,
		Telefono:       req.Telefono,
		Email:          req.Email,
		Identificacion: req.Identificacion,
		Activo:         true,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("cliente")
		}
		return nil, err
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) Listar(ctx context.Context, filter dto.ClienteFilter) (*dto.ClienteListResponse, error) {
	clientes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.ClienteListResponse{
		Data:  make([]dto.ClienteResponse, 0, len(clientes)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range clientes {
		resp.Data = append(resp.Data, *clienteToResponse(&clientes[i]))
	}
	return resp, nil
}

func (s *clienteService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("cliente")
		}
		return nil, err
	}

	if req.Telefono != nil && *req.Telefono != c.Telefono {
		if _, err := s.repo.FindByTelefono(ctx, *req.Telefono); err == nil {
			return nil, apierror.Conflict("ya existe un cliente con el teléfono " + *req.Telefono)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		c.Telefono = *req.Telefono
	}
	if req.Nombre != nil {
		c.Nombre = *req.Nombre
	}
	if req.Email != nil {
		c.Email = req.Email
	}
	if req.Identificacion != nil {
		c.Identificacion = req.Identificacion
	}
	if req.Activo != nil {
		c.Activo = *req.Activo
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) Desactivar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("cliente")
		}
		return err
	}
	return s.repo.SoftDelete(ctx, id)
}

func clienteToResponse(c *model.Cliente) *dto.ClienteResponse {
	return &dto.ClienteResponse{
		ID:             c.ID.String(),
		Nombre:         c.Nombre,
		Telefono:       c.Telefono,
		Email:          c.Email,
		Identificacion: c.Identificacion,
		SaldoCredito:   c.SaldoCredito,
		Activo:         c.Activo,
		CreatedAt:      c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
