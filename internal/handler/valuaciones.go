package handler

import (
	"net/http"

	"entrepeques/internal/apierror"
	"entrepeques/internal/dto"
	"entrepeques/internal/middleware"
	"entrepeques/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ValuacionesHandler struct {
	svc     service.ValuacionService
	pricing service.PricingService
}

func NewValuacionesHandler(svc service.ValuacionService, pricing service.PricingService) *ValuacionesHandler {
	return &ValuacionesHandler{svc: svc, pricing: pricing}
}

// Crear godoc
// @Summary      Abrir una valuación
// @Description  Crea una valuación pendiente para un cliente; el valuador sale del token.
// @Tags         valuaciones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearValuacionRequest true "Cliente y notas"
// @Success      201  {object} dto.ValuacionResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/valuaciones [post]
func (h *ValuacionesHandler) Crear(c *gin.Context) {
	var req dto.CrearValuacionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	valuadorID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Crear(c.Request.Context(), valuadorID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CalcularItem godoc
// @Summary      Calcular precios de un artículo
// @Description  Cálculo sin persistencia: puntajes y los cuatro precios (compra, venta, crédito, consignación).
// @Tags         valuaciones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.ItemValuacionRequest true "Atributos del artículo"
// @Success      200  {object} dto.CalculoItemResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/valuaciones/calcular [post]
func (h *ValuacionesHandler) CalcularItem(c *gin.Context) {
	var req dto.ItemValuacionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.pricing.CalcularItem(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CalcularLote godoc
// @Summary      Calcular precios en lote
// @Description  Hasta 100 artículos por llamada. Un artículo inválido reporta su error sin abortar el lote.
// @Tags         valuaciones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CalcularLoteRequest true "Artículos a calcular"
// @Success      200  {object} dto.CalculoLoteResponse
// @Router       /v1/valuaciones/calcular-lote [post]
func (h *ValuacionesHandler) CalcularLote(c *gin.Context) {
	var req dto.CalcularLoteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CalcularLote(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// FinalizarCompleta godoc
// @Summary      Finalizar una valuación
// @Description  Transacción atómica: persiste ítems, da de alta inventario, abre consignaciones y acredita crédito en tienda. Acepta un cliente registrado (cliente_id) o los datos de uno nuevo (cliente), que se registra por teléfono en la misma transacción. Repetir la finalización responde 409.
// @Tags         valuaciones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.FinalizarCompletaRequest true "Cliente, valuación opcional e ítems"
// @Success      201  {object} dto.FinalizarCompletaResponse
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/valuaciones/finalizar [post]
func (h *ValuacionesHandler) FinalizarCompleta(c *gin.Context) {
	var req dto.FinalizarCompletaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	valuadorID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.FinalizarCompleta(c.Request.Context(), valuadorID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Cancelar godoc
// @Summary      Cancelar una valuación pendiente
// @Tags         valuaciones
// @Accept       json
// @Security     BearerAuth
// @Param        id   path string                       true "UUID de la valuación"
// @Param        body body dto.CancelarValuacionRequest true "Motivo"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/valuaciones/{id} [delete]
func (h *ValuacionesHandler) Cancelar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.CancelarValuacionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Cancelar(c.Request.Context(), id, req.Motivo); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Obtener godoc
// @Summary      Consultar una valuación
// @Tags         valuaciones
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la valuación"
// @Success      200 {object} dto.ValuacionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/valuaciones/{id} [get]
func (h *ValuacionesHandler) Obtener(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Listar godoc
// @Summary      Listar valuaciones
// @Tags         valuaciones
// @Produce      json
// @Security     BearerAuth
// @Param        cliente_id query string false "UUID del cliente"
// @Param        estado     query string false "pending | completed | cancelled | all"
// @Param        desde      query string false "Fecha YYYY-MM-DD"
// @Param        hasta      query string false "Fecha YYYY-MM-DD"
// @Param        page       query int    false "Página (default 1)"
// @Param        limit      query int    false "Registros por página (default 50)"
// @Success      200 {object} dto.ValuacionListResponse
// @Router       /v1/valuaciones [get]
func (h *ValuacionesHandler) Listar(c *gin.Context) {
	var filter dto.ValuacionFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
