package handler

import (
	"net/http"

	"entrepeques/internal/apierror"
	"entrepeques/internal/dto"
	"entrepeques/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ConsignacionesHandler struct{ svc service.ConsignacionService }

func NewConsignacionesHandler(svc service.ConsignacionService) *ConsignacionesHandler {
	return &ConsignacionesHandler{svc: svc}
}

// Listar godoc
// @Summary      Listar registros de consignación
// @Tags         consignaciones
// @Produce      json
// @Security     BearerAuth
// @Param        cliente_id query string false "UUID del consignante"
// @Param        estado     query string false "available | sold_unpaid | paid | returned | all"
// @Param        vencidas   query bool   false "Solo registros con contrato vencido"
// @Param        page       query int    false "Página (default 1)"
// @Param        limit      query int    false "Registros por página (default 50)"
// @Success      200 {object} dto.ConsignacionListResponse
// @Router       /v1/consignaciones [get]
func (h *ConsignacionesHandler) Listar(c *gin.Context) {
	var filter dto.ConsignacionFilter
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

// Obtener godoc
// @Summary      Consultar un registro de consignación
// @Tags         consignaciones
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del registro"
// @Success      200 {object} dto.ConsignacionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/consignaciones/{id} [get]
func (h *ConsignacionesHandler) Obtener(c *gin.Context) {
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

// MarcarPagado godoc
// @Summary      Pagar al consignante
// @Description  Liquida un registro vendido. Sin monto explícito se paga el porcentaje pactado (50%) del precio de venta real. Pagar dos veces responde 409.
// @Tags         consignaciones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                  true "UUID del registro"
// @Param        body body dto.MarcarPagadoRequest true "Monto y notas opcionales"
// @Success      200  {object} dto.ConsignacionResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/consignaciones/{id}/pagar [post]
func (h *ConsignacionesHandler) MarcarPagado(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.MarcarPagadoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.MarcarPagado(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MarcarDevuelto godoc
// @Summary      Devolver artículos al consignante
// @Description  Regresa un registro disponible a su dueño y retira la unidad del inventario.
// @Tags         consignaciones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                    true "UUID del registro"
// @Param        body body dto.MarcarDevueltoRequest true "Motivo"
// @Success      200  {object} dto.ConsignacionResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/consignaciones/{id}/devolver [post]
func (h *ConsignacionesHandler) MarcarDevuelto(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.MarcarDevueltoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.MarcarDevuelto(c.Request.Context(), id, req.Motivo)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// TablaDescuentos godoc
// @Summary      Tabla de descuentos por antigüedad
// @Tags         consignaciones
// @Produce      json
// @Success      200 {object} dto.TablaDescuentosResponse
// @Router       /v1/consignaciones/descuentos [get]
func (h *ConsignacionesHandler) TablaDescuentos(c *gin.Context) {
	resp := h.svc.TablaDescuentos()
	c.JSON(http.StatusOK, resp)
}

// Estadisticas godoc
// @Summary      Estadísticas de consignación
// @Description  Conteos por estado y montos por pagar / pagados para el tablero.
// @Tags         consignaciones
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.EstadisticasConsignacionResponse
// @Router       /v1/consignaciones/estadisticas [get]
func (h *ConsignacionesHandler) Estadisticas(c *gin.Context) {
	resp, err := h.svc.Estadisticas(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
