package handler

import (
	"net/http"

	"entrepeques/internal/dto"
	"entrepeques/internal/service"

	"github.com/gin-gonic/gin"
)

type RopaHandler struct{ svc service.RopaService }

func NewRopaHandler(svc service.RopaService) *RopaHandler { return &RopaHandler{svc: svc} }

// PrecioPrenda godoc
// @Summary      Precio de una prenda
// @Description  Tarifa plana por (grupo, tipo de prenda, nivel de calidad). La ropa no pasa por el modelo de puntajes.
// @Tags         ropa
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.PrecioPrendaRequest true "Prenda a cotizar"
// @Success      200  {object} dto.PrecioPrendaResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/ropa/precio [post]
func (h *RopaHandler) PrecioPrenda(c *gin.Context) {
	var req dto.PrecioPrendaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.PrecioPrenda(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DistribuirLote godoc
// @Summary      Cotizar un lote de ropa
// @Description  Valida que la suma de las celdas coincida con el total declarado y emite un borrador de artículo por celda, listo para la finalización.
// @Tags         ropa
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.DistribuirLoteRequest true "Cuadrícula del lote"
// @Success      200  {object} dto.DistribuirLoteResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/ropa/lote [post]
func (h *RopaHandler) DistribuirLote(c *gin.Context) {
	var req dto.DistribuirLoteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.DistribuirLote(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Tallas godoc
// @Summary      Tallas por grupo
// @Tags         ropa
// @Produce      json
// @Security     BearerAuth
// @Param        grupo query string false "Grupo de categoría"
// @Success      200 {array} dto.TallaResponse
// @Router       /v1/ropa/tallas [get]
func (h *RopaHandler) Tallas(c *gin.Context) {
	resp, err := h.svc.Tallas(c.Request.Context(), c.Query("grupo"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Precios godoc
// @Summary      Tarifario de ropa
// @Tags         ropa
// @Produce      json
// @Security     BearerAuth
// @Param        grupo query string false "Grupo de categoría"
// @Success      200 {array} dto.PrecioPrendaResponse
// @Router       /v1/ropa/precios [get]
func (h *RopaHandler) Precios(c *gin.Context) {
	resp, err := h.svc.Precios(c.Request.Context(), c.Query("grupo"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
