package handler

import (
	"net/http"

	"entrepeques/internal/dto"
	"entrepeques/internal/service"

	"github.com/gin-gonic/gin"
)

type WebhooksHandler struct{ svc service.VentaService }

func NewWebhooksHandler(svc service.VentaService) *WebhooksHandler {
	return &WebhooksHandler{svc: svc}
}

// PagoWebhook godoc
// @Summary      Webhook de la pasarela de pagos
// @Description  Corrección asíncrona de estado de pago, idempotente por pago_externo_id. Reintentos de la pasarela son inofensivos.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        body body dto.WebhookPagoRequest true "Notificación de la pasarela"
// @Success      200
// @Failure      404 {object} apierror.APIError
// @Router       /v1/webhooks/pagos [post]
func (h *WebhooksHandler) PagoWebhook(c *gin.Context) {
	var req dto.WebhookPagoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.AplicarWebhookPago(c.Request.Context(), req); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
