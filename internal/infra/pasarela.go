package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// PagoPayload is sent to the payment gateway to authorize a card charge.
type PagoPayload struct {
	Token        string          `json:"token"`
	Monto        decimal.Decimal `json:"monto"`
	Moneda       string          `json:"moneda"`      // always "MXN"
	Descripcion  string          `json:"descripcion"` // shown on the customer's statement
	ReferenciaID string          `json:"referencia_id"`
}

// PagoResponse is the gateway's synchronous authorization verdict. Later
// corrections (chargebacks, refunds) arrive via webhook.
type PagoResponse struct {
	PagoExternoID string `json:"pago_externo_id"`
	Estado        string `json:"estado"` // "aprobado" | "rechazado" | "pendiente"
	DetalleEstado string `json:"detalle_estado"`
}

// PasarelaClient is an HTTP client for the external payment gateway. Card
// charges are authorized through it before any sale row is persisted, so a
// gateway rejection never leaves partial state behind.
type PasarelaClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewPasarelaClient(baseURL string) *PasarelaClient {
	return &PasarelaClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Autorizar sends a POST to the gateway and returns its verdict.
func (c *PasarelaClient) Autorizar(ctx context.Context, payload PagoPayload) (*PagoResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("pasarela: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/cargos", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("pasarela: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pasarela: gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pasarela: gateway returned %d", resp.StatusCode)
	}

	var result PagoResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("pasarela: decode response: %w", err)
	}
	return &result, nil
}
