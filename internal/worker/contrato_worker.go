package worker

// contrato_worker.go
// Processes contract jobs from QueueContratos: renders the consignment
// contract PDF for a finalized valuation and, when the consignor has an email
// on file, enqueues its delivery. Retries with exponential backoff (max 3
// attempts) before parking the job in the DLQ.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"entrepeques/internal/infra"
	"entrepeques/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ContratoWorker renders and dispatches consignment contracts.
type ContratoWorker struct {
	valuacionRepo  repository.ValuacionRepository
	dispatcher     *Dispatcher
	rdb            *redis.Client
	pdfStoragePath string
	storeName      string
}

func NewContratoWorker(
	valuacionRepo repository.ValuacionRepository,
	dispatcher *Dispatcher,
	rdb *redis.Client,
	pdfStoragePath string,
	storeName string,
) *ContratoWorker {
	return &ContratoWorker{
		valuacionRepo:  valuacionRepo,
		dispatcher:     dispatcher,
		rdb:            rdb,
		pdfStoragePath: pdfStoragePath,
		storeName:      storeName,
	}
}

// Process handles a single contract job:
//  1. Parse ContratoJob from the envelope
//  2. Fetch the valuation with client and items
//  3. Render the contract PDF (with retry)
//  4. Enqueue the email job when the client has an address on file
func (w *ContratoWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ContratoJob
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("contrato_worker: invalid payload")
		return
	}

	valuacionID, err := uuid.Parse(payload.ValuacionID)
	if err != nil {
		log.Error().Str("valuacion_id", payload.ValuacionID).Msg("contrato_worker: invalid valuacion_id")
		return
	}

	valuacion, err := w.valuacionRepo.FindByID(ctx, valuacionID)
	if err != nil {
		log.Error().Err(err).Str("valuacion_id", payload.ValuacionID).Msg("contrato_worker: valuacion not found")
		return
	}

	var pdfPath string
	genErr := withRetry(ctx, 3, func(attempt int) error {
		var err error
		pdfPath, err = infra.GenerateContratoPDF(valuacion, w.storeName, w.pdfStoragePath)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).
				Str("valuacion_id", payload.ValuacionID).
				Msg("contrato_worker: PDF generation failed")
		}
		return err
	})
	if genErr != nil {
		SendToDLQ(ctx, w.rdb, QueueContratos, "contrato", raw, genErr.Error(), 3)
		return
	}
	log.Info().Str("valuacion_id", payload.ValuacionID).Str("pdf", pdfPath).Msg("contrato generado")

	if valuacion.Cliente == nil || valuacion.Cliente.Email == nil || *valuacion.Cliente.Email == "" {
		return // contract stays on disk for in-store printing
	}

	emailJob := EmailJob{
		To:         *valuacion.Cliente.Email,
		Subject:    fmt.Sprintf("%s — Contrato de consignación", w.storeName),
		Body:       "Adjuntamos el contrato de consignación de los artículos que nos dejaste. ¡Gracias por confiar en nosotros!",
		Attachment: pdfPath,
	}
	if err := w.dispatcher.Dispatch(ctx, QueueEmail, emailJob); err != nil {
		log.Error().Err(err).Str("valuacion_id", payload.ValuacionID).Msg("contrato_worker: failed to enqueue email")
	}
}

// withRetry runs fn up to maxAttempts times with exponential backoff
// (1s, 2s, 4s, …). It aborts early when ctx is cancelled.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = fn(attempt); err == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		backoff := time.Duration(1<<(attempt-1)) * time.Second
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}
