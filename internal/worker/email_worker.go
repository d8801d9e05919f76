package worker

// email_worker.go
// Processes email jobs from QueueEmail. SMTP hiccups are retried with
// backoff; exhausted jobs land in the DLQ so no contract silently vanishes.

import (
	"context"
	"encoding/json"

	"entrepeques/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type EmailWorker struct {
	mailer *infra.Mailer
	rdb    *redis.Client
}

func NewEmailWorker(mailer *infra.Mailer, rdb *redis.Client) *EmailWorker {
	return &EmailWorker{mailer: mailer, rdb: rdb}
}

func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload EmailJob
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return
	}
	if payload.To == "" {
		log.Error().Msg("email_worker: empty recipient")
		return
	}

	sendErr := withRetry(ctx, 3, func(attempt int) error {
		err := w.mailer.Send(payload.To, payload.Subject, payload.Body, payload.Attachment)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Str("to", payload.To).
				Msg("email_worker: send failed")
		}
		return err
	})
	if sendErr != nil {
		SendToDLQ(ctx, w.rdb, QueueEmail, "email", raw, sendErr.Error(), 3)
		return
	}
	log.Info().Str("to", payload.To).Msg("email enviado")
}
