package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Event subjects published to the message bus.
const (
	SubjectInviteCreated   = "talentgate.invite.created"
	SubjectInviteStarted   = "talentgate.invite.started"
	SubjectInviteSubmitted = "talentgate.invite.submitted"
	SubjectScoreUpdated    = "talentgate.score.updated"
	SubjectFollowUpSent    = "talentgate.followup.sent"
)

// EventPublisher emits domain events for downstream consumers (ATS sync,
// audit pipelines). Publishing is best-effort; delivery failures never fail
// the originating request.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload interface{})
}

type natsPublisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// NewEventPublisher builds a NATS backed publisher. A nil connection yields a
// publisher that only logs, so the API runs without a broker.
func NewEventPublisher(conn *nats.Conn, logger zerolog.Logger) EventPublisher {
	return &natsPublisher{
		conn:   conn,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

type eventEnvelope struct {
	Subject string      `json:"subject"`
	Payload interface{} `json:"payload"`
	SentAt  time.Time   `json:"sent_at"`
}

func (p *natsPublisher) Publish(_ context.Context, subject string, payload interface{}) {
	if p.conn == nil {
		p.logger.Debug().Str("subject", subject).Msg("event bus disabled, dropping event")
		return
	}

	data, err := json.Marshal(eventEnvelope{Subject: subject, Payload: payload, SentAt: time.Now().UTC()})
	if err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to encode event")
		return
	}

	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}
