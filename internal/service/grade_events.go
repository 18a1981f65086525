package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/caliper-hq/caliper-api/internal/observability"
)

// GradeEventSubject is the NATS subject grade announcements go out on.
const GradeEventSubject = "caliper.grades.recorded"

// GradeEvent is the wire payload announcing a recorded grade.
type GradeEvent struct {
	SubmissionID uuid.UUID `json:"submission_id"`
	GradeID      uuid.UUID `json:"grade_id"`
	AssignmentID uuid.UUID `json:"assignment_id"`
	QuestionID   uuid.UUID `json:"question_id"`
	Score        float64   `json:"score"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// GradeEventPublisher announces recorded grades to interested consumers.
type GradeEventPublisher interface {
	PublishGradeRecorded(ctx context.Context, event GradeEvent) error
}

type natsGradeEventPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewGradeEventPublisher constructs a NATS-backed publisher. A nil
// connection yields a publisher that silently drops events, so eventing
// stays optional.
func NewGradeEventPublisher(conn *nats.Conn, logger zerolog.Logger) GradeEventPublisher {
	return &natsGradeEventPublisher{
		conn:    conn,
		subject: GradeEventSubject,
		logger:  logger.With().Str("component", "grade_events").Logger(),
	}
}

func (p *natsGradeEventPublisher) PublishGradeRecorded(_ context.Context, event GradeEvent) error {
	if p.conn == nil {
		return nil
	}

	if event.RecordedAt.IsZero() {
		event.RecordedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		return err
	}

	observability.EventsPublished().WithLabelValues(p.subject).Inc()
	p.logger.Debug().Str("grade_id", event.GradeID.String()).Msg("grade event published")
	return nil
}
