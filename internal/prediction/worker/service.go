package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/shelfwise-ai/shelfwise-backend/pkg/enums"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/logger"
)

const forecastConsumerName = "forecast-worker"

// RunEvent is one queued forecast-run request.
type RunEvent struct {
	EventID       uuid.UUID
	UserID        uuid.UUID
	StoreNbr      int
	Horizon       enums.Horizon
	ReferenceDate time.Time
	SourceFile    string
}

// Handler defines how to execute a forecast-run request.
type Handler interface {
	Handle(ctx context.Context, event RunEvent) error
}

// HandlerFunc adapts functions to the Handler interface.
type HandlerFunc func(ctx context.Context, event RunEvent) error

// Handle calls the underlying function.
func (fn HandlerFunc) Handle(ctx context.Context, event RunEvent) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Service consumes forecast-run requests from Pub/Sub while honoring Redis
// idempotency.
type Service struct {
	subscription *gcppubsub.Subscriber
	handler      Handler
	manager      idempotencyChecker
	logg         *logger.Logger
}

// NewService creates a new forecast worker service.
func NewService(subscription *gcppubsub.Subscriber, handler Handler, manager idempotencyChecker, logg *logger.Logger) (*Service, error) {
	if subscription == nil {
		return nil, errors.New("forecast run subscription is required")
	}
	if handler == nil {
		return nil, errors.New("forecast run handler is required")
	}
	if manager == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	return &Service{
		subscription: subscription,
		handler:      handler,
		manager:      manager,
		logg:         logg,
	}, nil
}

type processResult struct {
	nack bool
}

// Run starts consuming run requests until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if s.process(innerCtx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (s *Service) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	fields := map[string]any{"message_id": msg.ID}
	logCtx := s.logg.WithFields(ctx, fields)

	event, err := s.buildEvent(msg)
	if err != nil {
		fields["error"] = err.Error()
		s.logg.Warn(s.logg.WithFields(ctx, fields), "invalid forecast run event")
		return processResult{}
	}
	fields["event_id"] = event.EventID.String()
	fields["user_id"] = event.UserID.String()
	fields["store_nbr"] = event.StoreNbr
	fields["horizon"] = string(event.Horizon)
	logCtx = s.logg.WithFields(ctx, fields)

	already, err := s.manager.CheckAndMarkProcessed(logCtx, forecastConsumerName, event.EventID)
	if err != nil {
		s.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		s.logg.Info(logCtx, "run request already processed")
		return processResult{}
	}

	if err := s.handler.Handle(logCtx, *event); err != nil {
		s.logg.Error(logCtx, "forecast run failed", err)
		_ = s.manager.Delete(logCtx, forecastConsumerName, event.EventID)
		return processResult{nack: true}
	}

	s.logg.Info(logCtx, "forecast run request handled")
	return processResult{}
}

// Enqueue publishes a run request onto the forecast-run topic and returns
// the server-assigned message id.
func Enqueue(ctx context.Context, publisher *gcppubsub.Publisher, event RunEvent) (string, error) {
	if publisher == nil {
		return "", errors.New("forecast run publisher is required")
	}
	data, err := encodeRunEvent(event)
	if err != nil {
		return "", err
	}
	return publisher.Publish(ctx, &gcppubsub.Message{Data: data}).Get(ctx)
}

func encodeRunEvent(event RunEvent) ([]byte, error) {
	if event.EventID == uuid.Nil {
		return nil, errors.New("event id is required")
	}
	payload := runEventPayload{
		EventID:    event.EventID.String(),
		UserID:     event.UserID.String(),
		StoreNbr:   event.StoreNbr,
		Horizon:    string(event.Horizon),
		SourceFile: event.SourceFile,
	}
	if !event.ReferenceDate.IsZero() {
		payload.ReferenceDate = event.ReferenceDate.UTC().Format("2006-01-02")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode run event: %w", err)
	}
	return data, nil
}

type runEventPayload struct {
	EventID       string `json:"event_id"`
	UserID        string `json:"user_id"`
	StoreNbr      int    `json:"store_nbr"`
	Horizon       string `json:"horizon"`
	ReferenceDate string `json:"reference_date,omitempty"`
	SourceFile    string `json:"source_file,omitempty"`
}

func (s *Service) buildEvent(msg *gcppubsub.Message) (*RunEvent, error) {
	var payload runEventPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return nil, fmt.Errorf("decode run event: %w", err)
	}

	eventID, err := uuid.Parse(payload.EventID)
	if err != nil {
		return nil, fmt.Errorf("event_id: %w", err)
	}
	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return nil, fmt.Errorf("user_id: %w", err)
	}
	horizon, err := enums.ParseHorizon(payload.Horizon)
	if err != nil {
		return nil, err
	}
	if payload.StoreNbr <= 0 {
		return nil, fmt.Errorf("store_nbr %d out of range", payload.StoreNbr)
	}

	event := &RunEvent{
		EventID:    eventID,
		UserID:     userID,
		StoreNbr:   payload.StoreNbr,
		Horizon:    horizon,
		SourceFile: payload.SourceFile,
	}
	if payload.ReferenceDate != "" {
		parsed, err := time.Parse("2006-01-02", payload.ReferenceDate)
		if err != nil {
			return nil, fmt.Errorf("reference_date: %w", err)
		}
		event.ReferenceDate = parsed.UTC()
	}
	return event, nil
}
