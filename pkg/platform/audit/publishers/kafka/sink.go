package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	audit "medgate/pkg/platform/audit"
	"medgate/pkg/platform/circuit"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Sink publishes audit events to a Kafka topic. Records are keyed by account
// ID so one account's events stay ordered within a partition.
type Sink struct {
	client  *kgo.Client
	topic   string
	logger  *slog.Logger
	breaker *circuit.Breaker
}

// ErrCircuitOpen is returned by Append while the broker is considered down.
var ErrCircuitOpen = errors.New("kafka: audit sink circuit open")

type Option func(*Sink)

// WithBreaker replaces the default breaker guarding produce calls.
func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Sink) {
		if b != nil {
			s.breaker = b
		}
	}
}

// payload is the JSON structure published to Kafka.
type payload struct {
	ID            string `json:"id"`
	Category      string `json:"category"`
	Timestamp     string `json:"timestamp"`
	AccountID     string `json:"account_id,omitempty"`
	SubjectIDHash string `json:"subject_id_hash,omitempty"`
	Action        string `json:"action"`
	Reason        string `json:"reason,omitempty"`
	Email         string `json:"email,omitempty"`
	IP            string `json:"ip,omitempty"`
	UserAgent     string `json:"user_agent,omitempty"`
	RequestID     string `json:"request_id,omitempty"`
	ActorID       string `json:"actor_id,omitempty"`
}

// New connects to the brokers and verifies reachability.
func New(ctx context.Context, brokers []string, topic string, logger *slog.Logger, opts ...Option) (*Sink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if logger == nil {
		logger = slog.Default()
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.RecordRetries(5),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka: create client: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka: ping brokers: %w", err)
	}
	sink := &Sink{client: client, topic: topic, logger: logger, breaker: circuit.New("audit-kafka")}
	for _, opt := range opts {
		opt(sink)
	}
	return sink, nil
}

// EnsureTopic creates the audit topic if it does not exist yet.
func (s *Sink) EnsureTopic(ctx context.Context, partitions int32, replication int16) error {
	adm := kadm.NewClient(s.client)
	resp, err := adm.CreateTopics(ctx, partitions, replication, nil, s.topic)
	if err != nil {
		return fmt.Errorf("kafka: create topic: %w", err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("kafka: create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Append implements audit.Sink. While the breaker is open events are
// skipped without a produce attempt; the primary store still has them.
func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	if !s.breaker.Allow() {
		return ErrCircuitOpen
	}
	value, err := encode(event)
	if err != nil {
		return err
	}
	record := &kgo.Record{
		Topic: s.topic,
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "category", Value: []byte(categoryOf(event))},
		},
	}
	if !event.AccountID.IsNil() {
		record.Key = []byte(event.AccountID.String())
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish audit event",
			"topic", s.topic,
			"action", event.Action,
			"error", err,
		)
		if _, change := s.breaker.RecordFailure(); change.Opened {
			s.logger.WarnContext(ctx, "audit sink circuit opened", "breaker", s.breaker.Name())
		}
		return fmt.Errorf("kafka: produce: %w", err)
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "audit sink circuit closed", "breaker", s.breaker.Name())
	}
	return nil
}

func (s *Sink) Close() {
	s.client.Close()
}

func categoryOf(event audit.Event) audit.EventCategory {
	if event.Category != "" {
		return event.Category
	}
	return audit.AuditEvent(event.Action).Category()
}

func encode(event audit.Event) ([]byte, error) {
	p := payload{
		ID:            uuid.NewString(),
		Category:      string(categoryOf(event)),
		Timestamp:     event.Timestamp.UTC().Format(time.RFC3339Nano),
		SubjectIDHash: event.SubjectIDHash,
		Action:        event.Action,
		Reason:        event.Reason,
		Email:         event.Email,
		IP:            event.IP,
		UserAgent:     event.UserAgent,
		RequestID:     event.RequestID,
		ActorID:       event.ActorID,
	}
	if !event.AccountID.IsNil() {
		p.AccountID = event.AccountID.String()
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("kafka: marshal audit payload: %w", err)
	}
	return b, nil
}
