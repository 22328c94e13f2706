package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
	"go.uber.org/zap"

	"github.com/campusdesk/issue-tracker/internal/config"
)

// KafkaQueue publishes notifications to a topic and reads them back in a consumer group.
type KafkaQueue struct {
	writer *kafka.Writer
	reader *kafka.Reader
	logger *zap.Logger
}

// NewKafkaProducer builds a write-only queue.
func NewKafkaProducer(cfg config.KafkaConfig, logger *zap.Logger) *KafkaQueue {
	transport := &kafka.Transport{}
	if cfg.Username != "" {
		transport.SASL = plain.Mechanism{Username: cfg.Username, Password: cfg.Password}
		transport.TLS = &tls.Config{}
	}
	return &KafkaQueue{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			Transport:    transport,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// NewKafkaConsumer builds a read-only queue in cfg.GroupID.
func NewKafkaConsumer(cfg config.KafkaConfig, logger *zap.Logger) *KafkaQueue {
	dialer := &kafka.Dialer{Timeout: 10 * time.Second, DualStack: true}
	if cfg.Username != "" {
		dialer.SASLMechanism = plain.Mechanism{Username: cfg.Username, Password: cfg.Password}
		dialer.TLS = &tls.Config{}
	}
	return &KafkaQueue{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			GroupID:  cfg.GroupID,
			Topic:    cfg.Topic,
			MinBytes: 1,
			MaxBytes: 10e6,
			Dialer:   dialer,
		}),
		logger: logger,
	}
}

// Notify writes the notification keyed by faculty id.
func (q *KafkaQueue) Notify(ctx context.Context, n Notification) error {
	if q.writer == nil {
		return errors.New("kafka producer not configured")
	}
	payload, err := encode(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	return q.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.FacultyID),
		Value: payload,
		Time:  n.CreatedAt,
	})
}

// Consume reads messages until ctx is cancelled.
func (q *KafkaQueue) Consume(ctx context.Context, handle HandlerFunc) error {
	if q.reader == nil {
		return errors.New("kafka consumer not configured")
	}
	for {
		msg, err := q.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			q.logger.Warn("kafka read failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		n, err := decode(msg.Value)
		if err != nil {
			q.logger.Warn("dropping malformed notification", zap.Int64("offset", msg.Offset), zap.Error(err))
			continue
		}
		if err := handle(ctx, n); err != nil {
			q.logger.Error("notification handler failed", zap.String("notification_id", n.ID), zap.Error(err))
		}
	}
}

// Close releases the writer and reader.
func (q *KafkaQueue) Close() error {
	var errs []error
	if q.writer != nil {
		errs = append(errs, q.writer.Close())
	}
	if q.reader != nil {
		errs = append(errs, q.reader.Close())
	}
	return errors.Join(errs...)
}
