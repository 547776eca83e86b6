package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/lepto-analytics/internal/config"
	"github.com/couchcryptid/lepto-analytics/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// ReportWriter produces city reports to a Kafka topic.
// It implements analytics.ReportPublisher.
type ReportWriter struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewReportWriter creates a Kafka producer for the configured report topic.
func NewReportWriter(cfg *config.Config, logger *slog.Logger) *ReportWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReportTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		WriteTimeout: cfg.PublishTimeout,
	}
	return &ReportWriter{writer: w, logger: logger}
}

// PublishReports serializes and publishes the reports in a single
// WriteMessages call. Messages are keyed by city, so each city's reports land
// on one partition.
func (w *ReportWriter) PublishReports(ctx context.Context, reports []domain.CityReport) error {
	if len(reports) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(reports))
	for i := range reports {
		msg, err := serializeReport(reports[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write reports: %w", err)
	}
	w.logger.Debug("reports written", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *ReportWriter) Close() error {
	return w.writer.Close()
}

// serializeReport marshals a CityReport into a Kafka message.
func serializeReport(report domain.CityReport) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize city report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.City),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "city", Value: []byte(report.City)},
			{Key: "report_id", Value: []byte(report.ID)},
			{Key: "generated_at", Value: []byte(report.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
