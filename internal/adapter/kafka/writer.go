package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/royaltylab/royalty-report-service/internal/config"
	"github.com/royaltylab/royalty-report-service/internal/domain"
)

// Writer publishes canonical royalty records to a Kafka topic. It
// implements httpapi.RecordPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// canonicalRecord is the wire form of a projected record.
type canonicalRecord struct {
	ReportID       string  `json:"report_id"`
	Row            int     `json:"row"`
	ReportingMonth string  `json:"reporting_month,omitempty"`
	Country        string  `json:"country,omitempty"`
	Platform       string  `json:"platform,omitempty"`
	Artist         string  `json:"artist,omitempty"`
	ReleaseTitle   string  `json:"release_title,omitempty"`
	TrackTitle     string  `json:"track_title,omitempty"`
	ISRC           string  `json:"isrc,omitempty"`
	UPC            string  `json:"upc,omitempty"`
	Quantity       float64 `json:"quantity"`
	Revenue        float64 `json:"revenue"`
}

// PublishRecords serializes the projected records of one report and
// writes them to the sink topic in a single WriteMessages call.
func (w *Writer) PublishRecords(ctx context.Context, reportID string, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i, rec := range records {
		msg, err := serializeToMessage(reportID, i, rec)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one record into a Kafka message keyed by
// report ID so all rows of a report land in one partition, in order.
func serializeToMessage(reportID string, row int, rec domain.Record) (kafkago.Message, error) {
	data, err := json.Marshal(canonicalRecord{
		ReportID:       reportID,
		Row:            row,
		ReportingMonth: rec.ReportingMonth,
		Country:        rec.Country,
		Platform:       rec.Platform,
		Artist:         rec.Artist,
		ReleaseTitle:   rec.ReleaseTitle,
		TrackTitle:     rec.TrackTitle,
		ISRC:           rec.ISRC,
		UPC:            rec.UPC,
		Quantity:       rec.Quantity,
		Revenue:        rec.Revenue,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(reportID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "report_id", Value: []byte(reportID)},
			{Key: "row", Value: []byte(strconv.Itoa(row))},
		},
	}, nil
}
