package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/user/chathub/internal/coordinator"
)

// DefaultSubject is the subject prefix reports are published under.
const DefaultSubject = "chathub.reports"

// Publisher is the part of *nats.Conn the sink uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes each report as JSON on "<subject>.<platform>".
type NATSSink struct {
	pub     Publisher
	subject string
}

// NewNATSSink creates a sink publishing through pub.
func NewNATSSink(pub Publisher, subject string) *NATSSink {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSSink{pub: pub, subject: subject}
}

// Connect dials a NATS server with reconnects enabled.
func Connect(url, token string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("chathub"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}
	return nc, nil
}

// Subject returns the subject a report for platform is published on.
func (s *NATSSink) Subject(platform string) string {
	if platform == "" {
		return s.subject
	}
	return s.subject + "." + platform
}

func (s *NATSSink) Publish(ctx context.Context, report *coordinator.Report) {
	if ctx.Err() != nil {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		slog.Error("marshal report", "error", err)
		return
	}
	subject := s.Subject(string(report.Message.Platform))
	if err := s.pub.Publish(subject, data); err != nil {
		slog.Error("publish report", "subject", subject, "error", err)
	}
}
