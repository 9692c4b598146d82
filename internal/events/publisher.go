// Package events publishes run-completion events over NATS so external
// automation (CI gates, chat notifiers) can react without polling reports.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/texbuilder/internal/config"
)

// RunCompleted is the wire payload published after every run.
type RunCompleted struct {
	RunID              string    `json:"run_id"`
	RootDocument       string    `json:"root_document"`
	Verdict            string    `json:"verdict"`
	GeneratedTemplates bool      `json:"generated_templates"`
	BuildFailed        bool      `json:"build_failed"`
	FinishedAt         time.Time `json:"finished_at"`
}

// Publisher sends run events to a NATS subject.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// NewPublisher connects to the configured NATS server. Returns an error when
// events are disabled or the connection fails; callers treat publishing as
// optional and degrade to logging.
func NewPublisher(cfg config.EventsConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("event publishing is disabled")
	}
	conn, err := nats.Connect(cfg.NATSURL, nats.Name("texbuilder"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS publisher initialized", "url", cfg.NATSURL, "subject", cfg.Subject)
	return &Publisher{conn: conn, subject: cfg.Subject}, nil
}

// Publish sends one run-completion event and flushes the connection so the
// event is on the wire before the process exits.
func (p *Publisher) Publish(event RunCompleted) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish run event: %w", err)
	}
	if err := p.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("flush run event: %w", err)
	}
	return nil
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
