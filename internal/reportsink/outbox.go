// Package reportsink persists detection reports and relays them to the audit
// topic through a transactional outbox. The report row and its outbox entry
// commit together, so a report is never published without being stored and
// never stored without eventually being published.
package reportsink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"scrutiny/internal/detection"
	txcontext "scrutiny/pkg/platform/tx"
)

// EventReportGenerated is the outbox event type for completed detection runs.
const EventReportGenerated = "detection_report_generated"

// Outbox implements detection.Sink on postgres.
type Outbox struct {
	db *sql.DB
}

// NewOutbox creates a report sink writing through the outbox table.
func NewOutbox(db *sql.DB) *Outbox {
	return &Outbox{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (o *Outbox) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return o.db
}

// reportEnvelope is the JSON document stored and published for each report.
type reportEnvelope struct {
	ReportID    string    `json:"report_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Severity    string    `json:"severity"`
	TotalCount  int       `json:"total_finding_count"`
	OperatorID  string    `json:"operator_id,omitempty"`
	ClientIP    string    `json:"client_ip,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`

	Body json.RawMessage `json:"body"`
}

// SaveReport stores the report and queues it for publication in a single
// transaction.
func (o *Outbox) SaveReport(ctx context.Context, report *detection.Report) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	envelope, err := json.Marshal(reportEnvelope{
		ReportID:    report.ReportID.String(),
		GeneratedAt: report.GeneratedAt,
		Severity:    string(report.Severity),
		TotalCount:  report.TotalFindingCount,
		OperatorID:  report.Provenance.OperatorID,
		ClientIP:    report.Provenance.ClientIP,
		UserAgent:   report.Provenance.UserAgent,
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("marshal report envelope: %w", err)
	}

	if _, ok := txcontext.From(ctx); ok {
		return o.saveReport(ctx, o.execer(ctx), report, body, envelope)
	}

	tx, err := o.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin report tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := o.saveReport(ctx, tx, report, body, envelope); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit report tx: %w", err)
	}
	return nil
}

func (o *Outbox) saveReport(ctx context.Context, exec dbExecutor, report *detection.Report, body, envelope []byte) error {
	_, err := exec.ExecContext(ctx, `
		INSERT INTO detection_reports (report_id, generated_at, severity, total_finding_count, operator_id, body)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.UUID(report.ReportID), report.GeneratedAt, string(report.Severity), report.TotalFindingCount, report.Provenance.OperatorID, body)
	if err != nil {
		return fmt.Errorf("insert detection report: %w", err)
	}

	_, err = exec.ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New(), "detection_report", uuid.UUID(report.ReportID), EventReportGenerated, envelope, time.Now())
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}
