package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/oic-ledger/internal/common"
	"github.com/Veraticus/oic-ledger/internal/engine"
	"github.com/Veraticus/oic-ledger/internal/model"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// Message kinds stored in run_messages.
const (
	messageWarning            = "warning"
	messageError              = "error"
	messageCalculationWarning = "calculation_warning"
	messageRecommendation     = "recommendation"
)

// RunSummary is one row of the run history.
type RunSummary struct {
	StartedAt        time.Time
	FinishedAt       time.Time
	TaxpayerName     string
	SpouseName       string
	State            string
	StandardsVersion string
	RCPLumpSum       decimal.Decimal
	RCPPeriodic      decimal.Decimal
	Documents        int
	Failed           int
	Confidence       float64
	ID               uuid.UUID
	QualifiesForCNC  bool
}

// DocumentRecord is the stored outcome of one input document.
type DocumentRecord struct {
	File  string
	Type  model.DocumentType
	Owner model.Owner
	Error string
}

// StoredRun is a saved run with everything needed to re-render it.
type StoredRun struct {
	Result    model.CalculationResult
	Form      model.FinancialForm
	Documents []DocumentRecord
	Excluded  []model.ExcludedDocument
	Warnings  []string
	Errors    []string
	RunSummary
}

// SaveRun stores a finished run in a single transaction.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run *engine.Run) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}

	// Audit and messages live in their own tables.
	result := run.Result
	result.AuditLog = nil
	result.Warnings = nil
	result.Recommendations = nil
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	formJSON, err := json.Marshal(run.Form)
	if err != nil {
		return fmt.Errorf("failed to encode form: %w", err)
	}

	return common.WithRetry(ctx, func() error {
		err := s.insertRun(ctx, run, resultJSON, formJSON)
		if err != nil && !isBusyError(err) {
			return common.Permanent(err)
		}
		return err
	}, saveRetry)
}

// saveRetry rides out writers from other processes holding the database.
var saveRetry = common.RetryOptions{
	MaxAttempts:  4,
	InitialDelay: 50 * time.Millisecond,
	MaxDelay:     time.Second,
}

func (s *SQLiteStorage) insertRun(ctx context.Context, run *engine.Run, resultJSON, formJSON []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	h := run.Household
	spouse := ""
	if h.Spouse != nil {
		spouse = h.Spouse.Name
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			id, started_at, finished_at, taxpayer_name, spouse_name, state,
			standards_version, methodology_version, document_count, failed_count,
			rcp_lump_sum, rcp_periodic, qualifies_cnc, confidence, result_json, form_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.StartedAt, run.FinishedAt, h.Taxpayer.Name, spouse, h.State,
		run.Result.StandardsVersion, run.Result.MethodologyVersion, len(run.Documents), len(run.Failed()),
		run.Result.RCPLumpSum.String(), run.Result.RCPPeriodic.String(), run.Result.QualifiesForCNC,
		run.Result.Confidence, string(resultJSON), string(formJSON),
	)
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("%w: run %s", common.ErrDuplicateEntry, run.ID)
		}
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if err := saveProvenance(ctx, tx, run); err != nil {
		return err
	}
	if err := saveAudit(ctx, tx, run.ID, run.Result.AuditLog); err != nil {
		return err
	}
	if err := saveDocuments(ctx, tx, run); err != nil {
		return err
	}

	messages := map[string][]string{
		messageWarning:            h.Warnings,
		messageError:              h.Errors,
		messageCalculationWarning: run.Result.Warnings,
		messageRecommendation:     run.Result.Recommendations,
	}
	for kind, texts := range messages {
		for i, text := range texts {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO run_messages (run_id, kind, seq, text) VALUES (?, ?, ?, ?)`,
				run.ID.String(), kind, i, text); err != nil {
				return fmt.Errorf("failed to insert %s message: %w", kind, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

func saveProvenance(ctx context.Context, tx *sql.Tx, run *engine.Run) error {
	if run.Household.Provenance == nil {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO provenance (run_id, seq, field_path, value, source_file, raw_text, method, confidence, extracted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare provenance insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, e := range run.Household.Provenance.Entries() {
		if _, err := stmt.ExecContext(ctx, run.ID.String(), i, e.FieldPath, e.Value, e.SourceFile,
			e.RawText, e.Method, e.Confidence, e.Timestamp); err != nil {
			return fmt.Errorf("failed to insert provenance for %s: %w", e.FieldPath, err)
		}
	}
	return nil
}

func saveAudit(ctx context.Context, tx *sql.Tx, runID uuid.UUID, entries []model.AuditEntry) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO audit_entries (run_id, seq, step, input, output, citation, notes, form_line, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare audit insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, runID.String(), i, e.Step, e.Input, e.Output,
			e.Citation, e.Notes, e.FormLine, e.Timestamp); err != nil {
			return fmt.Errorf("failed to insert audit step %s: %w", e.Step, err)
		}
	}
	return nil
}

func saveDocuments(ctx context.Context, tx *sql.Tx, run *engine.Run) error {
	for i, d := range run.Documents {
		errText := ""
		if d.Err != nil {
			errText = d.Err.Error()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_documents (run_id, seq, file, type, owner, error) VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID.String(), i, d.File, string(d.Type), string(d.Owner), errText); err != nil {
			return fmt.Errorf("failed to insert document %s: %w", d.File, err)
		}
	}
	for _, x := range run.Household.Excluded {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO excluded_documents (run_id, file, owner_name, reason) VALUES (?, ?, ?, ?)`,
			run.ID.String(), x.File, x.OwnerName, x.Reason); err != nil {
			return fmt.Errorf("failed to insert excluded document %s: %w", x.File, err)
		}
	}
	return nil
}

const summaryColumns = `id, started_at, finished_at, taxpayer_name, spouse_name, state, standards_version,
	document_count, failed_count, rcp_lump_sum, rcp_periodic, qualifies_cnc, confidence`

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner, extra ...any) (RunSummary, error) {
	var (
		r           RunSummary
		id          string
		spouse      sql.NullString
		state       sql.NullString
		lump, perio string
	)
	dest := append([]any{
		&id, &r.StartedAt, &r.FinishedAt, &r.TaxpayerName, &spouse, &state, &r.StandardsVersion,
		&r.Documents, &r.Failed, &lump, &perio, &r.QualifiesForCNC, &r.Confidence,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return RunSummary{}, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return RunSummary{}, fmt.Errorf("%w: run id %q", common.ErrDatabaseCorrupted, id)
	}
	r.ID = parsed
	r.SpouseName = spouse.String
	r.State = state.String
	if r.RCPLumpSum, err = decimal.NewFromString(lump); err != nil {
		return RunSummary{}, fmt.Errorf("%w: rcp_lump_sum %q", common.ErrDatabaseCorrupted, lump)
	}
	if r.RCPPeriodic, err = decimal.NewFromString(perio); err != nil {
		return RunSummary{}, fmt.Errorf("%w: rcp_periodic %q", common.ErrDatabaseCorrupted, perio)
	}
	return r, nil
}

// ListRuns returns saved runs, newest first. A limit of zero or less
// returns every run.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+summaryColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []RunSummary
	for rows.Next() {
		r, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ResolveRunID expands an unambiguous ID prefix to a full run ID.
func (s *SQLiteStorage) ResolveRunID(ctx context.Context, prefix string) (uuid.UUID, error) {
	if err := validateContext(ctx); err != nil {
		return uuid.Nil, err
	}
	if err := validateString(prefix, "prefix"); err != nil {
		return uuid.Nil, err
	}
	if id, err := uuid.Parse(prefix); err == nil {
		return id, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM runs WHERE id LIKE ? ORDER BY id LIMIT 2`, strings.ToLower(prefix)+"%")
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to resolve run id: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return uuid.Nil, fmt.Errorf("failed to scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return uuid.Nil, err
	}

	switch len(ids) {
	case 0:
		return uuid.Nil, fmt.Errorf("%w: run %s", common.ErrNotFound, prefix)
	case 1:
		return uuid.Parse(ids[0])
	default:
		return uuid.Nil, fmt.Errorf("run prefix %q is ambiguous", prefix)
	}
}

// GetRun loads a saved run.
func (s *SQLiteStorage) GetRun(ctx context.Context, id uuid.UUID) (*StoredRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var resultJSON, formJSON string
	row := s.db.QueryRowContext(ctx,
		`SELECT `+summaryColumns+`, result_json, form_json FROM runs WHERE id = ?`, id.String())
	summary, err := scanSummary(row, &resultJSON, &formJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	stored := &StoredRun{RunSummary: summary}
	if err := json.Unmarshal([]byte(resultJSON), &stored.Result); err != nil {
		return nil, fmt.Errorf("%w: result of run %s: %v", common.ErrDatabaseCorrupted, id, err)
	}
	if err := json.Unmarshal([]byte(formJSON), &stored.Form); err != nil {
		return nil, fmt.Errorf("%w: form of run %s: %v", common.ErrDatabaseCorrupted, id, err)
	}

	if stored.Result.AuditLog, err = s.auditLog(ctx, s.db, id); err != nil {
		return nil, err
	}
	if err := s.loadMessages(ctx, id, stored); err != nil {
		return nil, err
	}
	if err := s.loadDocuments(ctx, id, stored); err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *SQLiteStorage) loadMessages(ctx context.Context, id uuid.UUID, stored *StoredRun) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, text FROM run_messages WHERE run_id = ? ORDER BY kind, seq`, id.String())
	if err != nil {
		return fmt.Errorf("failed to load messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	stored.Result.Warnings = []string{}
	stored.Result.Recommendations = []string{}
	for rows.Next() {
		var kind, text string
		if err := rows.Scan(&kind, &text); err != nil {
			return fmt.Errorf("failed to scan message: %w", err)
		}
		switch kind {
		case messageWarning:
			stored.Warnings = append(stored.Warnings, text)
		case messageError:
			stored.Errors = append(stored.Errors, text)
		case messageCalculationWarning:
			stored.Result.Warnings = append(stored.Result.Warnings, text)
		case messageRecommendation:
			stored.Result.Recommendations = append(stored.Result.Recommendations, text)
		}
	}
	return rows.Err()
}

func (s *SQLiteStorage) loadDocuments(ctx context.Context, id uuid.UUID, stored *StoredRun) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file, type, owner, error FROM run_documents WHERE run_id = ? ORDER BY seq`, id.String())
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			d            DocumentRecord
			typ          string
			owner, errTx sql.NullString
		)
		if err := rows.Scan(&d.File, &typ, &owner, &errTx); err != nil {
			return fmt.Errorf("failed to scan document: %w", err)
		}
		d.Type = model.DocumentType(typ)
		d.Owner = model.Owner(owner.String)
		d.Error = errTx.String
		stored.Documents = append(stored.Documents, d)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	xrows, err := s.db.QueryContext(ctx,
		`SELECT file, owner_name, reason FROM excluded_documents WHERE run_id = ? ORDER BY rowid`, id.String())
	if err != nil {
		return fmt.Errorf("failed to load excluded documents: %w", err)
	}
	defer func() { _ = xrows.Close() }()

	for xrows.Next() {
		var (
			x     model.ExcludedDocument
			owner sql.NullString
		)
		if err := xrows.Scan(&x.File, &owner, &x.Reason); err != nil {
			return fmt.Errorf("failed to scan excluded document: %w", err)
		}
		x.OwnerName = owner.String
		stored.Excluded = append(stored.Excluded, x)
	}
	return xrows.Err()
}

// Provenance returns the provenance entries of a run in recording order.
// A non-empty field matches that path and every path beneath it.
func (s *SQLiteStorage) Provenance(ctx context.Context, runID uuid.UUID, field string) ([]model.ProvenanceEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT field_path, value, source_file, raw_text, method, confidence, extracted_at
		FROM provenance WHERE run_id = ?`
	args := []any{runID.String()}
	if field = strings.TrimSpace(field); field != "" {
		query += ` AND (field_path = ? OR substr(field_path, 1, ?) = ?)`
		prefix := field + "."
		args = append(args, field, len(prefix), prefix)
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query provenance: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.ProvenanceEntry
	for rows.Next() {
		var (
			e   model.ProvenanceEntry
			raw sql.NullString
		)
		if err := rows.Scan(&e.FieldPath, &e.Value, &e.SourceFile, &raw, &e.Method, &e.Confidence, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan provenance: %w", err)
		}
		e.RawText = raw.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AuditLog returns the calculation steps of a run in order.
func (s *SQLiteStorage) AuditLog(ctx context.Context, runID uuid.UUID) ([]model.AuditEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.auditLog(ctx, s.db, runID)
}

func (s *SQLiteStorage) auditLog(ctx context.Context, q queryable, runID uuid.UUID) ([]model.AuditEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT step, input, output, citation, notes, form_line, recorded_at
		FROM audit_entries WHERE run_id = ? ORDER BY seq`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.AuditEntry
	for rows.Next() {
		var (
			e                         model.AuditEntry
			citation, notes, formLine sql.NullString
		)
		if err := rows.Scan(&e.Step, &e.Input, &e.Output, &citation, &notes, &formLine, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Citation = citation.String
		e.Notes = notes.String
		e.FormLine = formLine.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteRun removes a run and everything recorded with it.
func (s *SQLiteStorage) DeleteRun(ctx context.Context, id uuid.UUID) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: run %s", common.ErrNotFound, id)
	}
	return nil
}

func isConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}

func isBusyError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		(sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked)
}
