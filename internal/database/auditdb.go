package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "sitequality.db"

// ErrNotFound is returned when an audit does not exist.
var ErrNotFound = errors.New("audit not found")

// AuditDB stores audits, their pages and issues, and the link statuses
// probed during each audit.
type AuditDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures AuditDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the audit database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*AuditDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file, mode=rwc creates it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	adb := &AuditDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := adb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return adb, nil
}

// Close closes the database connection.
func (adb *AuditDB) Close() error {
	return adb.db.Close()
}

// Path returns the database file path.
func (adb *AuditDB) Path() string {
	return adb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (adb *AuditDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS audits (
		id TEXT PRIMARY KEY,
		target TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at TEXT NOT NULL,
		completed_at TEXT,
		error TEXT,
		cancelled INTEGER DEFAULT 0,
		total_pages INTEGER DEFAULT 0,
		total_issues INTEGER DEFAULT 0,
		overall_score REAL,
		summary_json TEXT,
		redirects_json TEXT,
		steps_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_audits_target ON audits(target);
	CREATE INDEX IF NOT EXISTS idx_audits_started ON audits(started_at);

	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		audit_id TEXT NOT NULL REFERENCES audits(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		final_url TEXT,
		status_code INTEGER,
		title TEXT,
		meta_description TEXT,
		h1_json TEXT,
		word_count INTEGER,
		load_time_ms REAL,
		attempts INTEGER,
		error TEXT,
		fetched_at TEXT,
		UNIQUE(audit_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_audit ON pages(audit_id);

	CREATE TABLE IF NOT EXISTS issues (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		audit_id TEXT NOT NULL REFERENCES audits(id) ON DELETE CASCADE,
		page_url TEXT NOT NULL,
		category TEXT NOT NULL,
		severity TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		recommendation TEXT,
		url TEXT,
		element TEXT,
		context TEXT,
		line_number INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_issues_audit ON issues(audit_id);
	CREATE INDEX IF NOT EXISTS idx_issues_category ON issues(category);
	CREATE INDEX IF NOT EXISTS idx_issues_severity ON issues(severity);

	CREATE TABLE IF NOT EXISTS link_statuses (
		audit_id TEXT NOT NULL REFERENCES audits(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		status INTEGER NOT NULL,
		PRIMARY KEY(audit_id, url)
	);
	`

	_, err := adb.db.ExecContext(context.Background(), schema)
	return err
}

// RecordPage stores one analyzed page and its issues. The audit row is
// created on first use so pages can be recorded while the audit runs.
// Recording a page again replaces it.
func (adb *AuditDB) RecordPage(ctx context.Context, report *model.AuditReport, page *model.PageResult) error {
	return adb.inTx(ctx, func(tx *sql.Tx) error {
		if err := upsertAudit(ctx, tx, report); err != nil {
			return err
		}
		return replacePage(ctx, tx, report.ID, page)
	})
}

// SaveAudit stores a finished audit with all of its pages and the link
// statuses probed during the run. Pages recorded earlier are replaced.
func (adb *AuditDB) SaveAudit(ctx context.Context, report *model.AuditReport, linkStatuses map[string]int) error {
	return adb.inTx(ctx, func(tx *sql.Tx) error {
		if err := upsertAudit(ctx, tx, report); err != nil {
			return err
		}
		for _, page := range report.Pages {
			if err := replacePage(ctx, tx, report.ID, page); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM link_statuses WHERE audit_id = ?`, report.ID); err != nil {
			return fmt.Errorf("failed to clear link statuses: %w", err)
		}
		for url, status := range linkStatuses {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO link_statuses (audit_id, url, status) VALUES (?, ?, ?)`,
				report.ID, url, status,
			); err != nil {
				return fmt.Errorf("failed to save link status: %w", err)
			}
		}
		return nil
	})
}

// inTx runs fn in a transaction.
func (adb *AuditDB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := adb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func upsertAudit(ctx context.Context, tx *sql.Tx, report *model.AuditReport) error {
	if report.ID == "" {
		return errors.New("audit has no id")
	}

	var (
		summaryJSON sql.NullString
		score       sql.NullFloat64
		totalIssues int
	)
	if report.Summary != nil {
		data, err := json.Marshal(report.Summary)
		if err != nil {
			return fmt.Errorf("failed to serialize summary: %w", err)
		}
		summaryJSON = sql.NullString{String: string(data), Valid: true}
		score = sql.NullFloat64{Float64: report.Summary.OverallScore, Valid: true}
		totalIssues = report.Summary.TotalIssues
	} else {
		totalIssues = len(report.AllIssues())
	}

	redirectsJSON, _ := json.Marshal(report.Redirects)  //nolint:errcheck,errchkjson // map of string slices
	stepsJSON, _ := json.Marshal(report.PerformedSteps) //nolint:errcheck,errchkjson // string slice

	query := `
	INSERT INTO audits (id, target, status, started_at, completed_at, error, cancelled,
		total_pages, total_issues, overall_score, summary_json, redirects_json, steps_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		status = excluded.status,
		completed_at = excluded.completed_at,
		error = excluded.error,
		cancelled = excluded.cancelled,
		total_pages = excluded.total_pages,
		total_issues = excluded.total_issues,
		overall_score = excluded.overall_score,
		summary_json = excluded.summary_json,
		redirects_json = excluded.redirects_json,
		steps_json = excluded.steps_json
	`

	_, err := tx.ExecContext(ctx, query,
		report.ID,
		report.Target,
		report.Status,
		formatTimestamp(report.StartedAt),
		formatTimestamp(report.CompletedAt),
		report.Error,
		report.Cancelled,
		len(report.Pages),
		totalIssues,
		score,
		summaryJSON,
		string(redirectsJSON),
		string(stepsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save audit: %w", err)
	}
	return nil
}

func replacePage(ctx context.Context, tx *sql.Tx, auditID string, page *model.PageResult) error {
	headingsJSON, _ := json.Marshal(page.Headings) //nolint:errcheck,errchkjson // string slice

	query := `
	INSERT INTO pages (audit_id, url, final_url, status_code, title, meta_description, h1_json,
		word_count, load_time_ms, attempts, error, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(audit_id, url) DO UPDATE SET
		final_url = excluded.final_url,
		status_code = excluded.status_code,
		title = excluded.title,
		meta_description = excluded.meta_description,
		h1_json = excluded.h1_json,
		word_count = excluded.word_count,
		load_time_ms = excluded.load_time_ms,
		attempts = excluded.attempts,
		error = excluded.error,
		fetched_at = excluded.fetched_at
	`
	if _, err := tx.ExecContext(ctx, query,
		auditID,
		page.URL,
		page.FinalURL,
		page.StatusCode,
		page.Title,
		page.MetaDescription,
		string(headingsJSON),
		page.WordCount,
		page.LoadTimeMS,
		page.Attempts,
		page.Error,
		formatTimestamp(page.FetchedAt),
	); err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM issues WHERE audit_id = ? AND page_url = ?`, auditID, page.URL,
	); err != nil {
		return fmt.Errorf("failed to clear issues: %w", err)
	}
	for _, issue := range page.Issues {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO issues (audit_id, page_url, category, severity, title, description,
				recommendation, url, element, context, line_number)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			auditID,
			page.URL,
			string(issue.Category),
			issue.Severity.String(),
			issue.Title,
			issue.Description,
			issue.Recommendation,
			issue.URL,
			issue.Element,
			issue.Context,
			issue.LineNumber,
		); err != nil {
			return fmt.Errorf("failed to save issue: %w", err)
		}
	}
	return nil
}

// AuditMetadata summarizes a stored audit without loading its pages.
type AuditMetadata struct {
	ID           string
	Target       string
	Status       string
	StartedAt    time.Time
	CompletedAt  time.Time
	TotalPages   int
	TotalIssues  int
	OverallScore float64
	Error        string
}

// ListAudits returns audit metadata, newest first. An empty target lists
// the audits of every site.
func (adb *AuditDB) ListAudits(ctx context.Context, target string, limit int) ([]AuditMetadata, error) {
	query := `
	SELECT id, target, status, started_at, completed_at, total_pages, total_issues, overall_score, error
	FROM audits
	WHERE 1=1
	`
	args := make([]any, 0, 2)

	if target != "" {
		query += " AND target = ?"
		args = append(args, target)
	}
	query += " ORDER BY started_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := adb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audits: %w", err)
	}
	defer rows.Close()

	var results []AuditMetadata
	for rows.Next() {
		var (
			meta                 AuditMetadata
			started              string
			completed, errorText sql.NullString
			score                sql.NullFloat64
		)
		if err := rows.Scan(&meta.ID, &meta.Target, &meta.Status, &started, &completed,
			&meta.TotalPages, &meta.TotalIssues, &score, &errorText); err != nil {
			return nil, fmt.Errorf("failed to scan audit: %w", err)
		}
		meta.StartedAt = parseTimestamp(started)
		meta.CompletedAt = parseTimestamp(completed.String)
		meta.OverallScore = score.Float64
		meta.Error = errorText.String
		results = append(results, meta)
	}

	return results, rows.Err()
}

// ListTargets returns every audited site, sorted.
func (adb *AuditDB) ListTargets(ctx context.Context) ([]string, error) {
	rows, err := adb.db.QueryContext(ctx, `SELECT DISTINCT target FROM audits ORDER BY target`)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer rows.Close()

	var targets []string
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		targets = append(targets, target)
	}

	return targets, rows.Err()
}

// GetAudit loads an audit with its pages and issues. It returns
// ErrNotFound when no audit has the given id.
func (adb *AuditDB) GetAudit(ctx context.Context, id string) (*model.AuditReport, error) {
	query := `
	SELECT id, target, status, started_at, completed_at, error, cancelled,
		summary_json, redirects_json, steps_json
	FROM audits
	WHERE id = ?
	`

	var (
		report                                model.AuditReport
		started                               string
		completed, errorText                  sql.NullString
		summaryJSON, redirectsJSON, stepsJSON sql.NullString
	)
	err := adb.db.QueryRowContext(ctx, query, id).Scan(
		&report.ID,
		&report.Target,
		&report.Status,
		&started,
		&completed,
		&errorText,
		&report.Cancelled,
		&summaryJSON,
		&redirectsJSON,
		&stepsJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit: %w", err)
	}

	report.StartedAt = parseTimestamp(started)
	report.CompletedAt = parseTimestamp(completed.String)
	report.Error = errorText.String
	if summaryJSON.Valid && summaryJSON.String != "" {
		report.Summary = &model.Summary{}
		if err := json.Unmarshal([]byte(summaryJSON.String), report.Summary); err != nil {
			return nil, fmt.Errorf("failed to parse summary: %w", err)
		}
	}
	if redirectsJSON.Valid && redirectsJSON.String != "" && redirectsJSON.String != "null" {
		if err := json.Unmarshal([]byte(redirectsJSON.String), &report.Redirects); err != nil {
			return nil, fmt.Errorf("failed to parse redirects: %w", err)
		}
	}
	if stepsJSON.Valid && stepsJSON.String != "" && stepsJSON.String != "null" {
		if err := json.Unmarshal([]byte(stepsJSON.String), &report.PerformedSteps); err != nil {
			return nil, fmt.Errorf("failed to parse steps: %w", err)
		}
	}

	pages, err := adb.loadPages(ctx, id)
	if err != nil {
		return nil, err
	}
	report.Pages = pages

	return &report, nil
}

// loadPages loads the pages of an audit in crawl order with their issues.
func (adb *AuditDB) loadPages(ctx context.Context, auditID string) ([]*model.PageResult, error) {
	rows, err := adb.db.QueryContext(ctx, `
		SELECT url, final_url, status_code, title, meta_description, h1_json,
			word_count, load_time_ms, attempts, error, fetched_at
		FROM pages
		WHERE audit_id = ?
		ORDER BY id`, auditID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pages: %w", err)
	}
	defer rows.Close()

	pages := make([]*model.PageResult, 0)
	byURL := make(map[string]*model.PageResult)
	for rows.Next() {
		var (
			fetch                     model.FetchResult
			finalURL, title, desc     sql.NullString
			headingsJSON, errText, at sql.NullString
		)
		page := model.NewPageResult(&fetch)
		if err := rows.Scan(&fetch.URL, &finalURL, &fetch.StatusCode, &title, &desc, &headingsJSON,
			&page.WordCount, &fetch.LoadTimeMS, &fetch.Attempts, &errText, &at); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		fetch.FinalURL = finalURL.String
		fetch.Error = errText.String
		fetch.FetchedAt = parseTimestamp(at.String)
		page.Title = title.String
		page.MetaDescription = desc.String
		if headingsJSON.Valid && headingsJSON.String != "" && headingsJSON.String != "null" {
			if err := json.Unmarshal([]byte(headingsJSON.String), &page.Headings); err != nil {
				return nil, fmt.Errorf("failed to parse headings: %w", err)
			}
		}
		pages = append(pages, page)
		byURL[page.URL] = page
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	issues, err := adb.db.QueryContext(ctx, `
		SELECT page_url, category, severity, title, description, recommendation,
			url, element, context, line_number
		FROM issues
		WHERE audit_id = ?
		ORDER BY id`, auditID)
	if err != nil {
		return nil, fmt.Errorf("failed to load issues: %w", err)
	}
	defer issues.Close()

	for issues.Next() {
		var (
			issue                       model.Issue
			pageURL, category, severity string
			desc, rec, url, elem, ctxt  sql.NullString
		)
		if err := issues.Scan(&pageURL, &category, &severity, &issue.Title, &desc, &rec,
			&url, &elem, &ctxt, &issue.LineNumber); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		sev, err := model.ParseSeverity(severity)
		if err != nil {
			return nil, fmt.Errorf("failed to parse issue severity: %w", err)
		}
		issue.Category = model.Category(category)
		issue.Severity = sev
		issue.Description = desc.String
		issue.Recommendation = rec.String
		issue.URL = url.String
		issue.Element = elem.String
		issue.Context = ctxt.String

		if page, ok := byURL[pageURL]; ok {
			page.AddIssues(issue)
		}
	}

	return pages, issues.Err()
}

// LatestAudits returns up to n audits of target, newest first, fully
// loaded.
func (adb *AuditDB) LatestAudits(ctx context.Context, target string, n int) ([]*model.AuditReport, error) {
	metas, err := adb.ListAudits(ctx, target, n)
	if err != nil {
		return nil, err
	}

	reports := make([]*model.AuditReport, 0, len(metas))
	for _, meta := range metas {
		report, err := adb.GetAudit(ctx, meta.ID)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// LinkStatuses returns the link statuses recorded for an audit.
func (adb *AuditDB) LinkStatuses(ctx context.Context, auditID string) (map[string]int, error) {
	rows, err := adb.db.QueryContext(ctx,
		`SELECT url, status FROM link_statuses WHERE audit_id = ?`, auditID)
	if err != nil {
		return nil, fmt.Errorf("failed to load link statuses: %w", err)
	}
	defer rows.Close()

	statuses := make(map[string]int)
	for rows.Next() {
		var (
			url    string
			status int
		)
		if err := rows.Scan(&url, &status); err != nil {
			return nil, fmt.Errorf("failed to scan link status: %w", err)
		}
		statuses[url] = status
	}
	return statuses, rows.Err()
}

// DeleteAudit removes an audit with its pages, issues and link statuses.
func (adb *AuditDB) DeleteAudit(ctx context.Context, id string) error {
	return adb.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"issues", "pages", "link_statuses"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE audit_id = ?", id); err != nil {
				return fmt.Errorf("failed to delete from %s: %w", table, err)
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM audits WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete audit: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil
	})
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// formatTimestamp stores zero times as empty strings.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
