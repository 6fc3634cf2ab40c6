package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *AuditDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// sampleReport builds a finished audit with two pages.
func sampleReport(id, target string, started time.Time) *model.AuditReport {
	report := model.NewAuditReport(id, target)
	report.StartedAt = started
	report.CompletedAt = started.Add(time.Minute)
	report.Status = model.StatusCompleted
	report.PerformedSteps = []string{"crawl", "summary"}
	report.Redirects = map[string][]string{target + "about": {target + "old"}}

	home := model.NewPageResult(&model.FetchResult{
		URL:        target,
		StatusCode: 200,
		LoadTimeMS: 120.5,
		Attempts:   1,
		FetchedAt:  started,
	})
	home.Title = "Home"
	home.MetaDescription = "Welcome"
	home.Headings = []string{"Hello"}
	home.WordCount = 42
	home.AddIssues(
		model.Issue{
			Category:       model.CategoryLinks,
			Severity:       model.SeverityHigh,
			Title:          "Broken link (404): " + target + "gone",
			Description:    "Link returns 404 Not Found.",
			Recommendation: "Update or remove the broken link.",
			URL:            target,
			Element:        `<a href="/gone">gone</a>`,
			Context:        "Status: 404",
		},
		model.Issue{
			Category: model.CategoryLinks,
			Severity: model.SeverityMedium,
			Title:    "Thin content page",
			URL:      target,
		},
	)

	missing := model.NewPageResult(&model.FetchResult{
		URL:        target + "missing",
		StatusCode: 0,
		Error:      "timeout",
		Attempts:   3,
	})

	report.Pages = []*model.PageResult{home, missing}
	report.Summarize()
	return report
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "nonexistent-db")

		_, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err == nil {
			t.Fatal("expected error when CreateIfNotExists=false and database does not exist")
		}
		if !strings.Contains(err.Error(), "database not found") {
			t.Errorf("expected informative error, got %q", err.Error())
		}
		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("database directory should not have been created when CreateIfNotExists=false")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "existing-db")
		ctx := context.Background()

		db1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		report := sampleReport("persisted", "https://site.test/", time.Now())
		if err := db1.SaveAudit(ctx, report, nil); err != nil {
			t.Fatalf("failed to save audit: %v", err)
		}
		db1.Close()

		db2, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to open existing database: %v", err)
		}
		defer db2.Close()

		if _, err := db2.GetAudit(ctx, "persisted"); err != nil {
			t.Errorf("expected audit to persist: %v", err)
		}
	})
}

// TestDefaultOptions tests the default options values.
func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()

	if !opts.CreateIfNotExists {
		t.Error("expected CreateIfNotExists to be true by default")
	}
	if !opts.EnableWAL {
		t.Error("expected EnableWAL to be true by default")
	}
}

// TestSaveAndGetAudit tests a full round trip through the tables.
func TestSaveAndGetAudit(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	started := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	report := sampleReport("audit-1", "https://site.test/", started)

	links := map[string]int{"https://site.test/gone": 404, "https://site.test/ok": 200}
	if err := db.SaveAudit(ctx, report, links); err != nil {
		t.Fatalf("failed to save audit: %v", err)
	}

	got, err := db.GetAudit(ctx, "audit-1")
	if err != nil {
		t.Fatalf("failed to get audit: %v", err)
	}

	if got.Target != report.Target || got.Status != model.StatusCompleted {
		t.Errorf("unexpected audit header %+v", got)
	}
	if !got.StartedAt.Equal(started) || !got.CompletedAt.Equal(started.Add(time.Minute)) {
		t.Errorf("unexpected timestamps %v %v", got.StartedAt, got.CompletedAt)
	}
	if len(got.PerformedSteps) != 2 || len(got.Redirects) != 1 {
		t.Errorf("unexpected steps %v or redirects %v", got.PerformedSteps, got.Redirects)
	}
	if got.Summary == nil || got.Summary.TotalIssues != 2 || got.Summary.OverallScore != report.Summary.OverallScore {
		t.Errorf("unexpected summary %+v", got.Summary)
	}

	if len(got.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(got.Pages))
	}
	home := got.Pages[0]
	if home.URL != "https://site.test/" || home.Title != "Home" || home.MetaDescription != "Welcome" ||
		home.WordCount != 42 || len(home.Headings) != 1 || home.LoadTimeMS != 120.5 {
		t.Errorf("unexpected home page %+v", home)
	}
	if len(home.Issues) != 2 {
		t.Fatalf("expected 2 issues, got %d", len(home.Issues))
	}
	if home.Issues[0] != report.Pages[0].Issues[0] {
		t.Errorf("issue changed in storage:\n got  %+v\n want %+v", home.Issues[0], report.Pages[0].Issues[0])
	}
	if got.Pages[1].Error != "timeout" || got.Pages[1].Attempts != 3 {
		t.Errorf("unexpected failed page %+v", got.Pages[1])
	}

	statuses, err := db.LinkStatuses(ctx, "audit-1")
	if err != nil {
		t.Fatalf("failed to load link statuses: %v", err)
	}
	if len(statuses) != 2 || statuses["https://site.test/gone"] != 404 {
		t.Errorf("unexpected link statuses %v", statuses)
	}
}

// TestGetAuditNotFound tests the missing-audit error.
func TestGetAuditNotFound(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	if _, err := db.GetAudit(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestRecordPage tests incremental recording followed by SaveAudit.
func TestRecordPage(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	report := sampleReport("audit-rec", "https://site.test/", time.Now())
	report.Status = model.StatusRunning
	summary := report.Summary
	report.Summary = nil

	for _, page := range report.Pages {
		if err := db.RecordPage(ctx, report, page); err != nil {
			t.Fatalf("failed to record page: %v", err)
		}
	}
	// Recording the same page twice replaces it.
	if err := db.RecordPage(ctx, report, report.Pages[0]); err != nil {
		t.Fatalf("failed to re-record page: %v", err)
	}

	running, err := db.GetAudit(ctx, "audit-rec")
	if err != nil {
		t.Fatalf("failed to get audit: %v", err)
	}
	if running.Status != model.StatusRunning || running.Summary != nil {
		t.Errorf("expected a running audit without summary, got %+v", running)
	}
	if len(running.Pages) != 2 || len(running.Pages[0].Issues) != 2 {
		t.Errorf("expected 2 pages and 2 issues on the home page, got %d pages", len(running.Pages))
	}

	report.Status = model.StatusCompleted
	report.Summary = summary
	if err := db.SaveAudit(ctx, report, nil); err != nil {
		t.Fatalf("failed to save audit: %v", err)
	}
	done, err := db.GetAudit(ctx, "audit-rec")
	if err != nil {
		t.Fatalf("failed to get audit: %v", err)
	}
	if done.Status != model.StatusCompleted || len(done.Pages[0].Issues) != 2 {
		t.Errorf("expected completed audit without duplicated issues, got %+v", done)
	}
}

// TestListing tests targets, metadata and latest audits.
func TestListing(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	for i, r := range []*model.AuditReport{
		sampleReport("a-1", "https://a.test/", base),
		sampleReport("a-2", "https://a.test/", base.Add(time.Hour)),
		sampleReport("a-3", "https://a.test/", base.Add(2*time.Hour)),
		sampleReport("b-1", "https://b.test/", base),
	} {
		if err := db.SaveAudit(ctx, r, nil); err != nil {
			t.Fatalf("failed to save audit %d: %v", i, err)
		}
	}

	targets, err := db.ListTargets(ctx)
	if err != nil {
		t.Fatalf("failed to list targets: %v", err)
	}
	if len(targets) != 2 || targets[0] != "https://a.test/" || targets[1] != "https://b.test/" {
		t.Errorf("unexpected targets %v", targets)
	}

	metas, err := db.ListAudits(ctx, "https://a.test/", 0)
	if err != nil {
		t.Fatalf("failed to list audits: %v", err)
	}
	if len(metas) != 3 || metas[0].ID != "a-3" || metas[2].ID != "a-1" {
		t.Errorf("expected newest first, got %+v", metas)
	}
	if metas[0].TotalPages != 2 || metas[0].TotalIssues != 2 {
		t.Errorf("unexpected metadata %+v", metas[0])
	}

	all, err := db.ListAudits(ctx, "", 0)
	if err != nil {
		t.Fatalf("failed to list all audits: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("expected 4 audits, got %d", len(all))
	}

	latest, err := db.LatestAudits(ctx, "https://a.test/", 2)
	if err != nil {
		t.Fatalf("failed to load latest audits: %v", err)
	}
	if len(latest) != 2 || latest[0].ID != "a-3" || latest[1].ID != "a-2" {
		t.Errorf("unexpected latest audits %v", latest)
	}
	if len(latest[0].Pages) != 2 {
		t.Errorf("expected latest audits to be fully loaded")
	}
}

// TestDeleteAudit tests removal of an audit and its rows.
func TestDeleteAudit(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	report := sampleReport("gone", "https://site.test/", time.Now())
	if err := db.SaveAudit(ctx, report, map[string]int{"https://site.test/x": 200}); err != nil {
		t.Fatalf("failed to save audit: %v", err)
	}

	if err := db.DeleteAudit(ctx, "gone"); err != nil {
		t.Fatalf("failed to delete audit: %v", err)
	}
	if _, err := db.GetAudit(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if statuses, _ := db.LinkStatuses(ctx, "gone"); len(statuses) != 0 {
		t.Errorf("expected link statuses to be deleted, got %v", statuses)
	}
	if err := db.DeleteAudit(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for second delete, got %v", err)
	}
}

// TestParseTimestamp tests timestamp parsing with various formats.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"RFC3339Nano", "2026-05-01T10:00:00.5Z", time.Date(2026, 5, 1, 10, 0, 0, 500000000, time.UTC)},
		{"SQLite default", "2026-05-01 10:00:00", time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"empty", "", time.Time{}},
		{"garbage", "yesterday", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := parseTimestamp(tt.input); !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
