package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/linkscan/internal/model"
)

func openTestDB(t *testing.T) *CrawlDB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "linkscan.db"), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Error(err)
		}
	})
	return db
}

func sampleReport(t *testing.T) *model.CrawlReport {
	t.Helper()

	report := model.NewCrawlReport([]string{"http://site.test/"})
	for _, v := range []*model.Visit{
		{URL: "http://site.test/", Seed: "http://site.test/", Depth: 0, StatusCode: 200, InScope: true, FetchedAt: time.Now().UTC()},
		{URL: "http://site.test/gone", Seed: "http://site.test/", Depth: 1, StatusCode: 404, InScope: true, FetchedAt: time.Now().UTC()},
		{URL: "http://external.test/x", Seed: "http://site.test/", Depth: 1, Unreachable: true, FetchedAt: time.Now().UTC()},
	} {
		report.AddVisit(v)
	}
	report.AddRobotsSkip()
	report.Finish()
	return report
}

func TestOpenMissingDatabase(t *testing.T) {
	t.Parallel()

	opts := Options{CreateIfNotExists: false}
	if _, err := Open(filepath.Join(t.TempDir(), "missing.db"), opts); err == nil {
		t.Error("expected error opening a missing database without create")
	}
}

func TestSaveReportAndQuery(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()
	report := sampleReport(t)

	if err := db.SaveReport(ctx, report); err != nil {
		t.Fatal(err)
	}

	t.Run("runs table", func(t *testing.T) {
		runs, err := db.ListRuns(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(runs) != 1 {
			t.Fatalf("got %d runs, want 1", len(runs))
		}
		run := runs[0]
		if run.RunID != report.RunID {
			t.Errorf("run id = %q, want %q", run.RunID, report.RunID)
		}
		if len(run.Seeds) != 1 || run.Seeds[0] != "http://site.test/" {
			t.Errorf("seeds = %v, want [http://site.test/]", run.Seeds)
		}
		if run.SkippedRobots != 1 {
			t.Errorf("skipped robots = %d, want 1", run.SkippedRobots)
		}
		if run.StartedAt.IsZero() || run.FinishedAt.IsZero() {
			t.Error("timestamps should round trip")
		}
	})

	t.Run("visits table", func(t *testing.T) {
		visits, err := db.VisitsForRun(ctx, report.RunID)
		if err != nil {
			t.Fatal(err)
		}
		if len(visits) != 3 {
			t.Fatalf("got %d visits, want 3", len(visits))
		}
		if visits[0].URL != "http://site.test/" || visits[0].Status != "200" {
			t.Errorf("first visit = %+v, want seed with status 200", visits[0])
		}
		if visits[2].Status != model.StatusUnreachable {
			t.Errorf("unreachable visit status = %q, want %q", visits[2].Status, model.StatusUnreachable)
		}
		if !visits[0].InScope {
			t.Error("in_scope flag should round trip")
		}
	})

	t.Run("broken visits", func(t *testing.T) {
		broken, err := db.BrokenVisitsForRun(ctx, report.RunID)
		if err != nil {
			t.Fatal(err)
		}
		if len(broken) != 2 {
			t.Fatalf("got %d broken visits, want 2", len(broken))
		}
	})
}

func TestStatusHistory(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	// Two runs where the same URL goes from healthy to broken.
	first := model.NewCrawlReport([]string{"http://site.test/"})
	first.StartedAt = first.StartedAt.Add(-time.Hour)
	first.AddVisit(&model.Visit{URL: "http://site.test/page", Seed: "http://site.test/", StatusCode: 200, InScope: true, FetchedAt: time.Now().UTC()})
	first.Finish()
	if err := db.SaveReport(ctx, first); err != nil {
		t.Fatal(err)
	}

	second := model.NewCrawlReport([]string{"http://site.test/"})
	second.AddVisit(&model.Visit{URL: "http://site.test/page", Seed: "http://site.test/", StatusCode: 404, InScope: true, FetchedAt: time.Now().UTC()})
	second.Finish()
	if err := db.SaveReport(ctx, second); err != nil {
		t.Fatal(err)
	}

	history, err := db.StatusHistory(ctx, "http://site.test/page")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d history entries, want 2", len(history))
	}
	if history[0] != "404" || history[1] != "200" {
		t.Errorf("history = %v, want newest 404 first", history)
	}
}

func TestReportForRun(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()
	report := sampleReport(t)

	if err := db.SaveReport(ctx, report); err != nil {
		t.Fatal(err)
	}

	t.Run("known run", func(t *testing.T) {
		restored, err := db.ReportForRun(ctx, report.RunID)
		if err != nil {
			t.Fatal(err)
		}
		if restored == nil {
			t.Fatal("expected a restored report")
		}
		if restored.RunID != report.RunID {
			t.Errorf("run id = %q, want %q", restored.RunID, report.RunID)
		}
		if restored.TotalVisits() != report.TotalVisits() {
			t.Errorf("visits = %d, want %d", restored.TotalVisits(), report.TotalVisits())
		}
		if len(restored.BrokenVisits()) != 2 {
			t.Errorf("broken visits = %d, want 2", len(restored.BrokenVisits()))
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		restored, err := db.ReportForRun(ctx, "no-such-run")
		if err != nil {
			t.Fatal(err)
		}
		if restored != nil {
			t.Error("unknown run should return nil, nil")
		}
	})
}

func TestLatestRun(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	t.Run("empty database", func(t *testing.T) {
		latest, err := db.LatestRun(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if latest != nil {
			t.Error("empty database should have no latest run")
		}
	})

	t.Run("returns newest", func(t *testing.T) {
		old := model.NewCrawlReport([]string{"http://a.test/"})
		old.StartedAt = old.StartedAt.Add(-time.Hour)
		old.Finish()
		if err := db.SaveReport(ctx, old); err != nil {
			t.Fatal(err)
		}

		recent := model.NewCrawlReport([]string{"http://b.test/"})
		recent.Finish()
		if err := db.SaveReport(ctx, recent); err != nil {
			t.Fatal(err)
		}

		latest, err := db.LatestRun(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if latest == nil || latest.RunID != recent.RunID {
			t.Error("latest run should be the newest one")
		}
	})
}
