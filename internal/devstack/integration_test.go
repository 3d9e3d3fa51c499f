package devstack_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/migralog/migralog/internal/config"
	"github.com/migralog/migralog/internal/database"
	"github.com/migralog/migralog/internal/devstack"
	"github.com/migralog/migralog/internal/services"
)

// TestWithMariaDB runs the ingestion and summary pipeline against a real
// MariaDB container.
func TestWithMariaDB(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	containers, err := devstack.Create(t)
	if err != nil {
		t.Fatalf("Failed to start containers: %v", err)
	}
	defer containers.Terminate(t)

	host, port, ok := strings.Cut(containers.DBAddr, ":")
	if !ok {
		t.Fatalf("Unexpected DB address %q", containers.DBAddr)
	}

	cfg := &config.Config{
		DBType:            "mysql",
		DBHost:            host,
		DBPort:            port,
		DBDatabase:        "migralog",
		DBUser:            "migralog",
		DBPassword:        "migralog",
		DBConnectionLimit: 4,
		DayZone:           "UTC",
		DayLocation:       time.UTC,
	}

	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	const userID = "33333333-3333-3333-3333-333333333333"
	csv := "timestamp,hrv,stress\n" +
		"2025-01-05T08:00:00Z,42,55\n" +
		"2025-01-05T16:00:00Z,38,60\n"

	session, err := services.IngestCSV(context.Background(), db, userID,
		"export.csv", strings.NewReader(csv), int64(len(csv)), time.UTC)
	if err != nil {
		t.Fatalf("IngestCSV failed: %v", err)
	}
	if session.InsertedRows != 2 {
		t.Errorf("Expected 2 inserted rows, got %d", session.InsertedRows)
	}

	processed, dayErrors, err := services.ProcessSummaries(db, userID, time.UTC, false)
	if err != nil {
		t.Fatalf("ProcessSummaries failed: %v", err)
	}
	if processed != 1 || len(dayErrors) != 0 {
		t.Errorf("Expected 1 day processed cleanly, got %d with errors %v", processed, dayErrors)
	}

	summaries, err := services.ListSummaries(db, userID, nil, nil, 0)
	if err != nil {
		t.Fatalf("ListSummaries failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("Expected 1 summary, got %d", len(summaries))
	}
	if summaries[0].AvgHrv == nil || *summaries[0].AvgHrv != 40 {
		t.Errorf("Expected avg hrv 40, got %v", summaries[0].AvgHrv)
	}
}
