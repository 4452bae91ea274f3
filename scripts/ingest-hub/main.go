// Command ingest-hub loads records from a CSV file into a hub dataset over
// the bulk API.
//
// The CSV header names the dataset fields. Two column names are reserved:
// "external_id" sets the record's external id and "metadata" holds a JSON
// object of metadata values. Empty cells become explicit nulls.
//
// Usage:
//
//	go run ./scripts/ingest-hub -file records.csv -dataset <uuid> -api-key KEY
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/labelstack/hub/pkg/hub"
)

type config struct {
	FilePath   string
	APIBaseURL string
	APIKey     string
	DatasetID  string
	BatchSize  int
	DelayMS    int
	Upsert     bool
	DryRun     bool
}

type stats struct {
	TotalRows     int
	SkippedRows   int
	Created       int
	Updated       int
	FailedBatches int
}

func main() {
	cfg := parseFlags()

	if cfg.FilePath == "" || cfg.APIKey == "" || cfg.DatasetID == "" {
		fmt.Fprintln(os.Stderr, "Error: -file, -dataset and -api-key are required")
		flag.Usage()
		os.Exit(1)
	}

	datasetID, err := uuid.Parse(cfg.DatasetID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: -dataset is not a valid UUID: %v\n", err)
		os.Exit(1)
	}

	if cfg.BatchSize < 1 || cfg.BatchSize > hub.MaxBatchSize {
		fmt.Fprintf(os.Stderr, "Error: -batch must be between 1 and %d\n", hub.MaxBatchSize)
		os.Exit(1)
	}

	fmt.Printf("Hub CSV ingestion\n")
	fmt.Printf("  API URL:  %s\n", cfg.APIBaseURL)
	fmt.Printf("  Dataset:  %s\n", datasetID)
	fmt.Printf("  CSV file: %s\n", cfg.FilePath)
	fmt.Printf("  Batch:    %d records per request\n", cfg.BatchSize)
	if cfg.Upsert {
		fmt.Printf("  Mode:     upsert (matching by external_id)\n")
	}
	if cfg.DryRun {
		fmt.Printf("  DRY RUN: no API calls will be made\n")
	}
	fmt.Println()

	result := run(cfg, datasetID)

	fmt.Println()
	fmt.Println("Summary")
	fmt.Printf("  Rows read:      %d\n", result.TotalRows)
	fmt.Printf("  Rows skipped:   %d\n", result.SkippedRows)
	fmt.Printf("  Created:        %d\n", result.Created)
	if cfg.Upsert {
		fmt.Printf("  Updated:        %d\n", result.Updated)
	}
	fmt.Printf("  Failed batches: %d\n", result.FailedBatches)

	if result.FailedBatches > 0 {
		os.Exit(1)
	}
}

func parseFlags() config {
	cfg := config{}

	flag.StringVar(&cfg.FilePath, "file", "", "Path to the CSV file (required)")
	flag.StringVar(&cfg.APIBaseURL, "api-url", "http://localhost:8080", "Hub API base URL")
	flag.StringVar(&cfg.APIKey, "api-key", "", "API key for authentication (required)")
	flag.StringVar(&cfg.DatasetID, "dataset", "", "Target dataset id (required)")
	flag.IntVar(&cfg.BatchSize, "batch", hub.MaxBatchSize, "Records per bulk request")
	flag.IntVar(&cfg.DelayMS, "delay", 0, "Delay in milliseconds between requests")
	flag.BoolVar(&cfg.Upsert, "upsert", false, "Upsert records by external_id instead of create")
	flag.BoolVar(&cfg.DryRun, "dry-run", false, "Parse the CSV but make no API calls")

	flag.Parse()

	return cfg
}

func run(cfg config, datasetID uuid.UUID) stats {
	result := stats{}

	file, err := os.Open(cfg.FilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening file: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading header: %v\n", err)
		os.Exit(1)
	}

	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	client := hub.NewClient(cfg.APIBaseURL, cfg.APIKey)
	ctx := context.Background()

	batch := make([]hub.RecordCreate, 0, cfg.BatchSize)
	rowNum := 1

	flush := func() {
		if len(batch) == 0 {
			return
		}

		sendBatch(ctx, client, cfg, datasetID, batch, &result)
		batch = batch[:0]

		if cfg.DelayMS > 0 {
			time.Sleep(time.Duration(cfg.DelayMS) * time.Millisecond)
		}
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Printf("  row %d: read error: %v\n", rowNum, err)
			result.SkippedRows++
			rowNum++
			continue
		}

		result.TotalRows++

		record, err := recordFromRow(header, row)
		if err != nil {
			fmt.Printf("  row %d: skipped: %v\n", rowNum, err)
			result.SkippedRows++
			rowNum++
			continue
		}

		batch = append(batch, record)
		if len(batch) == cfg.BatchSize {
			flush()
		}

		rowNum++
	}

	flush()

	return result
}

func recordFromRow(header, row []string) (hub.RecordCreate, error) {
	record := hub.RecordCreate{Fields: make(map[string]*string)}

	for i, name := range header {
		if i >= len(row) {
			break
		}

		value := row[i]

		switch name {
		case "external_id":
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				record.ExternalID = &trimmed
			}
		case "metadata":
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				var metadata map[string]any
				if err := json.Unmarshal([]byte(trimmed), &metadata); err != nil {
					return hub.RecordCreate{}, fmt.Errorf("invalid metadata JSON: %w", err)
				}
				record.Metadata = metadata
			}
		default:
			if value == "" {
				record.Fields[name] = nil
			} else {
				v := value
				record.Fields[name] = &v
			}
		}
	}

	if len(record.Fields) == 0 {
		return hub.RecordCreate{}, fmt.Errorf("no field values")
	}

	return record, nil
}

func sendBatch(ctx context.Context, client *hub.Client, cfg config, datasetID uuid.UUID, batch []hub.RecordCreate, result *stats) {
	if cfg.DryRun {
		fmt.Printf("  [dry] batch of %d records\n", len(batch))
		result.Created += len(batch)
		return
	}

	var (
		bulk *hub.BulkResult
		err  error
	)

	if cfg.Upsert {
		bulk, err = client.UpsertRecords(ctx, datasetID, batch)
	} else {
		bulk, err = client.CreateRecords(ctx, datasetID, batch)
	}

	if err != nil {
		fmt.Printf("  batch of %d records failed: %v\n", len(batch), err)
		result.FailedBatches++
		return
	}

	updated := len(bulk.UpdatedItemIDs)
	result.Updated += updated
	result.Created += len(bulk.Items) - updated

	fmt.Printf("  batch of %d records ok\n", len(batch))
}
