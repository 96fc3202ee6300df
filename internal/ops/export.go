package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hpungsan/suitecov/internal/config"
	"github.com/hpungsan/suitecov/internal/db"
	"github.com/hpungsan/suitecov/internal/errors"
)

// MetricsSchemaVersion is written into every metrics file.
const MetricsSchemaVersion = "1.0"

// ExportInput contains parameters for the ExportMetrics operation.
type ExportInput struct {
	Path       string // optional, default: <ExportsDir>/<Name>-metrics-<id>.json
	ExportsDir string // required: the default export directory
	Name       string // optional prefix for the default file name, default "suitecov"
}

// ExportOutput contains the result of the ExportMetrics operation.
type ExportOutput struct {
	Path       string `json:"path"`
	ExportedAt int64  `json:"exported_at"`
}

// Metrics is the machine-readable summary written by ExportMetrics.
type Metrics struct {
	SchemaVersion      string        `json:"schema_version"`
	ID                 string        `json:"id"`
	ExportedAt         int64         `json:"exported_at"`
	TotalTestCases     int           `json:"total_test_cases"`
	TotalTestSuites    int           `json:"total_test_suites"`
	CoveredTestCases   int           `json:"covered_test_cases"`
	CoveragePercentage float64       `json:"coverage_percentage"`
	TotalExecutions    int           `json:"total_executions"`
	TopTags            []db.TagCount `json:"top_tags"`
}

// ExportMetrics writes the summary metrics as indented JSON. The file is
// written to a temp name and renamed into place, so an existing file
// survives a failed export.
func ExportMetrics(ctx context.Context, database *sql.DB, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	cfg = orDefault(cfg)
	now := time.Now()
	id := newRunID()

	if input.ExportsDir == "" {
		return nil, errors.NewInvalidRequest("exports directory is required")
	}
	exportPath := input.Path
	if exportPath == "" {
		name := "suitecov"
		if input.Name != "" {
			name = SanitizeForFilename(input.Name)
		}
		exportPath = filepath.Join(input.ExportsDir, fmt.Sprintf("%s-metrics-%s.json", name, id))
	}
	if err := ValidateExportPath(exportPath, ".json", input.ExportsDir, cfg); err != nil {
		return nil, err
	}

	var (
		sum  *SummaryOutput
		tags []db.TagCount
	)
	err := db.ReadTx(ctx, database, func(q db.Querier) error {
		var err error
		if sum, err = summary(ctx, q); err != nil {
			return err
		}
		tags, err = db.TopTags(ctx, q, cfg.TopTagsLimit)
		return err
	})
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(Metrics{
		SchemaVersion:      MetricsSchemaVersion,
		ID:                 id,
		ExportedAt:         now.Unix(),
		TotalTestCases:     sum.TotalCases,
		TotalTestSuites:    sum.TotalSuites,
		CoveredTestCases:   sum.Covered,
		CoveragePercentage: sum.CoveragePercent,
		TotalExecutions:    sum.TotalExecutions,
		TopTags:            tags,
	}, "", "  ")
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}
	if err := writeAtomic(exportPath, append(data, '\n')); err != nil {
		return nil, err
	}
	return &ExportOutput{Path: exportPath, ExportedAt: now.Unix()}, nil
}

// writeAtomic writes data to a sibling temp file and renames it over path.
func writeAtomic(path string, data []byte) error {
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"

	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}
	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("export path is a symlink")
	}
	// os.Rename fails on Windows when the destination exists; keep the old file.
	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("export destination already exists; choose a new path")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}
	success = true
	return nil
}
