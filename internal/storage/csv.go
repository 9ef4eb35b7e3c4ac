package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/SilinPolicyAdvisor/Lead-gen/internal/models"
	"github.com/gocarina/gocsv"
)

// CSVStore appends records to a CSV file and, when an Excel path is
// configured, mirrors the full dataset into a workbook after every flush.
// Appends are serialized so parallel workers flushing at the same time never
// interleave rows.
type CSVStore struct {
	mu       sync.Mutex
	path     string
	xlsxPath string
	log      *slog.Logger
}

// NewCSVStore creates a CSV backed store. xlsxPath may be empty to disable
// the Excel mirror.
func NewCSVStore(path, xlsxPath string, log *slog.Logger) *CSVStore {
	return &CSVStore{path: path, xlsxPath: xlsxPath, log: log}
}

// Append writes the records to the end of the CSV file, emitting the header
// first when the file is new or empty.
func (s *CSVStore) Append(ctx context.Context, records []models.BusinessRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open csv file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat csv file: %w", err)
	}

	if info.Size() == 0 {
		err = gocsv.MarshalFile(&records, file)
	} else {
		err = gocsv.MarshalWithoutHeaders(&records, file)
	}
	if err != nil {
		return fmt.Errorf("failed to write csv records: %w", err)
	}
	s.log.DebugContext(ctx, "flushed records to csv", "count", len(records), "path", s.path)

	if s.xlsxPath != "" {
		if err = s.mirrorXLSX(ctx); err != nil {
			// The CSV write already succeeded, a broken mirror should not
			// fail the flush.
			s.log.WarnContext(ctx, "failed to mirror records to excel", "error", err, "path", s.xlsxPath)
		}
	}
	return nil
}

// Load reads the full dataset back. A missing file is an empty dataset, not
// an error.
func (s *CSVStore) Load(_ context.Context) ([]models.BusinessRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Stats summarizes the persisted dataset.
func (s *CSVStore) Stats(ctx context.Context) (models.Stats, error) {
	records, err := s.Load(ctx)
	if err != nil {
		return models.Stats{}, err
	}
	return ComputeStats(records), nil
}

func (s *CSVStore) loadLocked() ([]models.BusinessRecord, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer file.Close()

	var records []models.BusinessRecord
	if err = gocsv.UnmarshalFile(file, &records); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse csv file: %w", err)
	}
	return records, nil
}

func (s *CSVStore) mirrorXLSX(ctx context.Context) error {
	records, err := s.loadLocked()
	if err != nil {
		return err
	}
	if err = ExportXLSX(s.xlsxPath, records); err != nil {
		return err
	}
	s.log.DebugContext(ctx, "mirrored records to excel", "count", len(records), "path", s.xlsxPath)
	return nil
}
