package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vbonduro/aushadhi/internal/domain"
)

const scanColumns = `id, user_id, file_name, image_key, mime_type, status, analysis_result, created_at`

// ScanStore persists scan history. analysis_result is stored as a JSON
// document so its shape can grow without a migration.
type ScanStore struct {
	db *sql.DB
}

func NewScanStore(db *sql.DB) *ScanStore {
	return &ScanStore{db: db}
}

// Create inserts a pending scan.
func (s *ScanStore) Create(ctx context.Context, userID, fileName, imageKey, mimeType string) (*domain.Scan, error) {
	scan := &domain.Scan{
		ID:        uuid.NewString(),
		UserID:    userID,
		FileName:  fileName,
		ImageKey:  imageKey,
		MimeType:  mimeType,
		Status:    domain.ScanPending,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scans (id, user_id, file_name, image_key, mime_type, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, scan.ID, scan.UserID, scan.FileName, scan.ImageKey, scan.MimeType, scan.Status, scan.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create scan: %w", err)
	}
	return scan, nil
}

func (s *ScanStore) GetByID(ctx context.Context, id string) (*domain.Scan, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+scanColumns+` FROM scans WHERE id = ?`, id)
	scan, err := scanRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan: %w", err)
	}
	return scan, nil
}

// ListByUser returns the user's scans, newest first.
func (s *ScanStore) ListByUser(ctx context.Context, userID string) ([]*domain.Scan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+scanColumns+` FROM scans
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	var scans []*domain.Scan
	for rows.Next() {
		scan, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scan row: %w", err)
		}
		scans = append(scans, scan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scans: %w", err)
	}

	return scans, nil
}

// UpdateAnalysis sets the status and, when result is non-nil, the stored
// analysis.
func (s *ScanStore) UpdateAnalysis(ctx context.Context, id string, status domain.ScanStatus, result *domain.AnalysisResult) error {
	var encoded sql.NullString
	if result != nil {
		b, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to encode analysis result: %w", err)
		}
		encoded = sql.NullString{String: string(b), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE scans SET status = ?, analysis_result = COALESCE(?, analysis_result) WHERE id = ?
	`, status, encoded, id)
	if err != nil {
		return fmt.Errorf("failed to update scan: %w", err)
	}
	return requireAffected(res, "scan", id)
}

func (s *ScanStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scan: %w", err)
	}
	return requireAffected(res, "scan", id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (*domain.Scan, error) {
	scan := &domain.Scan{}
	var result sql.NullString
	err := row.Scan(&scan.ID, &scan.UserID, &scan.FileName, &scan.ImageKey, &scan.MimeType,
		&scan.Status, &result, &scan.CreatedAt)
	if err != nil {
		return nil, err
	}
	if result.Valid && result.String != "" {
		scan.AnalysisResult = &domain.AnalysisResult{}
		if err := json.Unmarshal([]byte(result.String), scan.AnalysisResult); err != nil {
			return nil, fmt.Errorf("failed to decode analysis result for scan %s: %w", scan.ID, err)
		}
	}
	return scan, nil
}

func requireAffected(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}
