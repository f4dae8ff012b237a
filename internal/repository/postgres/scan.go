package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hoosuem8800/portal-api/internal/model"
	apperrors "github.com/hoosuem8800/portal-api/pkg/errors"
)

func (r *scanRepository) Create(ctx context.Context, scan *model.Scan) error {
	query := `
		INSERT INTO scans (
			id, user_id, image_path, status, result, result_status,
			confidence_score, notes, requires_consultation,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	scan.ID = uuid.New()
	scan.CreatedAt = time.Now()
	scan.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		scan.ID,
		scan.UserID,
		scan.ImagePath,
		scan.Status,
		scan.Result,
		scan.ResultStatus,
		scan.ConfidenceScore,
		scan.Notes,
		scan.RequiresConsultation,
		scan.CreatedAt,
		scan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create scan: %w", err)
	}
	return nil
}

func (r *scanRepository) Get(ctx context.Context, id uuid.UUID) (*model.Scan, error) {
	query := `
		SELECT id, user_id, image_path, status, result, result_status,
			   confidence_score, notes, requires_consultation,
			   created_at, updated_at
		FROM scans
		WHERE id = $1
	`
	var scan model.Scan
	if err := r.db.GetContext(ctx, &scan, query, id); err != nil {
		return nil, mapNotFound(err, "scan")
	}
	return &scan, nil
}

func (r *scanRepository) Update(ctx context.Context, scan *model.Scan) error {
	query := `
		UPDATE scans
		SET status = $1, result = $2, result_status = $3,
			confidence_score = $4, notes = $5, requires_consultation = $6,
			updated_at = $7
		WHERE id = $8
	`
	scan.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		scan.Status,
		scan.Result,
		scan.ResultStatus,
		scan.ConfidenceScore,
		scan.Notes,
		scan.RequiresConsultation,
		scan.UpdatedAt,
		scan.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update scan: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("scan")
	}
	return nil
}

func (r *scanRepository) List(ctx context.Context, filters *model.ScanFilters) ([]*model.Scan, error) {
	query := `
		SELECT DISTINCT s.id, s.user_id, s.image_path, s.status, s.result,
			   s.result_status, s.confidence_score, s.notes,
			   s.requires_consultation, s.created_at, s.updated_at
		FROM scans s
	`
	where := " WHERE 1=1"
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		// Doctor scope: own uploads plus scans referenced by the
		// doctor's consultations.
		if filters.DoctorID != nil {
			query += " LEFT JOIN consultations c ON c.scan_id = s.id"
			where += fmt.Sprintf(" AND (s.user_id = $%d OR c.doctor_id = $%d)", argCount, argCount)
			args = append(args, *filters.DoctorID)
			argCount++
		} else if filters.UserID != nil {
			where += fmt.Sprintf(" AND s.user_id = $%d", argCount)
			args = append(args, *filters.UserID)
			argCount++
		}
		if filters.Status != "" {
			where += fmt.Sprintf(" AND s.status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
	}

	query += where + " ORDER BY s.created_at DESC"

	scans := []*model.Scan{}
	if err := r.db.SelectContext(ctx, &scans, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	return scans, nil
}
