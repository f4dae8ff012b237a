package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hoosuem8800/portal-api/internal/model"
	apperrors "github.com/hoosuem8800/portal-api/pkg/errors"
)

func (r *consultationRepository) Create(ctx context.Context, consultation *model.Consultation) error {
	query := `
		INSERT INTO consultations (
			id, patient_id, doctor_id, scan_id, type, status, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	consultation.ID = uuid.New()
	consultation.CreatedAt = time.Now()
	consultation.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		consultation.ID,
		consultation.PatientID,
		consultation.DoctorID,
		consultation.ScanID,
		consultation.Type,
		consultation.Status,
		consultation.Notes,
		consultation.CreatedAt,
		consultation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create consultation: %w", err)
	}
	return nil
}

func (r *consultationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	query := `
		SELECT id, patient_id, doctor_id, scan_id, type, status, notes,
			   created_at, updated_at
		FROM consultations
		WHERE id = $1
	`
	var consultation model.Consultation
	if err := r.db.GetContext(ctx, &consultation, query, id); err != nil {
		return nil, mapNotFound(err, "consultation")
	}
	return &consultation, nil
}

func (r *consultationRepository) List(ctx context.Context, filters *model.ConsultationFilters) ([]*model.Consultation, error) {
	query := `
		SELECT id, patient_id, doctor_id, scan_id, type, status, notes,
			   created_at, updated_at
		FROM consultations
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.PatientID != nil {
			query += fmt.Sprintf(" AND patient_id = $%d", argCount)
			args = append(args, *filters.PatientID)
			argCount++
		}
		if filters.DoctorID != nil {
			query += fmt.Sprintf(" AND doctor_id = $%d", argCount)
			args = append(args, *filters.DoctorID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if filters.ActiveOnly {
			query += " AND status IN ('pending', 'accepted')"
		}
	}

	query += " ORDER BY created_at ASC"

	consultations := []*model.Consultation{}
	if err := r.db.SelectContext(ctx, &consultations, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}
	return consultations, nil
}

func (r *consultationRepository) UpdateWithNotification(ctx context.Context, consultation *model.Consultation, note *model.Notification) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			UPDATE consultations
			SET type = $1, status = $2, notes = $3, updated_at = $4
			WHERE id = $5
		`
		consultation.UpdatedAt = time.Now()

		result, err := tx.ExecContext(ctx, query,
			consultation.Type,
			consultation.Status,
			consultation.Notes,
			consultation.UpdatedAt,
			consultation.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update consultation: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return apperrors.NotFound("consultation")
		}

		if note == nil {
			return nil
		}

		return insertNotificationTx(ctx, tx, note)
	})
}

func (r *consultationRepository) CountForDoctor(ctx context.Context, doctorID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM consultations WHERE doctor_id = $1`

	var count int
	if err := r.db.GetContext(ctx, &count, query, doctorID); err != nil {
		return 0, fmt.Errorf("failed to count consultations: %w", err)
	}
	return count, nil
}
