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

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, scheduled_at, status, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	appointment.ID = uuid.New()
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.ScheduledAt,
		appointment.Status,
		appointment.Notes,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// The partial unique index over active slots is the arbiter
			// under concurrent creation.
			return apperrors.Conflict("appointment time slot is already taken")
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, patient_id, scheduled_at, status, notes,
			   created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, mapNotFound(err, "appointment")
	}
	return &appointment, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT id, patient_id, scheduled_at, status, notes,
			   created_at, updated_at
		FROM appointments
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
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if filters.From != nil {
			query += fmt.Sprintf(" AND scheduled_at >= $%d", argCount)
			args = append(args, *filters.From)
			argCount++
		}
		if filters.To != nil {
			query += fmt.Sprintf(" AND scheduled_at < $%d", argCount)
			args = append(args, *filters.To)
			argCount++
		}
	}

	query += " ORDER BY scheduled_at DESC"

	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) UpdateWithNotification(ctx context.Context, appointment *model.Appointment, note *model.Notification) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			UPDATE appointments
			SET scheduled_at = $1, status = $2, notes = $3, updated_at = $4
			WHERE id = $5
		`
		appointment.UpdatedAt = time.Now()

		result, err := tx.ExecContext(ctx, query,
			appointment.ScheduledAt,
			appointment.Status,
			appointment.Notes,
			appointment.UpdatedAt,
			appointment.ID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperrors.Conflict("appointment time slot is already taken")
			}
			return fmt.Errorf("failed to update appointment: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return apperrors.NotFound("appointment")
		}

		if note == nil {
			return nil
		}

		return insertNotificationTx(ctx, tx, note)
	})
}

func (r *appointmentRepository) HasActiveAt(ctx context.Context, slot time.Time, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE scheduled_at = $1
			AND status IN ('pending', 'confirmed')
	`
	args := []interface{}{slot}

	if excludeID != nil {
		query += " AND id != $2"
		args = append(args, *excludeID)
	}

	query += ")"

	var taken bool
	if err := r.db.GetContext(ctx, &taken, query, args...); err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return taken, nil
}

func (r *appointmentRepository) ListActiveOn(ctx context.Context, date time.Time) ([]*model.Appointment, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	query := `
		SELECT id, patient_id, scheduled_at, status, notes,
			   created_at, updated_at
		FROM appointments
		WHERE scheduled_at >= $1
		AND scheduled_at < $2
		AND status IN ('pending', 'confirmed')
		ORDER BY scheduled_at ASC
	`
	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, dayStart, dayEnd); err != nil {
		return nil, fmt.Errorf("failed to list active appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListUpcoming(ctx context.Context, patientID *uuid.UUID, after time.Time, limit int) ([]*model.Appointment, error) {
	query := `
		SELECT id, patient_id, scheduled_at, status, notes,
			   created_at, updated_at
		FROM appointments
		WHERE scheduled_at > $1
		AND status IN ('pending', 'confirmed')
	`
	args := []interface{}{after}
	argCount := 2

	if patientID != nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, *patientID)
		argCount++
	}

	query += fmt.Sprintf(" ORDER BY scheduled_at ASC LIMIT $%d", argCount)
	args = append(args, limit)

	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list upcoming appointments: %w", err)
	}
	return appointments, nil
}
