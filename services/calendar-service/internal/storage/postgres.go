package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/clinicboard/libs/db"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/model"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/outbox"
)

const selectAppointment = `
	SELECT id::text, patient_name, doctor_name, to_char(appointment_date, 'YYYY-MM-DD'),
		appointment_time, duration_minutes, status, mode
	FROM appointments`

type PostgresStore struct {
	pool   *db.Pool
	outbox *outbox.Repository
	now    func() time.Time
}

func NewPostgresStore(pool *db.Pool, events *outbox.Repository) *PostgresStore {
	return &PostgresStore{pool: pool, outbox: events, now: time.Now}
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]model.Appointment, error) {
	query := selectAppointment + `
	WHERE ($1 = '' OR appointment_date = $1::date)
		AND ($2 = '' OR status = $2)
		AND ($3 = '' OR doctor_name = $3)
		AND ($4 = '' OR appointment_date > $4::date)
		AND ($5 = '' OR appointment_date < $5::date)
	ORDER BY appointment_date, appointment_time, doctor_name, id`

	if err := f.validate(); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query, f.Date, string(f.Status), f.DoctorName, f.After, f.Before)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	appts := []model.Appointment{}
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func (s *PostgresStore) Create(ctx context.Context, in model.CreateAppointmentInput) (model.Appointment, error) {
	appt, err := in.Normalize()
	if err != nil {
		return model.Appointment{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO appointments
			(patient_name, doctor_name, appointment_date, appointment_time, duration_minutes, status, mode)
		VALUES ($1, $2, $3::date, $4, $5, $6, $7)
		RETURNING id::text
	`, appt.PatientName, appt.DoctorName, appt.Date, appt.Time, appt.DurationMinutes,
		string(appt.Status), string(appt.Mode)).Scan(&appt.ID)
	if err != nil {
		if IsConflict(err) {
			return model.Appointment{}, ErrSlotTaken
		}
		return model.Appointment{}, fmt.Errorf("insert appointment: %w", err)
	}

	evt, err := outbox.AppointmentCreated(appt, s.now())
	if err != nil {
		return model.Appointment{}, err
	}
	if err := s.outbox.Insert(ctx, tx, evt); err != nil {
		return model.Appointment{}, fmt.Errorf("write outbox: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status model.Status) (model.Appointment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := scanAppointment(tx.QueryRow(ctx, selectAppointment+`
	WHERE id::text = $1
	FOR UPDATE`, id))
	if err != nil {
		if IsNotFound(err) {
			return model.Appointment{}, ErrNotFound
		}
		return model.Appointment{}, fmt.Errorf("load appointment: %w", err)
	}

	previous := appt.Status
	if _, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = $2, updated_at = now()
		WHERE id::text = $1
	`, id, string(status)); err != nil {
		return model.Appointment{}, fmt.Errorf("update status: %w", err)
	}
	appt.Status = status

	evt, err := outbox.AppointmentStatusChanged(id, previous, status, s.now())
	if err != nil {
		return model.Appointment{}, err
	}
	if err := s.outbox.Insert(ctx, tx, evt); err != nil {
		return model.Appointment{}, fmt.Errorf("write outbox: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `DELETE FROM appointments WHERE id::text = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	evt, err := outbox.AppointmentDeleted(id, s.now())
	if err != nil {
		return false, err
	}
	if err := s.outbox.Insert(ctx, tx, evt); err != nil {
		return false, fmt.Errorf("write outbox: %w", err)
	}
	return true, tx.Commit(ctx)
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	var status, mode string
	err := row.Scan(
		&appt.ID,
		&appt.PatientName,
		&appt.DoctorName,
		&appt.Date,
		&appt.Time,
		&appt.DurationMinutes,
		&status,
		&mode,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Status = model.Status(status)
	appt.Mode = model.Mode(mode)
	return appt, nil
}

// IsConflict reports a unique violation, raised here by the doctor slot index.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
