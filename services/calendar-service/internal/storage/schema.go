package storage

import (
	"context"

	"github.com/md-rashed-zaman/clinicboard/libs/db"
)

const schema = `
CREATE EXTENSION IF NOT EXISTS pgcrypto;

CREATE TABLE IF NOT EXISTS appointments (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	patient_name TEXT NOT NULL,
	doctor_name TEXT NOT NULL,
	appointment_date DATE NOT NULL,
	appointment_time TEXT NOT NULL,
	duration_minutes INTEGER NOT NULL DEFAULT 30 CHECK (duration_minutes > 0),
	status TEXT NOT NULL DEFAULT 'Scheduled',
	mode TEXT NOT NULL DEFAULT 'In-Person',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS appointments_doctor_slot_idx
	ON appointments (doctor_name, appointment_date, appointment_time);

CREATE INDEX IF NOT EXISTS appointments_date_idx ON appointments (appointment_date);

CREATE TABLE IF NOT EXISTS outbox_events (
	id BIGSERIAL PRIMARY KEY,
	event_id UUID NOT NULL DEFAULT gen_random_uuid(),
	aggregate_type TEXT NOT NULL,
	aggregate_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	payload JSONB NOT NULL,
	traceparent TEXT,
	tracestate TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	published_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS outbox_events_unpublished_idx
	ON outbox_events (id) WHERE published_at IS NULL;
`

// EnsureSchema creates the tables when missing. Safe to run on every start.
func EnsureSchema(ctx context.Context, pool *db.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
