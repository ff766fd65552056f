package sqlbase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/pipesched/pkg/persistence"
	"github.com/dukex/pipesched/pkg/schedule"
)

// Store implements persistence.Persistence on top of database/sql.
type Store struct {
	db      *sql.DB
	logger  *slog.Logger
	dialect Dialect
	now     func() time.Time
}

// Open runs the migrations and returns a store bound to db.
func Open(ctx context.Context, logger *slog.Logger, db *sql.DB, dialect Dialect) (*Store, error) {
	migrationManager := NewMigrationManager(logger, db, dialect, Migrations())

	err := migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db, logger: logger, dialect: dialect, now: time.Now}, nil
}

// DB exposes the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) p(n int) string {
	return s.dialect.Placeholder(n)
}

// Close closes the database connection.
func (s *Store) Close(_ context.Context) error {
	if s.db != nil {
		err := s.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (s *Store) HealthCheck(ctx context.Context) error {
	err := s.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Schedules returns all schedule names ordered by name.
func (s *Store) Schedules(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM schedules ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}

		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedules: %w", err)
	}

	return names, nil
}

// SaveSchedule inserts or replaces the stored encoding of the schedule.
func (s *Store) SaveSchedule(ctx context.Context, sched *schedule.Schedule) error {
	if err := persistence.ValidateName(sched.Name()); err != nil {
		return err
	}

	body, err := persistence.Encode(sched)
	if err != nil {
		return persistence.NewScheduleError("SaveSchedule", sched.Name(), err)
	}

	var current sql.NullString
	if n := sched.CurrentNode(); n != nil {
		current = sql.NullString{String: n.NodeName(), Valid: true}
	}

	now := s.now().UTC()

	query := fmt.Sprintf(`
		INSERT INTO schedules (name, body, current_node, created_at, updated_at)
		VALUES (%s, %s, %s, %s, %s)
		ON CONFLICT (name) DO UPDATE SET
			body = excluded.body,
			current_node = excluded.current_node,
			updated_at = excluded.updated_at`,
		s.p(1), s.p(2), s.p(3), s.p(4), s.p(5))

	_, err = s.db.ExecContext(ctx, query, sched.Name(), string(body), current, now, now)
	if err != nil {
		return persistence.NewScheduleError("SaveSchedule", sched.Name(), err)
	}

	s.logger.DebugContext(ctx, "Schedule saved", "schedule", sched.Name(), "bytes", len(body))

	return nil
}

// ScheduleByName loads and decodes the named schedule.
func (s *Store) ScheduleByName(ctx context.Context, name string, opts ...schedule.Option) (*schedule.Schedule, error) {
	if err := persistence.ValidateName(name); err != nil {
		return nil, err
	}

	var body string

	err := s.db.QueryRowContext(ctx, "SELECT body FROM schedules WHERE name = "+s.p(1), name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewScheduleError("ScheduleByName", name, persistence.ErrScheduleNotFound)
	}

	if err != nil {
		return nil, persistence.NewScheduleError("ScheduleByName", name, err)
	}

	return persistence.Decode(name, []byte(body), opts...)
}

// DeleteSchedule removes the named schedule.
func (s *Store) DeleteSchedule(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM schedules WHERE name = "+s.p(1), name)
	if err != nil {
		return persistence.NewScheduleError("DeleteSchedule", name, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return persistence.NewScheduleError("DeleteSchedule", name, err)
	}

	if affected == 0 {
		return persistence.NewScheduleError("DeleteSchedule", name, persistence.ErrScheduleNotFound)
	}

	return nil
}
