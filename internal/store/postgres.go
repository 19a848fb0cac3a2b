package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/i474232898/weather-alerts/internal/alerts"
	"github.com/i474232898/weather-alerts/internal/favorites"
)

// DBTX is the subset of *pgxpool.Pool and pgx.Tx the repositories need.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS alert_preferences (
	id                      UUID PRIMARY KEY,
	city                    TEXT NOT NULL,
	country                 TEXT NOT NULL,
	latitude                DOUBLE PRECISION NOT NULL,
	longitude               DOUBLE PRECISION NOT NULL,
	min_temp_threshold      DOUBLE PRECISION,
	max_temp_threshold      DOUBLE PRECISION,
	wind_speed_threshold    DOUBLE PRECISION,
	precipitation_threshold DOUBLE PRECISION,
	severe_codes            TEXT,
	is_enabled              BOOLEAN NOT NULL DEFAULT TRUE,
	created_at              TIMESTAMPTZ NOT NULL,
	updated_at              TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS weather_alerts (
	id          UUID PRIMARY KEY,
	city        TEXT NOT NULL,
	country     TEXT NOT NULL,
	alert_type  TEXT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL,
	severity    TEXT NOT NULL,
	start_time  TIMESTAMPTZ NOT NULL,
	end_time    TIMESTAMPTZ,
	is_active   BOOLEAN NOT NULL DEFAULT TRUE,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS weather_alerts_active_location_idx
	ON weather_alerts (city, country) WHERE is_active;

CREATE TABLE IF NOT EXISTS favorite_cities (
	id        UUID PRIMARY KEY,
	name      TEXT NOT NULL,
	latitude  DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	city      TEXT,
	country   TEXT,
	added_at  TIMESTAMPTZ NOT NULL
);`

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// PostgresStore implements the alert and favorites repositories on PostgreSQL.
type PostgresStore struct {
	db    DBTX
	pool  *pgxpool.Pool
	clock clockwork.Clock
}

var (
	_ alerts.Repository    = (*PostgresStore)(nil)
	_ favorites.Repository = (*PostgresStore)(nil)
)

// OpenPostgres connects to dsn, applies the schema, and returns a ready store.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	s := NewPostgresStore(pool, nil)
	s.pool = pool
	return s, nil
}

// NewPostgresStore wraps an existing connection or transaction.
func NewPostgresStore(db DBTX, clock clockwork.Clock) *PostgresStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &PostgresStore{db: db, clock: clock}
}

// Close releases the pool when the store owns one.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStore) now() time.Time { return s.clock.Now().UTC() }

// Preferences

const preferenceColumns = `id, city, country, latitude, longitude, min_temp_threshold,
	max_temp_threshold, wind_speed_threshold, precipitation_threshold, severe_codes,
	is_enabled, created_at, updated_at`

func scanPreference(row pgx.Row) (alerts.AlertPreference, error) {
	var p alerts.AlertPreference
	err := row.Scan(
		&p.ID, &p.City, &p.Country, &p.Latitude, &p.Longitude,
		&p.MinTempThreshold, &p.MaxTempThreshold, &p.WindSpeedThreshold, &p.PrecipitationThreshold,
		&p.SevereCodes, &p.IsEnabled, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (s *PostgresStore) queryPreferences(ctx context.Context, where string) ([]alerts.AlertPreference, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+preferenceColumns+` FROM alert_preferences `+where+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query alert preferences: %w", err)
	}
	defer rows.Close()

	out := []alerts.AlertPreference{}
	for rows.Next() {
		p, err := scanPreference(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert preference: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alert preferences: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListPreferences(ctx context.Context) ([]alerts.AlertPreference, error) {
	return s.queryPreferences(ctx, "")
}

func (s *PostgresStore) ListEnabledPreferences(ctx context.Context) ([]alerts.AlertPreference, error) {
	return s.queryPreferences(ctx, "WHERE is_enabled")
}

func (s *PostgresStore) GetPreference(ctx context.Context, id string) (alerts.AlertPreference, error) {
	if uuid.Validate(id) != nil {
		return alerts.AlertPreference{}, alerts.ErrPreferenceNotFound
	}
	p, err := scanPreference(s.db.QueryRow(ctx,
		`SELECT `+preferenceColumns+` FROM alert_preferences WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return alerts.AlertPreference{}, alerts.ErrPreferenceNotFound
	}
	if err != nil {
		return alerts.AlertPreference{}, fmt.Errorf("get alert preference %s: %w", id, err)
	}
	return p, nil
}

func (s *PostgresStore) AddPreference(ctx context.Context, in alerts.PreferenceInput) (alerts.AlertPreference, error) {
	p := alerts.NewPreference(uuid.NewString(), in, s.now())
	_, err := s.db.Exec(ctx,
		`INSERT INTO alert_preferences (`+preferenceColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		p.ID, p.City, p.Country, p.Latitude, p.Longitude,
		p.MinTempThreshold, p.MaxTempThreshold, p.WindSpeedThreshold, p.PrecipitationThreshold,
		p.SevereCodes, p.IsEnabled, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return alerts.AlertPreference{}, fmt.Errorf("insert alert preference: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) UpdatePreference(ctx context.Context, id string, patch alerts.PreferencePatch) (alerts.AlertPreference, error) {
	if uuid.Validate(id) != nil {
		return alerts.AlertPreference{}, alerts.ErrPreferenceNotFound
	}
	patch = patch.Clean()
	p, err := scanPreference(s.db.QueryRow(ctx,
		`UPDATE alert_preferences SET
			city = COALESCE($2, city),
			country = COALESCE($3, country),
			latitude = COALESCE($4, latitude),
			longitude = COALESCE($5, longitude),
			min_temp_threshold = CASE WHEN $6::boolean THEN $7::double precision ELSE min_temp_threshold END,
			max_temp_threshold = CASE WHEN $8::boolean THEN $9::double precision ELSE max_temp_threshold END,
			wind_speed_threshold = CASE WHEN $10::boolean THEN $11::double precision ELSE wind_speed_threshold END,
			precipitation_threshold = CASE WHEN $12::boolean THEN $13::double precision ELSE precipitation_threshold END,
			severe_codes = CASE WHEN $14::boolean THEN $15::text ELSE severe_codes END,
			is_enabled = COALESCE($16, is_enabled),
			updated_at = $17
		 WHERE id = $1
		 RETURNING `+preferenceColumns,
		id, patch.City, patch.Country, patch.Latitude, patch.Longitude,
		patch.MinTempThreshold.Set, patch.MinTempThreshold.Value,
		patch.MaxTempThreshold.Set, patch.MaxTempThreshold.Value,
		patch.WindSpeedThreshold.Set, patch.WindSpeedThreshold.Value,
		patch.PrecipitationThreshold.Set, patch.PrecipitationThreshold.Value,
		patch.SevereCodes.Set, patch.SevereCodes.Value,
		patch.IsEnabled, s.now(),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return alerts.AlertPreference{}, alerts.ErrPreferenceNotFound
	}
	if err != nil {
		return alerts.AlertPreference{}, fmt.Errorf("update alert preference %s: %w", id, err)
	}
	return p, nil
}

func (s *PostgresStore) RemovePreference(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return alerts.ErrPreferenceNotFound
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM alert_preferences WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete alert preference %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return alerts.ErrPreferenceNotFound
	}
	return nil
}

// Alerts

const alertColumns = `id, city, country, alert_type, title, description, severity,
	start_time, end_time, is_active, created_at`

func scanAlert(row pgx.Row) (alerts.AlertEvent, error) {
	var (
		e                   alerts.AlertEvent
		alertType, severity string
	)
	err := row.Scan(
		&e.ID, &e.City, &e.Country, &alertType, &e.Title, &e.Description, &severity,
		&e.StartTime, &e.EndTime, &e.IsActive, &e.CreatedAt,
	)
	e.AlertType = alerts.AlertType(alertType)
	e.Severity = alerts.Severity(severity)
	return e, err
}

func (s *PostgresStore) queryAlerts(ctx context.Context, sql string, args ...any) ([]alerts.AlertEvent, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query weather alerts: %w", err)
	}
	defer rows.Close()

	out := []alerts.AlertEvent{}
	for rows.Next() {
		e, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan weather alert: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weather alerts: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) AddAlert(ctx context.Context, e alerts.AlertEvent) (alerts.AlertEvent, error) {
	e.ID = uuid.NewString()
	e.CreatedAt = s.now()
	if e.StartTime.IsZero() {
		e.StartTime = e.CreatedAt
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO weather_alerts (`+alertColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.City, e.Country, string(e.AlertType), e.Title, e.Description, string(e.Severity),
		e.StartTime, e.EndTime, e.IsActive, e.CreatedAt,
	)
	if err != nil {
		return alerts.AlertEvent{}, fmt.Errorf("insert weather alert: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) ListActiveAlerts(ctx context.Context) ([]alerts.AlertEvent, error) {
	return s.queryAlerts(ctx,
		`SELECT `+alertColumns+` FROM weather_alerts WHERE is_active ORDER BY created_at DESC`)
}

func (s *PostgresStore) ListActiveAlertsForLocation(ctx context.Context, city, country string) ([]alerts.AlertEvent, error) {
	return s.queryAlerts(ctx,
		`SELECT `+alertColumns+` FROM weather_alerts
		 WHERE is_active AND city = $1 AND country = $2
		 ORDER BY start_time DESC`, city, country)
}

func (s *PostgresStore) DeactivateAlert(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return nil
	}
	if _, err := s.db.Exec(ctx, `UPDATE weather_alerts SET is_active = FALSE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deactivate weather alert %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) DeactivateExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE weather_alerts SET is_active = FALSE
		 WHERE is_active AND end_time IS NOT NULL AND end_time < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("deactivate expired weather alerts: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Favorites

const favoriteColumns = `id, name, latitude, longitude, city, country, added_at`

func scanFavorite(row pgx.Row) (favorites.FavoriteCity, error) {
	var f favorites.FavoriteCity
	err := row.Scan(&f.ID, &f.Name, &f.Latitude, &f.Longitude, &f.City, &f.Country, &f.AddedAt)
	return f, err
}

func (s *PostgresStore) ListFavorites(ctx context.Context) ([]favorites.FavoriteCity, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+favoriteColumns+` FROM favorite_cities ORDER BY added_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query favorite cities: %w", err)
	}
	defer rows.Close()

	out := []favorites.FavoriteCity{}
	for rows.Next() {
		f, err := scanFavorite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan favorite city: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorite cities: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetFavorite(ctx context.Context, id string) (favorites.FavoriteCity, error) {
	if uuid.Validate(id) != nil {
		return favorites.FavoriteCity{}, favorites.ErrNotFound
	}
	f, err := scanFavorite(s.db.QueryRow(ctx,
		`SELECT `+favoriteColumns+` FROM favorite_cities WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return favorites.FavoriteCity{}, favorites.ErrNotFound
	}
	if err != nil {
		return favorites.FavoriteCity{}, fmt.Errorf("get favorite city %s: %w", id, err)
	}
	return f, nil
}

func (s *PostgresStore) AddFavorite(ctx context.Context, in favorites.Input) (favorites.FavoriteCity, error) {
	f := favorites.New(uuid.NewString(), in, s.now())
	_, err := s.db.Exec(ctx,
		`INSERT INTO favorite_cities (`+favoriteColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		f.ID, f.Name, f.Latitude, f.Longitude, f.City, f.Country, f.AddedAt,
	)
	if err != nil {
		return favorites.FavoriteCity{}, fmt.Errorf("insert favorite city: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) RemoveFavorite(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return favorites.ErrNotFound
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM favorite_cities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete favorite city %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return favorites.ErrNotFound
	}
	return nil
}
