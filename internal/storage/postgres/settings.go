package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MAY0LPHI/Parking-simples/internal/domain/settings"
)

// execQuerier is satisfied by *sql.DB and *sql.Tx, so reads can run either
// standalone or inside a mutation's transaction.
type execQuerier interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// SettingsRepository persists the tariff configuration as a single row,
// inserting the defaults the first time it is read.
type SettingsRepository struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSettingsRepository constructs a repository using a pooled DB handle.
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

const selectSettings = `
        SELECT id, hourly_rate_car, hourly_rate_bike, overnight_fee_car, overnight_fee_bike, free_minutes
          FROM settings
         LIMIT 1
    `

func (r *SettingsRepository) Get() (settings.Settings, error) {
	return loadSettings(r.db)
}

// Mutate loads the row, applies the update and writes the result back inside
// one transaction. The mutex serializes mutations from this process, so two
// concurrent partial updates cannot clobber each other's fields.
func (r *SettingsRepository) Mutate(apply func(settings.Settings) (settings.Settings, error)) (settings.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return settings.Settings{}, fmt.Errorf("begin settings update: %w", err)
	}
	defer tx.Rollback()

	current, err := loadSettings(tx)
	if err != nil {
		return settings.Settings{}, err
	}

	next, err := apply(current)
	if err != nil {
		return settings.Settings{}, err
	}
	next.ID = current.ID

	const query = `
        UPDATE settings
           SET hourly_rate_car = $2,
               hourly_rate_bike = $3,
               overnight_fee_car = $4,
               overnight_fee_bike = $5,
               free_minutes = $6
         WHERE id = $1
    `
	_, err = tx.Exec(query,
		next.ID,
		next.HourlyRateCar.StringFixed(2),
		next.HourlyRateBike.StringFixed(2),
		next.OvernightFeeCar.StringFixed(2),
		next.OvernightFeeBike.StringFixed(2),
		next.FreeMinutes,
	)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("update settings: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return settings.Settings{}, fmt.Errorf("commit settings update: %w", err)
	}
	return next, nil
}

func loadSettings(q execQuerier) (settings.Settings, error) {
	s, err := scanSettings(q.QueryRow(selectSettings))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return insertDefaults(q)
		}
		return settings.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return s, nil
}

func insertDefaults(q execQuerier) (settings.Settings, error) {
	s := settings.Default()
	s.ID = uuid.NewString()

	const query = `
        INSERT INTO settings (id, hourly_rate_car, hourly_rate_bike, overnight_fee_car, overnight_fee_bike, free_minutes)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := q.Exec(query,
		s.ID,
		s.HourlyRateCar.StringFixed(2),
		s.HourlyRateBike.StringFixed(2),
		s.OvernightFeeCar.StringFixed(2),
		s.OvernightFeeBike.StringFixed(2),
		s.FreeMinutes,
	)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("seed settings: %w", err)
	}
	return s, nil
}

func scanSettings(row rowScanner) (settings.Settings, error) {
	var (
		s                                                  settings.Settings
		hourlyCar, hourlyBike, overnightCar, overnightBike string
	)

	err := row.Scan(&s.ID, &hourlyCar, &hourlyBike, &overnightCar, &overnightBike, &s.FreeMinutes)
	if err != nil {
		return settings.Settings{}, err
	}

	for _, field := range []struct {
		raw string
		dst *decimal.Decimal
	}{
		{hourlyCar, &s.HourlyRateCar},
		{hourlyBike, &s.HourlyRateBike},
		{overnightCar, &s.OvernightFeeCar},
		{overnightBike, &s.OvernightFeeBike},
	} {
		parsed, err := decimal.NewFromString(field.raw)
		if err != nil {
			return settings.Settings{}, fmt.Errorf("parse rate %q: %w", field.raw, err)
		}
		*field.dst = parsed
	}
	return s, nil
}
