package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MAY0LPHI/Parking-simples/internal/domain/parking"
	"github.com/MAY0LPHI/Parking-simples/internal/domain/tariff"
)

// RecordRepository persists parking records in a SQL database.
type RecordRepository struct {
	db *sql.DB
}

// NewRecordRepository constructs a repository using a pooled DB handle.
func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// FindByID retrieves a single parking record.
func (r *RecordRepository) FindByID(id string) (parking.Record, error) {
	const query = `
        SELECT id, license_plate, vehicle_type, entry_time, exit_time, amount_charged
          FROM vehicles
         WHERE id = $1
    `

	rec, err := scanRecord(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return parking.Record{}, parking.ErrNotFound
		}
		return parking.Record{}, fmt.Errorf("find record: %w", err)
	}
	return rec, nil
}

// Create inserts a new open record, assigning an id if absent.
func (r *RecordRepository) Create(rec parking.Record) (parking.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.EntryTime.IsZero() {
		rec.EntryTime = time.Now()
	}

	const query = `
        INSERT INTO vehicles (id, license_plate, vehicle_type, entry_time)
        VALUES ($1, $2, $3, $4)
    `
	if _, err := r.db.Exec(query, rec.ID, rec.LicensePlate, string(rec.VehicleClass), rec.EntryTime); err != nil {
		return parking.Record{}, fmt.Errorf("create record: %w", err)
	}
	return rec, nil
}

// Close stamps exit time and charged amount in one statement guarded by
// exit_time IS NULL, so a concurrent exit on the same record loses and is
// reported as already exited.
func (r *RecordRepository) Close(id string, exitTime time.Time, amount decimal.Decimal) (parking.Record, error) {
	const query = `
        UPDATE vehicles
           SET exit_time = $2, amount_charged = $3
         WHERE id = $1 AND exit_time IS NULL
    `

	res, err := r.db.Exec(query, id, exitTime, amount.StringFixed(2))
	if err != nil {
		return parking.Record{}, fmt.Errorf("close record: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return parking.Record{}, fmt.Errorf("close record: %w", err)
	}
	if affected == 0 {
		// Either the record never existed or it was already closed.
		if _, err := r.FindByID(id); err != nil {
			return parking.Record{}, err
		}
		return parking.Record{}, parking.ErrAlreadyExited
	}

	return r.FindByID(id)
}

// ListActive returns open records, most recent arrival first.
func (r *RecordRepository) ListActive() ([]parking.Record, error) {
	const query = `
        SELECT id, license_plate, vehicle_type, entry_time, exit_time, amount_charged
          FROM vehicles
         WHERE exit_time IS NULL
         ORDER BY entry_time DESC
    `
	return r.queryRecords(query)
}

// ListHistory returns closed records, most recent departure first.
func (r *RecordRepository) ListHistory() ([]parking.Record, error) {
	const query = `
        SELECT id, license_plate, vehicle_type, entry_time, exit_time, amount_charged
          FROM vehicles
         WHERE exit_time IS NOT NULL
         ORDER BY exit_time DESC
    `
	return r.queryRecords(query)
}

func (r *RecordRepository) queryRecords(query string) ([]parking.Record, error) {
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var list []parking.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		list = append(list, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return list, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (parking.Record, error) {
	var (
		rec         parking.Record
		vehicleType string
		exitTime    sql.NullTime
		amount      sql.NullString
	)

	err := row.Scan(&rec.ID, &rec.LicensePlate, &vehicleType, &rec.EntryTime, &exitTime, &amount)
	if err != nil {
		return parking.Record{}, err
	}

	rec.VehicleClass = tariff.VehicleClass(vehicleType)
	if exitTime.Valid {
		t := exitTime.Time
		rec.ExitTime = &t
	}
	if amount.Valid {
		parsed, err := decimal.NewFromString(amount.String)
		if err != nil {
			return parking.Record{}, fmt.Errorf("parse amount %q: %w", amount.String, err)
		}
		rec.AmountCharged = &parsed
	}
	return rec, nil
}
