package parking

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MAY0LPHI/Parking-simples/internal/domain/tariff"
)

var (
	ErrNotImplemented = errors.New("parking repository: not implemented")
	ErrNotFound       = errors.New("parking record not found")
	// ErrAlreadyExited guards against double billing: a record's exit can
	// only be committed once.
	ErrAlreadyExited = errors.New("vehicle already exited")
)

// Plates look like ABC-1234 or ABC-1A23: three letters, a hyphen, one
// digit, one alphanumeric, two digits. Input is uppercased before matching.
var platePattern = regexp.MustCompile(`^[A-Z]{3}-\d[A-Z0-9]\d{2}$`)

// Record is a single parking stay. ExitTime and AmountCharged are either
// both nil (vehicle still parked) or both set (vehicle exited); Close is
// the only path that sets them. Records are kept forever as history.
type Record struct {
	ID            string
	LicensePlate  string
	VehicleClass  tariff.VehicleClass
	EntryTime     time.Time
	ExitTime      *time.Time
	AmountCharged *decimal.Decimal
}

// Active reports whether the vehicle is still in the lot.
func (r Record) Active() bool {
	return r.ExitTime == nil
}

// FieldError describes a single rejected input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError reports every invalid field of a check-in request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid vehicle entry: " + strings.Join(parts, "; ")
}

// Repository abstracts persistence for parking records.
type Repository interface {
	FindByID(id string) (Record, error)
	Create(rec Record) (Record, error)
	// Close sets exit time and amount atomically. It fails with
	// ErrNotFound for unknown ids and ErrAlreadyExited when the record is
	// already closed, leaving it untouched.
	Close(id string, exitTime time.Time, amount decimal.Decimal) (Record, error)
	ListActive() ([]Record, error)
	ListHistory() ([]Record, error)
}

// NullRepository stub implementation returning ErrNotImplemented.
type NullRepository struct{}

func (NullRepository) FindByID(id string) (Record, error) {
	return Record{}, ErrNotImplemented
}

func (NullRepository) Create(rec Record) (Record, error) {
	return Record{}, ErrNotImplemented
}

func (NullRepository) Close(id string, exitTime time.Time, amount decimal.Decimal) (Record, error) {
	return Record{}, ErrNotImplemented
}

func (NullRepository) ListActive() ([]Record, error) {
	return nil, ErrNotImplemented
}

func (NullRepository) ListHistory() ([]Record, error) {
	return nil, ErrNotImplemented
}

// TariffSource provides the current rate table. Implemented by the
// settings service.
type TariffSource interface {
	Tariff() (tariff.Config, error)
}

// CheckInInput is used to register a vehicle entry.
type CheckInInput struct {
	LicensePlate string
	VehicleClass string
}

// ExitQuote is the advisory breakdown shown before an exit is committed.
// Quoting never mutates the record; the amount only sticks on CommitExit,
// which recomputes against a fresh clock reading.
type ExitQuote struct {
	RecordID     string
	LicensePlate string
	VehicleClass tariff.VehicleClass
	EntryTime    time.Time
	ExitTime     time.Time
	tariff.Breakdown
}

// Service defines the vehicle lifecycle operations.
type Service interface {
	CheckIn(input CheckInInput) (Record, error)
	Get(id string) (Record, error)
	ListActive() ([]Record, error)
	ListHistory() ([]Record, error)
	QuoteExit(id string) (ExitQuote, error)
	CommitExit(id string) (Record, error)
}

// NewService builds a parking service. The repository owns record state;
// billing math stays in the tariff engine and is orchestrated here.
func NewService(repo Repository, tariffs TariffSource) Service {
	return &service{repo: repo, tariffs: tariffs}
}

type service struct {
	repo    Repository
	tariffs TariffSource
}

func (s *service) CheckIn(input CheckInInput) (Record, error) {
	plate := strings.ToUpper(strings.TrimSpace(input.LicensePlate))
	class := tariff.VehicleClass(strings.ToLower(strings.TrimSpace(input.VehicleClass)))

	var fields []FieldError
	if plate == "" {
		fields = append(fields, FieldError{Field: "licensePlate", Message: "license plate is required"})
	} else if !platePattern.MatchString(plate) {
		fields = append(fields, FieldError{Field: "licensePlate", Message: "license plate must match AAA-0000 or AAA-0A00"})
	}
	if !class.Valid() {
		fields = append(fields, FieldError{Field: "vehicleType", Message: "vehicle type must be car or bike"})
	}
	if len(fields) > 0 {
		return Record{}, &ValidationError{Fields: fields}
	}

	return s.repo.Create(Record{
		LicensePlate: plate,
		VehicleClass: class,
		EntryTime:    time.Now(),
	})
}

func (s *service) Get(id string) (Record, error) {
	return s.repo.FindByID(id)
}

func (s *service) ListActive() ([]Record, error) {
	return s.repo.ListActive()
}

func (s *service) ListHistory() ([]Record, error) {
	return s.repo.ListHistory()
}

func (s *service) QuoteExit(id string) (ExitQuote, error) {
	rec, err := s.repo.FindByID(id)
	if err != nil {
		return ExitQuote{}, err
	}
	if !rec.Active() {
		return ExitQuote{}, ErrAlreadyExited
	}

	cfg, err := s.tariffs.Tariff()
	if err != nil {
		return ExitQuote{}, err
	}

	// Storage may hand back UTC timestamps; the engine compares calendar
	// days, so both ends of the stay must be in one zone.
	exitTime := time.Now()
	breakdown, err := tariff.Quote(rec.EntryTime.In(exitTime.Location()), exitTime, rec.VehicleClass, cfg)
	if err != nil {
		return ExitQuote{}, err
	}

	return ExitQuote{
		RecordID:     rec.ID,
		LicensePlate: rec.LicensePlate,
		VehicleClass: rec.VehicleClass,
		EntryTime:    rec.EntryTime,
		ExitTime:     exitTime,
		Breakdown:    breakdown,
	}, nil
}

// CommitExit recomputes the breakdown against a fresh clock reading rather
// than reusing an earlier quote; the quoted amount is advisory only.
func (s *service) CommitExit(id string) (Record, error) {
	rec, err := s.repo.FindByID(id)
	if err != nil {
		return Record{}, err
	}
	if !rec.Active() {
		return Record{}, ErrAlreadyExited
	}

	cfg, err := s.tariffs.Tariff()
	if err != nil {
		return Record{}, err
	}

	exitTime := time.Now()
	breakdown, err := tariff.Quote(rec.EntryTime.In(exitTime.Location()), exitTime, rec.VehicleClass, cfg)
	if err != nil {
		return Record{}, err
	}

	return s.repo.Close(rec.ID, exitTime, breakdown.TotalAmount)
}
