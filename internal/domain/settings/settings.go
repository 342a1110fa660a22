package settings

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MAY0LPHI/Parking-simples/internal/domain/tariff"
)

var (
	ErrNotImplemented = errors.New("settings repository: not implemented")
	ErrNotFound       = errors.New("settings not found")
)

// Settings holds the tariff configuration governing fee computation.
// Exactly one instance exists at a time; it is created with defaults at
// startup and replaced wholesale on update.
type Settings struct {
	ID               string
	HourlyRateCar    decimal.Decimal
	HourlyRateBike   decimal.Decimal
	OvernightFeeCar  decimal.Decimal
	OvernightFeeBike decimal.Decimal
	FreeMinutes      int
}

// Default returns the startup configuration.
func Default() Settings {
	return Settings{
		HourlyRateCar:    decimal.RequireFromString("1.00"),
		HourlyRateBike:   decimal.RequireFromString("0.50"),
		OvernightFeeCar:  decimal.RequireFromString("10.00"),
		OvernightFeeBike: decimal.RequireFromString("5.00"),
		FreeMinutes:      15,
	}
}

// Tariff converts the stored settings into the engine's rate table.
func (s Settings) Tariff() tariff.Config {
	return tariff.Config{
		HourlyRate: map[tariff.VehicleClass]decimal.Decimal{
			tariff.ClassCar:  s.HourlyRateCar,
			tariff.ClassBike: s.HourlyRateBike,
		},
		OvernightFee: map[tariff.VehicleClass]decimal.Decimal{
			tariff.ClassCar:  s.OvernightFeeCar,
			tariff.ClassBike: s.OvernightFeeBike,
		},
		FreeMinutes: s.FreeMinutes,
	}
}

// FieldError describes a single rejected input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError reports every invalid field of an update.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid settings: " + strings.Join(parts, "; ")
}

// Repository abstracts persistence for the settings singleton. Mutate runs
// apply against the current value and persists its result while holding the
// store exclusively, so two concurrent read-merge-write updates cannot
// overwrite each other with stale snapshots. An error from apply aborts the
// mutation without persisting anything.
type Repository interface {
	Get() (Settings, error)
	Mutate(apply func(Settings) (Settings, error)) (Settings, error)
}

// NullRepository stub implementation returning ErrNotImplemented.
type NullRepository struct{}

func (NullRepository) Get() (Settings, error) {
	return Settings{}, ErrNotImplemented
}

func (NullRepository) Mutate(apply func(Settings) (Settings, error)) (Settings, error) {
	return Settings{}, ErrNotImplemented
}

// UpdateInput carries a partial settings change. Monetary fields arrive as
// decimal strings; nil fields keep their current value.
type UpdateInput struct {
	HourlyRateCar    *string
	HourlyRateBike   *string
	OvernightFeeCar  *string
	OvernightFeeBike *string
	FreeMinutes      *int
}

// Service exposes read and update operations over the configuration.
type Service interface {
	Get() (Settings, error)
	Update(input UpdateInput) (Settings, error)
	Tariff() (tariff.Config, error)
}

// NewService builds a settings service with the given repository.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

type service struct {
	repo Repository
}

func (s *service) Get() (Settings, error) {
	return s.repo.Get()
}

// Update validates the provided fields, merges them into the current
// settings and persists the result. A failed validation changes nothing.
// The whole read-merge-write runs inside Repository.Mutate so a concurrent
// update cannot revert another caller's committed field.
func (s *service) Update(input UpdateInput) (Settings, error) {
	return s.repo.Mutate(func(current Settings) (Settings, error) {
		var fields []FieldError

		apply := func(name string, value *string, dst *decimal.Decimal) {
			if value == nil {
				return
			}
			parsed, err := decimal.NewFromString(strings.TrimSpace(*value))
			if err != nil {
				fields = append(fields, FieldError{Field: name, Message: "must be a valid decimal amount"})
				return
			}
			if parsed.IsNegative() {
				fields = append(fields, FieldError{Field: name, Message: "must be zero or greater"})
				return
			}
			*dst = parsed
		}

		apply("hourlyRateCar", input.HourlyRateCar, &current.HourlyRateCar)
		apply("hourlyRateBike", input.HourlyRateBike, &current.HourlyRateBike)
		apply("overnightFeeCar", input.OvernightFeeCar, &current.OvernightFeeCar)
		apply("overnightFeeBike", input.OvernightFeeBike, &current.OvernightFeeBike)

		if input.FreeMinutes != nil {
			if *input.FreeMinutes < 0 {
				fields = append(fields, FieldError{Field: "freeMinutes", Message: "must be zero or greater"})
			} else {
				current.FreeMinutes = *input.FreeMinutes
			}
		}

		if len(fields) > 0 {
			return Settings{}, &ValidationError{Fields: fields}
		}
		return current, nil
	})
}

func (s *service) Tariff() (tariff.Config, error) {
	current, err := s.repo.Get()
	if err != nil {
		return tariff.Config{}, err
	}
	return current.Tariff(), nil
}
