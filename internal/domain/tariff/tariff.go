package tariff

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidRate signals a missing or negative rate in the tariff
// configuration. It is a system misconfiguration, not bad user input.
var ErrInvalidRate = errors.New("invalid tariff rate")

// VehicleClass identifies the billing class of a parked vehicle.
type VehicleClass string

const (
	ClassCar  VehicleClass = "car"
	ClassBike VehicleClass = "bike"
)

// Valid reports whether the class is one of the known billing classes.
func (c VehicleClass) Valid() bool {
	return c == ClassCar || c == ClassBike
}

// Config is the rate table the engine quotes against. FreeMinutes is a
// grace period applied uniformly regardless of class.
type Config struct {
	HourlyRate   map[VehicleClass]decimal.Decimal
	OvernightFee map[VehicleClass]decimal.Decimal
	FreeMinutes  int
}

// Breakdown itemizes a single exit quote. Amounts use exact decimal
// arithmetic; nothing here is persisted.
type Breakdown struct {
	DurationMinutes   int
	ChargeableMinutes int
	HourlyRate        decimal.Decimal
	BaseCharge        decimal.Decimal
	OvernightFee      decimal.Decimal
	TotalAmount       decimal.Decimal
	HadOvernight      bool
}

// Quote computes the fee breakdown for a stay. It is pure: no state, no
// side effects, safe to call repeatedly for the same inputs. The caller
// guarantees entry <= exit and supplies both timestamps in the same zone
// so the overnight check compares matching calendar days.
//
// Any chargeable time past the grace period bills at least one full hour;
// each started hour after that bills as a whole hour. The overnight fee
// applies when the calendar date changes between entry and exit, even by a
// minute, and never applies within a single date no matter the duration.
func Quote(entry, exit time.Time, class VehicleClass, cfg Config) (Breakdown, error) {
	rate, ok := cfg.HourlyRate[class]
	if !ok || rate.IsNegative() {
		return Breakdown{}, fmt.Errorf("%w: hourly rate for class %q", ErrInvalidRate, class)
	}
	overnightRate, ok := cfg.OvernightFee[class]
	if !ok || overnightRate.IsNegative() {
		return Breakdown{}, fmt.Errorf("%w: overnight fee for class %q", ErrInvalidRate, class)
	}

	durationMinutes := int(exit.Sub(entry) / time.Minute)

	chargeableMinutes := durationMinutes - cfg.FreeMinutes
	if chargeableMinutes < 0 {
		chargeableMinutes = 0
	}

	chargeableHours := 0
	if chargeableMinutes > 0 {
		chargeableHours = (chargeableMinutes + 59) / 60
	}

	baseCharge := rate.Mul(decimal.NewFromInt(int64(chargeableHours)))

	hadOvernight := !sameCalendarDay(entry, exit)
	overnightFee := decimal.Zero
	if hadOvernight {
		overnightFee = overnightRate
	}

	return Breakdown{
		DurationMinutes:   durationMinutes,
		ChargeableMinutes: chargeableMinutes,
		HourlyRate:        rate,
		BaseCharge:        baseCharge,
		OvernightFee:      overnightFee,
		TotalAmount:       baseCharge.Add(overnightFee),
		HadOvernight:      hadOvernight,
	}, nil
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
