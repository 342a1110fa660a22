package domain

import (
	"github.com/MAY0LPHI/Parking-simples/internal/domain/parking"
	"github.com/MAY0LPHI/Parking-simples/internal/domain/settings"
)

// Container wires domain services together. The parking service leans on
// the settings service for the current rate table; repositories never call
// the tariff engine themselves.
type Container struct {
	Parking  parking.Service
	Settings settings.Service
}

// Options configures the domain container.
type Options struct {
	ParkingRepo  parking.Repository
	SettingsRepo settings.Repository
}

// New constructs a domain container with provided repositories.
func New(opts Options) Container {
	parkingRepo := opts.ParkingRepo
	if parkingRepo == nil {
		parkingRepo = parking.NullRepository{}
	}

	settingsRepo := opts.SettingsRepo
	if settingsRepo == nil {
		settingsRepo = settings.NullRepository{}
	}

	settingsService := settings.NewService(settingsRepo)

	return Container{
		Parking:  parking.NewService(parkingRepo, settingsService),
		Settings: settingsService,
	}
}
