package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/MAY0LPHI/Parking-simples/internal/domain/settings"
)

// SettingsRepository is an in-memory implementation of settings.Repository
// holding the single configuration instance, seeded with defaults.
type SettingsRepository struct {
	mu      sync.RWMutex
	current settings.Settings
}

// NewSettingsRepository creates an in-memory settings repo with defaults.
func NewSettingsRepository() *SettingsRepository {
	current := settings.Default()
	current.ID = uuid.NewString()
	return &SettingsRepository{current: current}
}

func (r *SettingsRepository) Get() (settings.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.current, nil
}

// Mutate runs apply and stores its result under the write lock, so a
// concurrent update can never persist a stale snapshot of the settings.
func (r *SettingsRepository) Mutate(apply func(settings.Settings) (settings.Settings, error)) (settings.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := apply(r.current)
	if err != nil {
		return settings.Settings{}, err
	}
	next.ID = r.current.ID
	r.current = next
	return r.current, nil
}
