package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MAY0LPHI/Parking-simples/internal/domain/parking"
)

// RecordRepository is an in-memory implementation of parking.Repository.
// The write lock around Close keeps the exit time and charged amount
// visible only as a pair; concurrent exits on one record cannot both win.
type RecordRepository struct {
	mu      sync.RWMutex
	records map[string]parking.Record
}

// NewRecordRepository creates an in-memory parking record repo.
func NewRecordRepository() *RecordRepository {
	return &RecordRepository{
		records: make(map[string]parking.Record),
	}
}

func (r *RecordRepository) FindByID(id string) (parking.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return parking.Record{}, parking.ErrNotFound
	}
	return rec, nil
}

func (r *RecordRepository) Create(rec parking.Record) (parking.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.EntryTime.IsZero() {
		rec.EntryTime = time.Now()
	}
	r.records[rec.ID] = rec
	return rec, nil
}

func (r *RecordRepository) Close(id string, exitTime time.Time, amount decimal.Decimal) (parking.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return parking.Record{}, parking.ErrNotFound
	}
	if rec.ExitTime != nil {
		return parking.Record{}, parking.ErrAlreadyExited
	}

	rec.ExitTime = &exitTime
	rec.AmountCharged = &amount
	r.records[id] = rec
	return rec, nil
}

func (r *RecordRepository) ListActive() ([]parking.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var list []parking.Record
	for _, rec := range r.records {
		if rec.Active() {
			list = append(list, rec)
		}
	}

	// Most recent arrival first; map order is never relied upon.
	sort.Slice(list, func(i, j int) bool {
		return list[i].EntryTime.After(list[j].EntryTime)
	})

	return list, nil
}

func (r *RecordRepository) ListHistory() ([]parking.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var list []parking.Record
	for _, rec := range r.records {
		if !rec.Active() {
			list = append(list, rec)
		}
	}

	// Most recent departure first.
	sort.Slice(list, func(i, j int) bool {
		return list[i].ExitTime.After(*list[j].ExitTime)
	})

	return list, nil
}
