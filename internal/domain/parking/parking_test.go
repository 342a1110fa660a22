package parking_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MAY0LPHI/Parking-simples/internal/domain/parking"
	"github.com/MAY0LPHI/Parking-simples/internal/domain/settings"
	"github.com/MAY0LPHI/Parking-simples/internal/domain/tariff"
	"github.com/MAY0LPHI/Parking-simples/internal/storage/memory"
)

func newService(t *testing.T) (parking.Service, *memory.RecordRepository) {
	t.Helper()
	repo := memory.NewRecordRepository()
	svc := parking.NewService(repo, settings.NewService(memory.NewSettingsRepository()))
	return svc, repo
}

func TestCheckInAndGet(t *testing.T) {
	svc, _ := newService(t)

	rec, err := svc.CheckIn(parking.CheckInInput{LicensePlate: "abc-1234", VehicleClass: "car"})
	if err != nil {
		t.Fatalf("check in failed: %v", err)
	}
	if rec.ID == "" {
		t.Fatalf("expected an assigned id")
	}
	if rec.LicensePlate != "ABC-1234" {
		t.Fatalf("expected normalized plate ABC-1234, got %s", rec.LicensePlate)
	}
	if !rec.Active() {
		t.Fatalf("expected new record to be active")
	}

	fetched, err := svc.Get(rec.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if fetched.ID != rec.ID {
		t.Fatalf("expected ID %s, got %s", rec.ID, fetched.ID)
	}
}

func TestCheckInValidation(t *testing.T) {
	svc, _ := newService(t)

	tests := []struct {
		name  string
		plate string
		class string
		want  []string
	}{
		{name: "short plate", plate: "AB-1234", class: "car", want: []string{"licensePlate"}},
		{name: "long plate", plate: "ABCD-1234", class: "car", want: []string{"licensePlate"}},
		{name: "missing hyphen", plate: "ABC1234", class: "car", want: []string{"licensePlate"}},
		{name: "empty plate", plate: "", class: "bike", want: []string{"licensePlate"}},
		{name: "unknown class", plate: "ABC-1234", class: "truck", want: []string{"vehicleType"}},
		{name: "both invalid", plate: "nope", class: "", want: []string{"licensePlate", "vehicleType"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := svc.CheckIn(parking.CheckInInput{LicensePlate: test.plate, VehicleClass: test.class})
			var ve *parking.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(ve.Fields) != len(test.want) {
				t.Fatalf("expected %d field errors, got %d: %v", len(test.want), len(ve.Fields), ve)
			}
			for i, field := range test.want {
				if ve.Fields[i].Field != field {
					t.Fatalf("expected field %s at %d, got %s", field, i, ve.Fields[i].Field)
				}
			}
		})
	}
}

func TestCheckInAcceptsBothPlateFormats(t *testing.T) {
	svc, _ := newService(t)

	for _, plate := range []string{"ABC-1234", "ABC-1A23"} {
		if _, err := svc.CheckIn(parking.CheckInInput{LicensePlate: plate, VehicleClass: "car"}); err != nil {
			t.Fatalf("expected plate %s to be accepted: %v", plate, err)
		}
	}
}

func TestQuoteExitDoesNotMutate(t *testing.T) {
	svc, _ := newService(t)

	rec, err := svc.CheckIn(parking.CheckInInput{LicensePlate: "ABC-1234", VehicleClass: "car"})
	if err != nil {
		t.Fatalf("check in failed: %v", err)
	}

	first, err := svc.QuoteExit(rec.ID)
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if _, err := svc.QuoteExit(rec.ID); err != nil {
		t.Fatalf("second quote failed: %v", err)
	}

	fetched, err := svc.Get(rec.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !fetched.Active() {
		t.Fatalf("quote must not close the record")
	}
	if first.RecordID != rec.ID {
		t.Fatalf("expected quote for %s, got %s", rec.ID, first.RecordID)
	}
}

func TestCommitExitClosesOnce(t *testing.T) {
	svc, repo := newService(t)

	// Back-dated entry so the stay produces a nonzero charge.
	entry := time.Now().Add(-2 * time.Hour)
	rec, err := repo.Create(parking.Record{
		LicensePlate: "ABC-1234",
		VehicleClass: tariff.ClassCar,
		EntryTime:    entry,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	closed, err := svc.CommitExit(rec.ID)
	if err != nil {
		t.Fatalf("commit exit failed: %v", err)
	}
	if closed.ExitTime == nil || closed.AmountCharged == nil {
		t.Fatalf("expected exit time and amount to be set together")
	}
	// The committed amount must be exactly what the engine quotes for the
	// stored entry/exit pair under the default configuration.
	want, err := tariff.Quote(entry, *closed.ExitTime, tariff.ClassCar, settings.Default().Tariff())
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if !closed.AmountCharged.Equal(want.TotalAmount) {
		t.Fatalf("expected amount %s, got %s", want.TotalAmount, closed.AmountCharged)
	}

	_, err = svc.CommitExit(rec.ID)
	if !errors.Is(err, parking.ErrAlreadyExited) {
		t.Fatalf("expected ErrAlreadyExited, got %v", err)
	}

	// The failed second commit must not touch the stored record.
	after, err := svc.Get(rec.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !after.ExitTime.Equal(*closed.ExitTime) {
		t.Fatalf("exit time changed after failed commit")
	}
	if !after.AmountCharged.Equal(*closed.AmountCharged) {
		t.Fatalf("amount changed after failed commit")
	}
}

func TestCommitExitConcurrentSingleWinner(t *testing.T) {
	svc, repo := newService(t)

	rec, err := repo.Create(parking.Record{
		LicensePlate: "ABC-1234",
		VehicleClass: tariff.ClassCar,
		EntryTime:    time.Now().Add(-30 * time.Minute),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	const workers = 8
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CommitExit(rec.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var committed, rejected int
	for err := range results {
		switch {
		case err == nil:
			committed++
		case errors.Is(err, parking.ErrAlreadyExited):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if committed != 1 {
		t.Fatalf("expected exactly one commit to succeed, got %d", committed)
	}
	if rejected != workers-1 {
		t.Fatalf("expected %d rejections, got %d", workers-1, rejected)
	}

	after, err := svc.Get(rec.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if after.Active() {
		t.Fatalf("record still active after a successful commit")
	}
}

func TestQuoteExitErrors(t *testing.T) {
	svc, _ := newService(t)

	if _, err := svc.QuoteExit("missing"); !errors.Is(err, parking.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	rec, err := svc.CheckIn(parking.CheckInInput{LicensePlate: "ABC-1234", VehicleClass: "bike"})
	if err != nil {
		t.Fatalf("check in failed: %v", err)
	}
	if _, err := svc.CommitExit(rec.ID); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if _, err := svc.QuoteExit(rec.ID); !errors.Is(err, parking.ErrAlreadyExited) {
		t.Fatalf("expected ErrAlreadyExited for closed record, got %v", err)
	}
}

func TestListActiveAndHistoryPartition(t *testing.T) {
	svc, repo := newService(t)

	now := time.Now()
	older, _ := repo.Create(parking.Record{LicensePlate: "AAA-1111", VehicleClass: tariff.ClassCar, EntryTime: now.Add(-3 * time.Hour)})
	newer, _ := repo.Create(parking.Record{LicensePlate: "BBB-2222", VehicleClass: tariff.ClassBike, EntryTime: now.Add(-1 * time.Hour)})
	middle, _ := repo.Create(parking.Record{LicensePlate: "CCC-3333", VehicleClass: tariff.ClassCar, EntryTime: now.Add(-2 * time.Hour)})

	if _, err := svc.CommitExit(middle.ID); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	active, err := svc.ListActive()
	if err != nil {
		t.Fatalf("list active failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active records, got %d", len(active))
	}
	if active[0].ID != newer.ID || active[1].ID != older.ID {
		t.Fatalf("expected most recent arrival first, got %s then %s", active[0].LicensePlate, active[1].LicensePlate)
	}
	for _, rec := range active {
		if rec.ExitTime != nil {
			t.Fatalf("active list contains a closed record: %s", rec.ID)
		}
	}

	history, err := svc.ListHistory()
	if err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 closed record, got %d", len(history))
	}
	if history[0].ID != middle.ID {
		t.Fatalf("expected %s in history, got %s", middle.ID, history[0].ID)
	}
	if history[0].ExitTime == nil || history[0].AmountCharged == nil {
		t.Fatalf("history record must carry exit time and amount")
	}
}

func TestListHistoryOrdersByExitDescending(t *testing.T) {
	svc, repo := newService(t)

	now := time.Now()
	first, _ := repo.Create(parking.Record{LicensePlate: "AAA-1111", VehicleClass: tariff.ClassCar, EntryTime: now.Add(-3 * time.Hour)})
	second, _ := repo.Create(parking.Record{LicensePlate: "BBB-2222", VehicleClass: tariff.ClassCar, EntryTime: now.Add(-2 * time.Hour)})

	if _, err := svc.CommitExit(first.ID); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := svc.CommitExit(second.ID); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	history, err := svc.ListHistory()
	if err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 closed records, got %d", len(history))
	}
	if history[0].ID != second.ID {
		t.Fatalf("expected most recent departure first")
	}
}
