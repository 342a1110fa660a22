package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"log/slog"

	"github.com/MAY0LPHI/Parking-simples/internal/domain"
	"github.com/MAY0LPHI/Parking-simples/internal/httpapi"
	"github.com/MAY0LPHI/Parking-simples/internal/storage/memory"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()

	mux := http.NewServeMux()
	logger := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	container := domain.New(domain.Options{
		ParkingRepo:  memory.NewRecordRepository(),
		SettingsRepo: memory.NewSettingsRepository(),
	})
	httpapi.Register(mux, logger, container)
	return mux
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimSpace(string(p)))
	return len(p), nil
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func TestVehicleEntry(t *testing.T) {
	mux := newTestMux(t)

	rec, body := doJSON(t, mux, http.MethodPost, "/api/vehicles",
		`{"licensePlate":"abc-1234","vehicleType":"car"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", rec.Code, body)
	}
	if body["licensePlate"] != "ABC-1234" {
		t.Fatalf("expected normalized plate, got %v", body["licensePlate"])
	}
	if body["id"] == "" || body["id"] == nil {
		t.Fatalf("expected an id in the response")
	}
	if body["exitTime"] != nil {
		t.Fatalf("new record must not carry an exit time")
	}
}

func TestVehicleEntryValidation(t *testing.T) {
	mux := newTestMux(t)

	rec, body := doJSON(t, mux, http.MethodPost, "/api/vehicles",
		`{"licensePlate":"AB-1234","vehicleType":"boat"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	fields, ok := body["fields"].([]any)
	if !ok || len(fields) != 2 {
		t.Fatalf("expected two field errors, got %v", body["fields"])
	}
}

func TestExitFlow(t *testing.T) {
	mux := newTestMux(t)

	rec, body := doJSON(t, mux, http.MethodPost, "/api/vehicles",
		`{"licensePlate":"ABC-1234","vehicleType":"bike"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("entry failed: %d", rec.Code)
	}
	id := body["id"].(string)

	rec, body = doJSON(t, mux, http.MethodGet, "/api/vehicles/"+id+"/calculate", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("calculate failed: %d %v", rec.Code, body)
	}
	// Fresh entry is inside the grace period.
	if body["totalAmount"] != "0.00" {
		t.Fatalf("expected total 0.00 inside grace period, got %v", body["totalAmount"])
	}
	if body["hadOvernight"] != false {
		t.Fatalf("expected no overnight on immediate exit")
	}

	rec, body = doJSON(t, mux, http.MethodPost, "/api/vehicles/"+id+"/exit", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("exit failed: %d %v", rec.Code, body)
	}
	if body["amountCharged"] != "0.00" {
		t.Fatalf("expected amount 0.00, got %v", body["amountCharged"])
	}
	if body["exitTime"] == nil {
		t.Fatalf("expected exit time on closed record")
	}

	// Second exit must be rejected without altering state.
	rec, _ = doJSON(t, mux, http.MethodPost, "/api/vehicles/"+id+"/exit", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on double exit, got %d", rec.Code)
	}

	// Quote on a closed record is rejected too.
	rec, _ = doJSON(t, mux, http.MethodGet, "/api/vehicles/"+id+"/calculate", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 quoting a closed record, got %d", rec.Code)
	}
}

func TestExitUnknownVehicle(t *testing.T) {
	mux := newTestMux(t)

	rec, _ := doJSON(t, mux, http.MethodGet, "/api/vehicles/missing/calculate", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	rec, _ = doJSON(t, mux, http.MethodPost, "/api/vehicles/missing/exit", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestActiveAndHistoryLists(t *testing.T) {
	mux := newTestMux(t)

	_, first := doJSON(t, mux, http.MethodPost, "/api/vehicles",
		`{"licensePlate":"AAA-1111","vehicleType":"car"}`)
	_, _ = doJSON(t, mux, http.MethodPost, "/api/vehicles",
		`{"licensePlate":"BBB-2222","vehicleType":"bike"}`)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/vehicles/active", nil))
	var active []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &active); err != nil {
		t.Fatalf("decode active: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active vehicles, got %d", len(active))
	}

	id := first["id"].(string)
	if r, _ := doJSON(t, mux, http.MethodPost, "/api/vehicles/"+id+"/exit", ""); r.Code != http.StatusOK {
		t.Fatalf("exit failed: %d", r.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/vehicles/active", nil))
	active = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &active); err != nil {
		t.Fatalf("decode active: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 active vehicle after exit, got %d", len(active))
	}
	if active[0]["licensePlate"] != "BBB-2222" {
		t.Fatalf("wrong vehicle left active: %v", active[0]["licensePlate"])
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	var history []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history))
	}
	if history[0]["licensePlate"] != "AAA-1111" {
		t.Fatalf("wrong vehicle in history: %v", history[0]["licensePlate"])
	}
	if history[0]["amountCharged"] == nil {
		t.Fatalf("history entry must carry the charged amount")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	mux := newTestMux(t)

	rec, body := doJSON(t, mux, http.MethodGet, "/api/settings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get settings failed: %d", rec.Code)
	}
	if body["hourlyRateCar"] != "1.00" {
		t.Fatalf("expected default car rate 1.00, got %v", body["hourlyRateCar"])
	}

	rec, body = doJSON(t, mux, http.MethodPut, "/api/settings", `{"freeMinutes":30}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update settings failed: %d %v", rec.Code, body)
	}
	if body["freeMinutes"] != float64(30) {
		t.Fatalf("expected free minutes 30, got %v", body["freeMinutes"])
	}
	if body["hourlyRateCar"] != "1.00" {
		t.Fatalf("partial update changed car rate: %v", body["hourlyRateCar"])
	}

	rec, body = doJSON(t, mux, http.MethodPut, "/api/settings", `{"hourlyRateCar":"-3.00"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative rate, got %d", rec.Code)
	}
	if body["error"] != "validation failed" {
		t.Fatalf("expected validation error payload, got %v", body)
	}
}
