package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/MAY0LPHI/Parking-simples/internal/domain/parking"
	"github.com/MAY0LPHI/Parking-simples/internal/domain/tariff"
)

func registerVehicleRoutes(mux *http.ServeMux, logger *slog.Logger, service parking.Service) {
	mux.HandleFunc("/api/vehicles", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			handleVehicleEntry(w, r, logger, service)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/vehicles/", func(w http.ResponseWriter, r *http.Request) {
		remainder := strings.TrimPrefix(r.URL.Path, "/api/vehicles/")
		remainder = strings.TrimSuffix(remainder, "/")

		if remainder == "active" {
			if r.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			handleVehicleListActive(w, logger, service)
			return
		}

		switch {
		case strings.HasSuffix(remainder, "/calculate"):
			if r.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			id := strings.TrimSuffix(remainder, "/calculate")
			handleVehicleCalculate(w, logger, service, id)
		case strings.HasSuffix(remainder, "/exit"):
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			id := strings.TrimSuffix(remainder, "/exit")
			handleVehicleExit(w, logger, service, id)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	mux.HandleFunc("/api/history", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handleVehicleHistory(w, logger, service)
	})
}

// EntryRequest is the vehicle check-in payload.
type EntryRequest struct {
	LicensePlate string `json:"licensePlate"`
	VehicleType  string `json:"vehicleType"`
}

func handleVehicleEntry(w http.ResponseWriter, r *http.Request, logger *slog.Logger, service parking.Service) {
	var payload EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	rec, err := service.CheckIn(parking.CheckInInput{
		LicensePlate: payload.LicensePlate,
		VehicleClass: payload.VehicleType,
	})
	if err != nil {
		var ve *parking.ValidationError
		if errors.As(err, &ve) {
			out := make([]fieldErrorResponse, 0, len(ve.Fields))
			for _, f := range ve.Fields {
				out = append(out, fieldErrorResponse{Field: f.Field, Message: f.Message})
			}
			respondValidation(w, out)
			return
		}
		logger.Error("vehicle entry failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	logger.Info("vehicle checked in", "id", rec.ID, "plate", rec.LicensePlate, "type", rec.VehicleClass)
	respondJSON(w, http.StatusCreated, toRecordResponse(rec))
}

func handleVehicleListActive(w http.ResponseWriter, logger *slog.Logger, service parking.Service) {
	list, err := service.ListActive()
	if err != nil {
		logger.Error("list active vehicles failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, toRecordResponses(list))
}

func handleVehicleHistory(w http.ResponseWriter, logger *slog.Logger, service parking.Service) {
	list, err := service.ListHistory()
	if err != nil {
		logger.Error("list vehicle history failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, toRecordResponses(list))
}

func handleVehicleCalculate(w http.ResponseWriter, logger *slog.Logger, service parking.Service, id string) {
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing vehicle id")
		return
	}

	quote, err := service.QuoteExit(id)
	if err != nil {
		switch {
		case errors.Is(err, parking.ErrNotFound):
			respondError(w, http.StatusNotFound, "vehicle not found")
		case errors.Is(err, parking.ErrAlreadyExited):
			respondError(w, http.StatusBadRequest, "vehicle already exited")
		case errors.Is(err, tariff.ErrInvalidRate):
			logger.Error("tariff configuration invalid", "err", err)
			respondError(w, http.StatusInternalServerError, "tariff configuration invalid")
		default:
			logger.Error("calculate exit failed", "err", err)
			respondError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	respondJSON(w, http.StatusOK, toQuoteResponse(quote))
}

func handleVehicleExit(w http.ResponseWriter, logger *slog.Logger, service parking.Service, id string) {
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing vehicle id")
		return
	}

	rec, err := service.CommitExit(id)
	if err != nil {
		switch {
		case errors.Is(err, parking.ErrNotFound):
			respondError(w, http.StatusNotFound, "vehicle not found")
		case errors.Is(err, parking.ErrAlreadyExited):
			respondError(w, http.StatusBadRequest, "vehicle already exited")
		case errors.Is(err, tariff.ErrInvalidRate):
			logger.Error("tariff configuration invalid", "err", err)
			respondError(w, http.StatusInternalServerError, "tariff configuration invalid")
		default:
			logger.Error("commit exit failed", "err", err)
			respondError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	logger.Info("vehicle exited", "id", rec.ID, "plate", rec.LicensePlate, "amount", rec.AmountCharged.StringFixed(2))
	respondJSON(w, http.StatusOK, toRecordResponse(rec))
}

// RecordResponse mirrors a parking record on the wire. Monetary values are
// decimal strings with two fraction digits; timestamps are RFC 3339.
type RecordResponse struct {
	ID            string  `json:"id"`
	LicensePlate  string  `json:"licensePlate"`
	VehicleType   string  `json:"vehicleType"`
	EntryTime     string  `json:"entryTime"`
	ExitTime      *string `json:"exitTime"`
	AmountCharged *string `json:"amountCharged"`
}

// QuoteResponse is the advisory exit calculation for display.
type QuoteResponse struct {
	VehicleID         string `json:"vehicleId"`
	LicensePlate      string `json:"licensePlate"`
	VehicleType       string `json:"vehicleType"`
	EntryTime         string `json:"entryTime"`
	ExitTime          string `json:"exitTime"`
	DurationMinutes   int    `json:"durationMinutes"`
	ChargeableMinutes int    `json:"chargeableMinutes"`
	HourlyRate        string `json:"hourlyRate"`
	BaseCharge        string `json:"baseCharge"`
	OvernightFee      string `json:"overnightFee"`
	TotalAmount       string `json:"totalAmount"`
	HadOvernight      bool   `json:"hadOvernight"`
}

func toRecordResponse(rec parking.Record) RecordResponse {
	resp := RecordResponse{
		ID:           rec.ID,
		LicensePlate: rec.LicensePlate,
		VehicleType:  string(rec.VehicleClass),
		EntryTime:    rec.EntryTime.Format(time.RFC3339),
	}
	if rec.ExitTime != nil {
		s := rec.ExitTime.Format(time.RFC3339)
		resp.ExitTime = &s
	}
	if rec.AmountCharged != nil {
		s := rec.AmountCharged.StringFixed(2)
		resp.AmountCharged = &s
	}
	return resp
}

func toRecordResponses(list []parking.Record) []RecordResponse {
	out := make([]RecordResponse, 0, len(list))
	for _, rec := range list {
		out = append(out, toRecordResponse(rec))
	}
	return out
}

func toQuoteResponse(q parking.ExitQuote) QuoteResponse {
	return QuoteResponse{
		VehicleID:         q.RecordID,
		LicensePlate:      q.LicensePlate,
		VehicleType:       string(q.VehicleClass),
		EntryTime:         q.EntryTime.Format(time.RFC3339),
		ExitTime:          q.ExitTime.Format(time.RFC3339),
		DurationMinutes:   q.DurationMinutes,
		ChargeableMinutes: q.ChargeableMinutes,
		HourlyRate:        q.HourlyRate.StringFixed(2),
		BaseCharge:        q.BaseCharge.StringFixed(2),
		OvernightFee:      q.OvernightFee.StringFixed(2),
		TotalAmount:       q.TotalAmount.StringFixed(2),
		HadOvernight:      q.HadOvernight,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// If encoding fails there's not much we can do; log to stderr.
		slog.Default().Error("failed to encode response", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

type fieldErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func respondValidation(w http.ResponseWriter, fields []fieldErrorResponse) {
	respondJSON(w, http.StatusBadRequest, map[string]any{
		"error":  "validation failed",
		"fields": fields,
	})
}
