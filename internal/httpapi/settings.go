package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/MAY0LPHI/Parking-simples/internal/domain/settings"
)

func registerSettingsRoutes(mux *http.ServeMux, logger *slog.Logger, service settings.Service) {
	mux.HandleFunc("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handleSettingsGet(w, logger, service)
		case http.MethodPut:
			handleSettingsUpdate(w, r, logger, service)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

// SettingsRequest carries a partial configuration update. Omitted fields
// keep their current value.
type SettingsRequest struct {
	HourlyRateCar    *string `json:"hourlyRateCar"`
	HourlyRateBike   *string `json:"hourlyRateBike"`
	OvernightFeeCar  *string `json:"overnightFeeCar"`
	OvernightFeeBike *string `json:"overnightFeeBike"`
	FreeMinutes      *int    `json:"freeMinutes"`
}

// SettingsResponse mirrors the stored configuration on the wire.
type SettingsResponse struct {
	ID               string `json:"id"`
	HourlyRateCar    string `json:"hourlyRateCar"`
	HourlyRateBike   string `json:"hourlyRateBike"`
	OvernightFeeCar  string `json:"overnightFeeCar"`
	OvernightFeeBike string `json:"overnightFeeBike"`
	FreeMinutes      int    `json:"freeMinutes"`
}

func handleSettingsGet(w http.ResponseWriter, logger *slog.Logger, service settings.Service) {
	current, err := service.Get()
	if err != nil {
		logger.Error("get settings failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, toSettingsResponse(current))
}

func handleSettingsUpdate(w http.ResponseWriter, r *http.Request, logger *slog.Logger, service settings.Service) {
	var payload SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	updated, err := service.Update(settings.UpdateInput{
		HourlyRateCar:    payload.HourlyRateCar,
		HourlyRateBike:   payload.HourlyRateBike,
		OvernightFeeCar:  payload.OvernightFeeCar,
		OvernightFeeBike: payload.OvernightFeeBike,
		FreeMinutes:      payload.FreeMinutes,
	})
	if err != nil {
		var ve *settings.ValidationError
		if errors.As(err, &ve) {
			out := make([]fieldErrorResponse, 0, len(ve.Fields))
			for _, f := range ve.Fields {
				out = append(out, fieldErrorResponse{Field: f.Field, Message: f.Message})
			}
			respondValidation(w, out)
			return
		}
		logger.Error("update settings failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	logger.Info("settings updated", "freeMinutes", updated.FreeMinutes)
	respondJSON(w, http.StatusOK, toSettingsResponse(updated))
}

func toSettingsResponse(s settings.Settings) SettingsResponse {
	return SettingsResponse{
		ID:               s.ID,
		HourlyRateCar:    s.HourlyRateCar.StringFixed(2),
		HourlyRateBike:   s.HourlyRateBike.StringFixed(2),
		OvernightFeeCar:  s.OvernightFeeCar.StringFixed(2),
		OvernightFeeBike: s.OvernightFeeBike.StringFixed(2),
		FreeMinutes:      s.FreeMinutes,
	}
}
