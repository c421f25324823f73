package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"

	"bf6-tracker/internal/constants"
	"bf6-tracker/internal/stealth"
)

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Browser  string `json:"browser,omitempty"`
}

// HealthHandler reports database reachability and the browser state. browser
// may be nil when fetching directly.
func HealthHandler(db *sql.DB, browser *stealth.Client) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), constants.DatabaseTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok", Database: "ok"}
		code := http.StatusOK
		if err := db.PingContext(ctx); err != nil {
			resp.Status, resp.Database = "degraded", err.Error()
			code = http.StatusServiceUnavailable
		}
		if browser != nil {
			state := browser.State()
			resp.Browser = state.String()
			if state == stealth.StateFailed {
				resp.Status = "degraded"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	})
}

type browserResetResponse struct {
	Previous string `json:"previous"`
	Browser  string `json:"browser"`
}

// BrowserResetHandler clears a failed browser launch so the next fetch
// relaunches Chrome. It only accepts POST and leaves a healthy browser alone.
func BrowserResetHandler(browser *stealth.Client) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		previous := browser.State()
		browser.Reset()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(browserResetResponse{
			Previous: previous.String(),
			Browser:  browser.State().String(),
		})
	})
}
