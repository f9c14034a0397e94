package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerScheduleRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/schedule", handler.GetSchedule)
	mux.HandleFunc("POST /v1/schedule/refresh", handler.RefreshSchedule)
}

func registerWatchedRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/watched", handler.ListWatched)
	mux.HandleFunc("GET /v1/watched/groups", handler.ListWatchedGroups)
	mux.HandleFunc("GET /v1/watched/stats", handler.GetWatchedStats)
	mux.HandleFunc("GET /v1/insights", handler.GetInsights)
	mux.HandleFunc("POST /v1/watched/toggle", handler.ToggleWatched)
	mux.HandleFunc("POST /v1/notified/toggle", handler.ToggleNotified)
}

func registerPreferenceRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/preferences", handler.GetPreferences)
	mux.HandleFunc("PUT /v1/preferences", handler.SavePreferences)
}
