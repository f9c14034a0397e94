package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/footylog/matchlog/internal/domain/event"
	"github.com/footylog/matchlog/internal/domain/prefs"
	"github.com/footylog/matchlog/internal/platform/logging"
	"github.com/footylog/matchlog/internal/platform/timeutil"
	"github.com/footylog/matchlog/internal/usecase"
)

type Handler struct {
	scheduleService   *usecase.ScheduleService
	toggleService     *usecase.ToggleService
	insightsService   *usecase.InsightsService
	preferenceService *usecase.PreferenceService
	logger            *logging.Logger
	validator         *validator.Validate
	clock             func() time.Time
}

func NewHandler(
	scheduleService *usecase.ScheduleService,
	toggleService *usecase.ToggleService,
	insightsService *usecase.InsightsService,
	preferenceService *usecase.PreferenceService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		scheduleService:   scheduleService,
		toggleService:     toggleService,
		insightsService:   insightsService,
		preferenceService: preferenceService,
		logger:            logger,
		validator:         validator.New(),
		clock:             time.Now,
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type toggleRequest struct {
	Event event.Event `json:"event"`
}

type toggleResponseDTO struct {
	EventID string `json:"eventId"`
	Active  bool   `json:"active"`
}

type preferencesRequest struct {
	FavoriteTeams    []string `json:"favoriteTeams" validate:"omitempty,dive,max=120"`
	LeagueOrder      []string `json:"leagueOrder" validate:"omitempty,dive,max=40"`
	CollapsedLeagues []string `json:"collapsedLeagues" validate:"omitempty,dive,max=40"`
	HiddenLeagues    []string `json:"hiddenLeagues" validate:"omitempty,dive,max=40"`
}

func (r preferencesRequest) toPreferences() prefs.Preferences {
	return prefs.Preferences{
		FavoriteTeams:    r.FavoriteTeams,
		LeagueOrder:      r.LeagueOrder,
		CollapsedLeagues: r.CollapsedLeagues,
		HiddenLeagues:    r.HiddenLeagues,
	}
}

type dayScheduleDTO struct {
	Date        string           `json:"date"`
	DisplayDate string           `json:"displayDate"`
	Leagues     []leagueGroupDTO `json:"leagues"`
	WatchedIDs  []string         `json:"watchedIds"`
	NotifiedIDs []string         `json:"notifiedIds"`
	Stats       statsDTO         `json:"stats"`
	TotalEvents int              `json:"totalEvents"`
}

type leagueGroupDTO struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Badge  string     `json:"badge,omitempty"`
	Events []eventDTO `json:"events"`
}

// eventDTO decorates a fixture with the live flag the UI renders; IsLive is
// derived at response time, never cached.
type eventDTO struct {
	event.Event
	IsLive bool `json:"isLive"`
}

type statsDTO struct {
	WeekCount  int `json:"weekCount"`
	MonthCount int `json:"monthCount"`
	TotalCount int `json:"totalCount"`
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSchedule")
	defer span.End()

	date := r.URL.Query().Get("date")
	day, err := h.scheduleService.EventsByDate(ctx, date)
	if err != nil {
		h.logger.ErrorContext(ctx, "get schedule failed", "date", date, "error", err)
		writeError(ctx, w, err)
		return
	}
	h.toggleService.SeedMembership(day)

	writeSuccess(ctx, w, http.StatusOK, dayScheduleToDTO(ctx, day, h.clock()))
}

func (h *Handler) RefreshSchedule(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshSchedule")
	defer span.End()

	date := r.URL.Query().Get("date")
	day, err := h.scheduleService.Refresh(ctx, date)
	if err != nil {
		h.logger.ErrorContext(ctx, "refresh schedule failed", "date", date, "error", err)
		writeError(ctx, w, err)
		return
	}
	h.toggleService.SeedMembership(day)

	writeSuccess(ctx, w, http.StatusOK, dayScheduleToDTO(ctx, day, h.clock()))
}

func (h *Handler) ListWatched(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListWatched")
	defer span.End()

	events, err := h.insightsService.ListWatched(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list watched failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, events)
}

func (h *Handler) ListWatchedGroups(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListWatchedGroups")
	defer span.End()

	groups, err := h.insightsService.Grouped(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "group watched failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, groups)
}

func (h *Handler) GetWatchedStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetWatchedStats")
	defer span.End()

	stats, err := h.insightsService.Stats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get stats failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, stats)
}

func (h *Handler) GetInsights(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetInsights")
	defer span.End()

	insights, err := h.insightsService.Insights(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get insights failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, insights)
}

func (h *Handler) ToggleWatched(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ToggleWatched")
	defer span.End()

	req, err := decodeToggleRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	active, err := h.toggleService.ToggleWatched(ctx, req.Event)
	if err != nil {
		h.logger.ErrorContext(ctx, "toggle watched failed", "event_id", req.Event.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, toggleResponseDTO{EventID: req.Event.ID, Active: active})
}

func (h *Handler) ToggleNotified(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ToggleNotified")
	defer span.End()

	req, err := decodeToggleRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	active, err := h.toggleService.ToggleNotified(ctx, req.Event)
	if err != nil {
		h.logger.ErrorContext(ctx, "toggle notified failed", "event_id", req.Event.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, toggleResponseDTO{EventID: req.Event.ID, Active: active})
}

func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPreferences")
	defer span.End()

	p, err := h.preferenceService.Get(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get preferences failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, p)
}

func (h *Handler) SavePreferences(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SavePreferences")
	defer span.End()

	var req preferencesRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: decode request body: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.preferenceService.Save(ctx, req.toPreferences()); err != nil {
		h.logger.ErrorContext(ctx, "save preferences failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	p, err := h.preferenceService.Get(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, p)
}

func decodeToggleRequest(r *http.Request) (toggleRequest, error) {
	var req toggleRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		return toggleRequest{}, fmt.Errorf("%w: decode request body: %v", usecase.ErrInvalidInput, err)
	}
	if req.Event.ID == "" {
		return toggleRequest{}, fmt.Errorf("%w: event id is required", usecase.ErrInvalidInput)
	}
	return req, nil
}

func dayScheduleToDTO(ctx context.Context, day usecase.DaySchedule, now time.Time) dayScheduleDTO {
	ctx, span := startSpan(ctx, "httpapi.dayScheduleToDTO")
	defer span.End()

	return dayScheduleDTO{
		Date:        day.Date,
		DisplayDate: timeutil.FormatDisplayDate(day.Date),
		Leagues:     leagueGroupsToDTO(day.Leagues, now),
		WatchedIDs:  sortedIDs(day.WatchedIDs),
		NotifiedIDs: sortedIDs(day.NotifiedIDs),
		Stats: statsDTO{
			WeekCount:  day.Stats.WeekCount,
			MonthCount: day.Stats.MonthCount,
			TotalCount: day.Stats.TotalCount,
		},
		TotalEvents: day.TotalEvents,
	}
}

func leagueGroupsToDTO(groups []event.LeagueGroup, now time.Time) []leagueGroupDTO {
	out := make([]leagueGroupDTO, 0, len(groups))
	for _, group := range groups {
		events := make([]eventDTO, 0, len(group.Events))
		for _, ev := range group.Events {
			events = append(events, eventDTO{
				Event:  ev,
				IsLive: timeutil.IsMatchLive(ev.Date, ev.Time, now),
			})
		}
		out = append(out, leagueGroupDTO{
			ID:     group.ID,
			Name:   group.Name,
			Badge:  group.Badge,
			Events: events,
		})
	}
	return out
}

func sortedIDs(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
