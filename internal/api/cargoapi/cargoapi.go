package cargoapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"

	"github.com/YaqiinCargo/CargoBox/internal/integrations/assistant"
	"github.com/YaqiinCargo/CargoBox/internal/models"
	"github.com/YaqiinCargo/CargoBox/internal/services/arrivals"
	"github.com/YaqiinCargo/CargoBox/internal/services/clients"
	"github.com/YaqiinCargo/CargoBox/internal/services/parcels"
)

type ClientVerifier interface {
	Verify(ctx context.Context, clientID, phone string) (*models.ClientProfile, error)
	ListRoster(ctx context.Context) []models.RosterClient
}

type ParcelResolver interface {
	Resolve(ctx context.Context, rawID string) (*models.ParcelRecord, error)
}

type ArrivalsSource interface {
	FetchManifest(ctx context.Context) models.ArrivalManifest
}

type SettingsStore interface {
	Get(ctx context.Context) models.AppSettings
	SyncFromRemote(ctx context.Context) error
}

type TracksService interface {
	Add(ctx context.Context, clientID, rawID, note string) error
	List(ctx context.Context, clientID string) ([]models.SavedTrack, error)
	Remove(ctx context.Context, clientID, rawID string) error
}

type ProfilesRepo interface {
	UpsertProfile(ctx context.Context, p *models.ClientProfile) error
	ListProfiles(ctx context.Context) ([]*models.ClientProfile, error)
}

type ParcelImporter interface {
	UpsertParcels(ctx context.Context, parcels []*models.ParcelRecord) error
}

type ActivityRecorder interface {
	Record(ctx context.Context, clientID, event, detail string)
}

type CacheCleaner interface {
	ClearCache(ctx context.Context) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type API struct {
	verifier  ClientVerifier
	resolver  ParcelResolver
	arrivals  ArrivalsSource
	settings  SettingsStore
	tracks    TracksService
	profiles  ProfilesRepo
	importer  ParcelImporter
	telemetry ActivityRecorder
	cleaner   CacheCleaner
	chat      assistant.Client
	rl        RateLimiter

	chatLimitPerMinute int64
}

func New(
	verifier ClientVerifier,
	resolver ParcelResolver,
	arrivalsSrc ArrivalsSource,
	settings SettingsStore,
	tracks TracksService,
	profiles ProfilesRepo,
	importer ParcelImporter,
	telemetry ActivityRecorder,
	cleaner CacheCleaner,
	chat assistant.Client,
	rl RateLimiter,
) *API {
	return &API{
		verifier:           verifier,
		resolver:           resolver,
		arrivals:           arrivalsSrc,
		settings:           settings,
		tracks:             tracks,
		profiles:           profiles,
		importer:           importer,
		telemetry:          telemetry,
		cleaner:            cleaner,
		chat:               chat,
		rl:                 rl,
		chatLimitPerMinute: 10,
	}
}

func (a *API) WithChatRateLimit(perMinute int) *API {
	if perMinute > 0 {
		a.chatLimitPerMinute = int64(perMinute)
	}
	return a
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/clients/verify", a.verifyClient)
		r.Get("/parcels/{id}", a.getParcel)
		r.Post("/parcels/import", a.importParcels)
		r.Get("/settings", a.getSettings)
		r.Post("/settings/sync", a.syncSettings)
		r.Get("/arrivals", a.getArrivals)

		r.Get("/clients/{clientID}/tracks", a.listTracks)
		r.Post("/clients/{clientID}/tracks", a.addTrack)
		r.Delete("/clients/{clientID}/tracks/{id}", a.removeTrack)

		r.Get("/admin/clients", a.adminClients)
		r.Get("/admin/roster", a.adminRoster)

		r.Post("/chat", a.chatStream)
		r.Post("/activity", a.postActivity)
		r.Post("/refresh", a.refreshCache)
	})
	return r
}

type verifyRequest struct {
	ClientID string `json:"clientId"`
	Phone    string `json:"phone"`
}

func (a *API) verifyClient(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	profile, err := a.verifier.Verify(r.Context(), req.ClientID, req.Phone)
	switch {
	case errors.Is(err, clients.ErrNotFound):
		writeError(w, http.StatusNotFound, "Bunday ID topilmadi yoki telefon raqam mos emas.")
		return
	case errors.Is(err, clients.ErrSourceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Baza bilan aloqa xatoligi.")
		return
	case errors.Is(err, clients.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "Tizim sozlanmagan.")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Xatolik.")
		return
	}

	if a.profiles != nil {
		if err := a.profiles.UpsertProfile(r.Context(), profile); err != nil {
			// Регистрация в журнале не критична для входа.
			slog.Error("upsert profile", "client_id", profile.ClientID, "error", err.Error())
		}
	}
	a.record(r.Context(), profile.ClientID, "login", "")
	writeJSON(w, http.StatusOK, profile)
}

const arrivedStatus = "Toshkentga yetib keldi"

func (a *API) getParcel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := a.resolver.Resolve(r.Context(), id)
	if errors.Is(err, parcels.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Yuk topilmadi.")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Xatolik.")
		return
	}

	rec = a.decorateArrival(r.Context(), rec)
	writeJSON(w, http.StatusOK, rec)
}

// decorateArrival добавляет событие прибытия в Ташкент, если рейс посылки
// есть в манифесте. Защита по голове истории: повторный запрос не должен
// дублировать событие.
func (a *API) decorateArrival(ctx context.Context, rec *models.ParcelRecord) *models.ParcelRecord {
	if rec.ReysCode == "" || a.arrivals == nil {
		return rec
	}
	manifest := a.arrivals.FetchManifest(ctx)
	tier := arrivals.Match(rec.ReysCode, manifest)
	if tier == arrivals.NoMatch {
		return rec
	}
	if tier == arrivals.DigitMatch {
		slog.Warn("arrival matched by digits only", "reys", rec.ReysCode)
	}
	if len(rec.History) > 0 && strings.Contains(rec.History[0].Status, arrivedStatus) {
		return rec
	}

	out := *rec
	out.History = append([]models.TrackingEvent{{
		Date:      "Hozir",
		Time:      "",
		Status:    fmt.Sprintf("%s (%s)", arrivedStatus, rec.ReysCode),
		Location:  "Toshkent Ombori",
		Completed: true,
	}}, rec.History...)
	return &out
}

type importRequest struct {
	Parcels []*models.ParcelRecord `json:"parcels"`
}

func (a *API) importParcels(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	valid := make([]*models.ParcelRecord, 0, len(req.Parcels))
	for _, p := range req.Parcels {
		if p == nil {
			continue
		}
		p.ID = models.NormalizeID(p.ID)
		if p.ID == "" {
			continue
		}
		valid = append(valid, p)
	}
	if err := a.importer.UpsertParcels(r.Context(), valid); err != nil {
		slog.Error("import parcels", "count", len(valid), "error", err.Error())
		writeError(w, http.StatusInternalServerError, "import failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": len(valid)})
}

func (a *API) getSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.settings.Get(r.Context()))
}

func (a *API) syncSettings(w http.ResponseWriter, r *http.Request) {
	if err := a.settings.SyncFromRemote(r.Context()); err != nil {
		slog.Error("sync settings", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "sync failed")
		return
	}
	writeJSON(w, http.StatusOK, a.settings.Get(r.Context()))
}

func (a *API) getArrivals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.arrivals.FetchManifest(r.Context()))
}

type addTrackRequest struct {
	ID   string `json:"id"`
	Note string `json:"note"`
}

func (a *API) listTracks(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	list, err := a.tracks.List(r.Context(), clientID)
	if err != nil {
		slog.Error("list tracks", "client_id", clientID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) addTrack(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	var req addTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := a.tracks.Add(r.Context(), clientID, req.ID, req.Note); err != nil {
		writeError(w, http.StatusBadRequest, "track id is required")
		return
	}
	a.record(r.Context(), clientID, "track_saved", models.NormalizeID(req.ID))
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) removeTrack(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	if err := a.tracks.Remove(r.Context(), clientID, chi.URLParam(r, "id")); err != nil {
		slog.Error("remove track", "client_id", clientID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) adminClients(w http.ResponseWriter, r *http.Request) {
	list, err := a.profiles.ListProfiles(r.Context())
	if err != nil {
		slog.Error("list profiles", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) adminRoster(w http.ResponseWriter, r *http.Request) {
	roster := a.verifier.ListRoster(r.Context())
	if roster == nil {
		roster = []models.RosterClient{}
	}
	writeJSON(w, http.StatusOK, roster)
}

type chatRequest struct {
	ClientID string              `json:"clientId"`
	Messages []assistant.Message `json:"messages"`
}

// chatStream отдаёт ответ ассистента чанками text/plain по мере генерации.
// Любой сбой модели превращается в одну запасную фразу: пользователь
// никогда не видит ошибку транспорта.
func (a *API) chatStream(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages are required")
		return
	}

	if a.rl != nil && req.ClientID != "" {
		key := fmt.Sprintf("rl:chat:%s:%s", req.ClientID, time.Now().UTC().Format("200601021504"))
		allowed, n, err := a.rl.Allow(r.Context(), key, a.chatLimitPerMinute, 70*time.Second)
		if err != nil {
			slog.Error("chat rate limit", "client_id", req.ClientID, "error", err.Error())
		} else if !allowed {
			slog.Warn("chat rate limit exceeded", "client_id", req.ClientID, "count", n)
			writeError(w, http.StatusTooManyRequests, "Juda ko'p so'rov. Birozdan keyin urinib ko'ring.")
			return
		}
	}

	a.record(r.Context(), req.ClientID, "chat_message", "")

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	flusher, _ := w.(http.Flusher)

	system := assistant.SystemInstruction(a.settings.Get(r.Context()))
	wrote := false
	err := a.chat.StreamChat(r.Context(), system, req.Messages, func(text string) {
		if _, werr := w.Write([]byte(text)); werr != nil {
			return
		}
		wrote = true
		if flusher != nil {
			flusher.Flush()
		}
	})
	if err != nil && !wrote {
		slog.Error("assistant stream", "error", err.Error())
		_, _ = w.Write([]byte(assistant.FallbackMessage))
	}
}

type activityRequest struct {
	ClientID string `json:"clientId"`
	Event    string `json:"event"`
	Detail   string `json:"detail"`
}

func (a *API) postActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	a.record(r.Context(), req.ClientID, req.Event, req.Detail)
	w.WriteHeader(http.StatusAccepted)
}

func (a *API) refreshCache(w http.ResponseWriter, r *http.Request) {
	if a.cleaner != nil {
		if err := a.cleaner.ClearCache(r.Context()); err != nil {
			slog.Error("clear cache", "error", err.Error())
			writeError(w, http.StatusInternalServerError, "cache error")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

func (a *API) record(ctx context.Context, clientID, event, detail string) {
	if a.telemetry != nil {
		a.telemetry.Record(ctx, clientID, event, detail)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
