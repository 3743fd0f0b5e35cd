package statusapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mesboard/mesboard/console/internal/alerts"
	"github.com/mesboard/mesboard/console/internal/config"
	"github.com/mesboard/mesboard/console/internal/errs"
	"github.com/mesboard/mesboard/console/internal/stream"
	"github.com/mesboard/mesboard/pkg/types"
)

// Handler serves /api/v1 from the console state.
type Handler struct {
	// ctx outlives requests; stream subscriptions are bound to it.
	ctx     context.Context
	console *Console
	now     func() time.Time
}

// New returns a router with every /api/v1 route registered. ctx bounds the
// lifetime of subscriptions opened through the stream endpoints.
func New(ctx context.Context, c *Console, auth config.ListenAuthConfig) *mux.Router {
	h := &Handler{ctx: ctx, console: c, now: time.Now}

	notFound := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusNotFound, "not found")
	})
	notAllowed := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r := mux.NewRouter()
	r.NotFoundHandler = notFound
	r.MethodNotAllowedHandler = notAllowed
	r.Use(Recover, AccessLog)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.NotFoundHandler = notFound
	api.MethodNotAllowedHandler = notAllowed
	api.Use(APIKeyMiddleware(auth.Mode, auth.EffectiveHeader(), auth.Key()))

	api.HandleFunc("/health", h.health).Methods(http.MethodGet)
	api.HandleFunc("/stream", h.streamStatus).Methods(http.MethodGet)
	api.HandleFunc("/stream/connect", h.connect).Methods(http.MethodPost)
	api.HandleFunc("/stream/reconnect", h.reconnect).Methods(http.MethodPost)
	api.HandleFunc("/stream/disconnect", h.disconnect).Methods(http.MethodPost)
	api.HandleFunc("/windows", h.listWindows).Methods(http.MethodGet)
	api.HandleFunc("/windows/{metric}", h.getWindow).Methods(http.MethodGet)
	api.HandleFunc("/board", h.board).Methods(http.MethodGet)
	api.HandleFunc("/alerts", h.alerts).Methods(http.MethodGet)
	api.HandleFunc("/snapshot", h.snapshot).Methods(http.MethodGet)

	return r
}

// --- route handlers ---------------------------------------------------------

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	st := h.console.Stream.Status()
	pollErrs := pollErrors(h.console.Poller)
	active := activeAlerts(h.console.Alerts)

	firing := 0
	for _, a := range active {
		if a.State == alerts.StateFiring {
			firing++
		}
	}
	boardFields := 0
	if h.console.Board != nil {
		boardFields = len(h.console.Board.List())
	}

	hints := computeDiagnostics(st, pollErrs, active, h.now())
	jsonResp(w, http.StatusOK, HealthResponse{
		State:       healthState(hints),
		Stream:      st,
		BoardFields: boardFields,
		PollErrors:  pollErrs,
		AlertCount:  len(active),
		FiringCount: firing,
		Diagnostics: hints,
	})
}

func (h *Handler) streamStatus(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, h.console.Stream.Status())
}

func (h *Handler) connect(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if err := h.console.Stream.Connect(h.ctx, key); err != nil {
		writeError(w, err)
		return
	}
	jsonResp(w, http.StatusAccepted, h.console.Stream.Status())
}

func (h *Handler) reconnect(w http.ResponseWriter, _ *http.Request) {
	if err := h.console.Stream.Reconnect(h.ctx); err != nil {
		writeError(w, err)
		return
	}
	jsonResp(w, http.StatusAccepted, h.console.Stream.Status())
}

func (h *Handler) disconnect(w http.ResponseWriter, _ *http.Request) {
	h.console.Stream.Disconnect()
	jsonResp(w, http.StatusOK, h.console.Stream.Status())
}

func (h *Handler) listWindows(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, windows(h.console.Stream))
}

func (h *Handler) getWindow(w http.ResponseWriter, r *http.Request) {
	name, err := types.ParseMetricName(mux.Vars(r)["metric"])
	if err != nil {
		jsonErr(w, http.StatusNotFound, "unknown metric")
		return
	}
	samples := h.console.Stream.Window(name)
	if samples == nil {
		samples = []stream.Sample{}
	}
	jsonResp(w, http.StatusOK, WindowResponse{Metric: string(name), Samples: samples})
}

func (h *Handler) board(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, boardFields(h.console.Board))
}

func (h *Handler) alerts(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, activeAlerts(h.console.Alerts))
}

func (h *Handler) snapshot(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, BuildSnapshot(h.console))
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// writeError maps an errs kind to an HTTP status.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		jsonErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrConnection):
		jsonErr(w, http.StatusBadGateway, err.Error())
	default:
		jsonErr(w, http.StatusInternalServerError, err.Error())
	}
}
