package handlers

import (
	"net/http"

	v1chat "github.com/deepgram/courier/internal/api/v1/handlers/chat"
	v1logs "github.com/deepgram/courier/internal/api/v1/handlers/logs"
	v1ws "github.com/deepgram/courier/internal/api/v1/handlers/websocket"
	v1mware "github.com/deepgram/courier/internal/api/v1/middleware"
	"github.com/deepgram/courier/internal/config"
	"github.com/deepgram/courier/internal/connections"
	"github.com/deepgram/courier/internal/responselog"
	"github.com/deepgram/courier/internal/services/oauth"
	"github.com/deepgram/courier/pkg/httpext"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are what the v1 routes serve.
type Dependencies struct {
	ResponseLog responselog.Log
	Asker       v1chat.Asker
	Connections *connections.Manager
	Validator   *oauth.Validator
	RateLimit   config.RateLimitConfig
}

// NewRouter returns the full server router: health and metrics at the root,
// everything else under /v1 behind bearer auth.
func NewRouter(deps Dependencies) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpext.JsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	RegisterV1Routes(router, deps)
	return router
}

func RegisterV1Routes(router *mux.Router, deps Dependencies) {
	v1 := router.PathPrefix("/v1").Subrouter()
	v1.Use(v1mware.RateLimit(deps.RateLimit, "v1"))
	v1.Use(v1mware.RequireAuth(deps.Validator))

	// Response log routes share one subrouter so a wrong method on a known
	// path yields 405. Scopes are checked per route.
	logsRead := v1mware.RequireScope(oauth.ScopeLogsRead)
	logsWrite := v1mware.RequireScope(oauth.ScopeLogsWrite)
	logs := v1.PathPrefix("/logs").Subrouter()
	logs.Handle("", logsRead(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v1logs.HandleList(deps.ResponseLog, w, r)
	}))).Methods("GET")
	logs.Handle("", logsWrite(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v1logs.HandleClearAll(deps.ResponseLog, w, r)
	}))).Methods("DELETE")
	logs.Handle("/{category}", logsRead(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v1logs.HandleGet(deps.ResponseLog, w, r)
	}))).Methods("GET")
	logs.Handle("/{category}", logsWrite(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v1logs.HandleClear(deps.ResponseLog, w, r)
	}))).Methods("DELETE")
	logs.Handle("/{category}/latest", logsRead(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v1logs.HandleLatest(deps.ResponseLog, w, r)
	}))).Methods("GET")

	// Chat routes
	chatScope := v1mware.RequireScope(oauth.ScopeChatWrite)
	v1.Handle("/ask", chatScope(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v1chat.HandleAsk(deps.Asker, w, r)
	}))).Methods("POST")
	v1.Handle("/ws", chatScope(v1ws.NewChatHandler(deps.Asker, deps.Connections))).Methods("GET")
}
