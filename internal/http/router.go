package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router wraps the standard library ServeMux.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// methods routes by HTTP method and answers 405 otherwise.
func methods(handlers map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		h, ok := handlers[req.Method]
		if !ok {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

// RegisterGaitRoutes registers the analysis API.
func (r *Router) RegisterGaitRoutes(g *GaitHandler) {
	r.Handle("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok("ok"))
	})
	r.Handle("/api/v1/status", methods(map[string]http.HandlerFunc{http.MethodGet: g.GetStatus}))
	r.Handle("/api/v1/samples", methods(map[string]http.HandlerFunc{http.MethodPost: g.PostSamples}))
	r.Handle("/api/v1/analysis/latest", methods(map[string]http.HandlerFunc{http.MethodGet: g.GetLatest}))
	r.Handle("/api/v1/history", methods(map[string]http.HandlerFunc{http.MethodGet: g.GetHistory}))
	r.Handle("/api/v1/sessions/complete", methods(map[string]http.HandlerFunc{http.MethodPost: g.PostCompleteSession}))
	r.Handle("/api/v1/profile", methods(map[string]http.HandlerFunc{
		http.MethodGet: g.GetProfile,
		http.MethodPut: g.PutProfile,
	}))
}

// RegisterWebSocketRoutes registers the live update stream.
func (r *Router) RegisterWebSocketRoutes(h *Hub) {
	r.Handle("/ws/analysis", h.HandleWebSocket)
}
