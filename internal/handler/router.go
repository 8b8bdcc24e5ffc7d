package handler

import (
	"log/slog"
	"net/http"

	"notes-publisher/internal/config"
	"notes-publisher/internal/middleware"
	"notes-publisher/pkg/response"

	"github.com/gorilla/mux"
)

func NewRouter(notes *NoteHandler, feed *WebSocketHandler, cors config.CORSConfig, logger *slog.Logger) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware(logger))
	r.Use(middleware.CORSMiddleware(
		cors.AllowedOrigins,
		cors.AllowedMethods,
		cors.AllowedHeaders,
	))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/notes", notes.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/notes", notes.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/notes/{id}", notes.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/notes/{id}/raw", notes.GetRaw).Methods("GET", "OPTIONS")

	if feed != nil {
		r.HandleFunc("/ws", feed.HandleConnection)
	}

	r.HandleFunc("/health", healthHandler).Methods("GET")
	r.HandleFunc("/", rootHandler).Methods("GET")

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]string{"status": "healthy", "service": "notes-publisher"})
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]interface{}{
		"message": "Notes Publisher API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"/api/v1/notes":          "GET, POST",
			"/api/v1/notes/{id}":     "GET",
			"/api/v1/notes/{id}/raw": "GET",
			"/ws":                    "GET (websocket)",
		},
	})
}
