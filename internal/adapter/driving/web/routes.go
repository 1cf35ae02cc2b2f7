package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers all console routes on the provided mux.
// Static assets are served from the embedded filesystem at /static/*.
// Page routes run behind the session middleware.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	withSession := h.sessions.Middleware
	mux.Handle("GET /{$}", http.HandlerFunc(h.Index))
	mux.Handle("GET /settings", withSession(http.HandlerFunc(h.ShowSettings)))
	mux.Handle("POST /settings", withSession(http.HandlerFunc(h.UpdateSettings)))
	mux.Handle("POST /settings/verify-passcode", withSession(http.HandlerFunc(h.VerifyPasscode)))
	mux.Handle("POST /settings/clear-passcode", withSession(http.HandlerFunc(h.ClearPasscode)))
}
