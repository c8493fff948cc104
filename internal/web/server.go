package web

import (
    "net/http"

    "github.com/go-chi/chi/v5"
    "github.com/jaminalder/codex-memory/internal/app"
)

// NewServer wires routes and returns an http.Handler. It installs the board
// renderer used for SSE broadcasts on s.
func NewServer(s *app.Service) http.Handler {
    r := chi.NewRouter()
    h := &handlers{svc: s, tpl: loadTemplates()}
    s.SetRenderer(func(gs app.GameState) []byte { return h.renderBoard(gs, "") })
    r.Get("/", h.index)
    r.Post("/game", h.create)
    r.Route("/game/{id}", func(r chi.Router) {
        r.Get("/", h.view)
        r.Post("/join", h.join)
        r.Post("/select", h.selectTile)
        r.Post("/again", h.again)
        r.Post("/quit", h.quit)
        r.Get("/events", h.events)
    })
    return r
}
