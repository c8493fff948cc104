package web

import (
    "io"
    "net/http"
    "net/http/httptest"
    "net/url"
    "strconv"
    "strings"
    "testing"

    "github.com/jaminalder/codex-memory/internal/app"
    "github.com/jaminalder/codex-memory/internal/domain"
)

func newTestServer(t *testing.T) (*app.Service, http.Handler) {
    t.Helper()
    s, err := app.NewService(app.Options{DeckName: "Animals", Cards: []string{"Dog", "Cat"}, Seed: 3})
    if err != nil {
        t.Fatalf("NewService: %v", err)
    }
    h := NewServer(s)
    return s, h
}

func post(h http.Handler, path string, form url.Values, pid string) *httptest.ResponseRecorder {
    req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
    req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
    if pid != "" {
        req.AddCookie(&http.Cookie{Name: "player_id", Value: pid})
    }
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    return rr
}

func TestIndexPage(t *testing.T) {
    _, h := newTestServer(t)
    req := httptest.NewRequest("GET", "/", nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    body := rr.Body.String()
    if !strings.Contains(body, "<form") || !strings.Contains(body, "action=\"/game\"") {
        t.Fatalf("index should contain create form; got body: %q", body)
    }
}

func TestCreateRedirectsToGame(t *testing.T) {
    _, h := newTestServer(t)
    req := httptest.NewRequest("POST", "/game", nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusSeeOther && rr.Code != http.StatusFound {
        t.Fatalf("expected redirect, got %d", rr.Code)
    }
    loc := rr.Result().Header.Get("Location")
    if !strings.HasPrefix(loc, "/game/") {
        t.Fatalf("expected redirect to /game/{id}, got %q", loc)
    }
}

func TestGamePageSetsCookieAndAutoClaims(t *testing.T) {
    svc, h := newTestServer(t)
    gs, _ := svc.CreateGame()

    req := httptest.NewRequest("GET", "/game/"+url.PathEscape(gs.ID), nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    var playerID string
    for _, c := range rr.Result().Cookies() {
        if c.Name == "player_id" {
            playerID = c.Value
            break
        }
    }
    if playerID == "" {
        t.Fatalf("expected player_id cookie to be set")
    }
    latest, ok := svc.Get(gs.ID)
    if !ok || latest.Owner != playerID {
        t.Fatalf("expected auto-claim; owner=%q pid=%q", latest.Owner, playerID)
    }
    body := rr.Body.String()
    if !strings.Contains(body, "hx-ext=\"sse\"") || !strings.Contains(body, "/game/"+gs.ID+"/events") {
        t.Fatalf("expected SSE wiring in page; got body: %q", body)
    }
    if !strings.Contains(body, "id=\"board\"") {
        t.Fatalf("expected embedded board; got body: %q", body)
    }
}

func TestHiddenTilesDoNotLeakNames(t *testing.T) {
    svc, h := newTestServer(t)
    gs, _ := svc.CreateGame()
    rr := post(h, "/game/"+gs.ID+"/join", url.Values{}, "p1")
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    body := rr.Body.String()
    if strings.Contains(body, "Dog") || strings.Contains(body, "Cat") {
        t.Fatalf("hidden board should not contain card names: %q", body)
    }
}

func TestSelectEndpointRevealsTile(t *testing.T) {
    svc, h := newTestServer(t)
    gs, _ := svc.CreateGame()
    svc.Join(gs.ID, "p1")

    rr := post(h, "/game/"+gs.ID+"/select", url.Values{"r": {"0"}, "c": {"0"}}, "p1")
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    if !strings.Contains(rr.Body.String(), "id=\"board\"") {
        t.Fatalf("expected board fragment, got %q", rr.Body.String())
    }
    latest, _ := svc.Get(gs.ID)
    tile := latest.View.Tiles[0]
    if tile.State != domain.Revealed {
        t.Fatalf("expected tile revealed, got %v", tile.State)
    }
    if !strings.Contains(rr.Body.String(), tile.Card.Name) {
        t.Fatalf("revealed tile should show its name %q", tile.Card.Name)
    }
}

func TestSelectBySpectatorShowsError(t *testing.T) {
    svc, h := newTestServer(t)
    gs, _ := svc.CreateGame()
    svc.Join(gs.ID, "p1")

    rr := post(h, "/game/"+gs.ID+"/select", url.Values{"r": {"0"}, "c": {"0"}}, "p2")
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    if !strings.Contains(rr.Body.String(), "You are a spectator") {
        t.Fatalf("expected spectator message, got %q", rr.Body.String())
    }
    latest, _ := svc.Get(gs.ID)
    if latest.View.Tiles[0].State != domain.Hidden {
        t.Fatalf("spectator must not reveal tiles")
    }
}

func TestSelectGarbageIsIgnored(t *testing.T) {
    svc, h := newTestServer(t)
    gs, _ := svc.CreateGame()
    svc.Join(gs.ID, "p1")
    rr := post(h, "/game/"+gs.ID+"/select", url.Values{"r": {"x"}, "c": {"0"}}, "p1")
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    latest, _ := svc.Get(gs.ID)
    if len(latest.View.Selection) != 0 {
        t.Fatalf("garbage input should not select a tile")
    }
}

func TestWinShowsPlayAgainAndQuit(t *testing.T) {
    svc, h := newTestServer(t)
    gs, _ := svc.CreateGame()
    svc.Join(gs.ID, "p1")

    byName := map[string][]domain.Position{}
    for _, tl := range gs.View.Tiles {
        byName[tl.Card.Name] = append(byName[tl.Card.Name], tl.Pos())
    }
    var rr *httptest.ResponseRecorder
    for _, ps := range byName {
        for _, p := range ps {
            rr = post(h, "/game/"+gs.ID+"/select", url.Values{"r": {strconv.Itoa(p.Row)}, "c": {strconv.Itoa(p.Col)}}, "p1")
        }
    }
    body := rr.Body.String()
    if !strings.Contains(body, "You won in 2 tries!") || !strings.Contains(body, "/again") {
        t.Fatalf("expected win message and play again form, got %q", body)
    }

    rr = post(h, "/game/"+gs.ID+"/again", url.Values{}, "p1")
    if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Tries: 0") {
        t.Fatalf("expected fresh board after play again, got %d %q", rr.Code, rr.Body.String())
    }

    rr = post(h, "/game/"+gs.ID+"/quit", url.Values{}, "p1")
    if rr.Code != http.StatusSeeOther || rr.Result().Header.Get("Location") != "/" {
        t.Fatalf("expected redirect home after quit, got %d", rr.Code)
    }
    if _, ok := svc.Get(gs.ID); ok {
        t.Fatalf("game should be gone after quit")
    }
}

func TestQuitUnknownGameNotFound(t *testing.T) {
    _, h := newTestServer(t)
    rr := post(h, "/game/missing/quit", url.Values{}, "p1")
    if rr.Code != http.StatusNotFound {
        t.Fatalf("expected 404, got %d", rr.Code)
    }
}

func TestEventsEndpointSSEHeaders(t *testing.T) {
    _, h := newTestServer(t)
    reqCreate := httptest.NewRequest("POST", "/game", nil)
    rrCreate := httptest.NewRecorder()
    h.ServeHTTP(rrCreate, reqCreate)
    loc := rrCreate.Result().Header.Get("Location")
    if loc == "" {
        t.Fatalf("missing redirect location")
    }
    req := httptest.NewRequest("GET", loc+"/events", nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    ct := rr.Result().Header.Get("Content-Type")
    if !strings.HasPrefix(ct, "text/event-stream") {
        io.Copy(io.Discard, rr.Result().Body)
        t.Fatalf("expected text/event-stream, got %q", ct)
    }
}
