package web

import (
    "bytes"
    "html/template"
    "net/http"

    "github.com/google/uuid"
    "github.com/jaminalder/codex-memory/internal/app"
    "github.com/jaminalder/codex-memory/internal/domain"
)

type templates struct {
    game  *template.Template
    board *template.Template
    index *template.Template
}

func funcs() template.FuncMap {
    return template.FuncMap{
        "stateClass": func(s domain.TileState) string { return s.String() },
    }
}

func loadTemplates() *templates {
    base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
<style>
.row{display:flex}.tile{width:6em;height:6em;margin:2px}
.hidden{background:#446}.revealed{background:#fd6}.matched{background:#6c6}
</style>
</head><body>{{template "content" .}}</body></html>`))
    template.Must(base.New("board").Funcs(funcs()).Parse(boardTemplate))
    index := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>Memory</h1><form action="/game" method="post"><button>New game</button></form>`))
    game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<h1>Memory: {{.Deck}}</h1>
<div hx-ext="sse" sse-connect="/game/{{.ID}}/events">
  <div sse-swap="board" hx-swap="outerHTML" hx-target="#board">{{.BoardHTML}}</div>
</div>`))
    // Standalone board template used for fragment rendering
    board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
    return &templates{game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
    var buf bytes.Buffer
    if name == "" {
        _ = t.Execute(&buf, data)
    } else {
        _ = t.ExecuteTemplate(&buf, name, data)
    }
    return buf.Bytes()
}

const boardTemplate = `
<div id="board">
  {{if .Error}}<div class="alert">{{.Error}}</div>{{end}}
  {{if .Message}}<div class="message">{{.Message}}</div>{{end}}
  <div class="tries">Tries: {{.Tries}}</div>
  {{range .Rows}}
  <div class="row">
    {{range .}}
      <form hx-post="/game/{{$.ID}}/select" hx-target="#board" hx-swap="outerHTML" method="post">
        <input type="hidden" name="r" value="{{.Row}}">
        <input type="hidden" name="c" value="{{.Col}}">
        <button class="tile {{stateClass .State}}" type="submit"{{if not .Selectable}} disabled{{end}}>{{.Label}}</button>
      </form>
    {{end}}
  </div>
  {{end}}
  {{if .Won}}
  <form hx-post="/game/{{.ID}}/again" hx-target="#board" hx-swap="outerHTML" method="post"><button>Play again</button></form>
  <form hx-post="/game/{{.ID}}/quit" method="post"><button>Quit</button></form>
  {{end}}
</div>
`

// Data models for templates
type tileData struct {
    Row        int
    Col        int
    State      domain.TileState
    Label      string
    Selectable bool
}

type boardData struct {
    ID      string
    Error   string
    Message string
    Tries   int
    Won     bool
    Rows    [][]tileData
}

// newBoardData lays the snapshot out by row. Hidden tiles carry no label so
// the page never leaks card names.
func newBoardData(gs app.GameState, errMsg string) boardData {
    v := gs.View
    d := boardData{ID: gs.ID, Error: errMsg, Message: gs.Message, Tries: v.TotalTries, Won: v.Won}
    d.Rows = make([][]tileData, v.Rows)
    for _, t := range v.Tiles {
        td := tileData{Row: t.Row, Col: t.Col, State: t.State}
        if t.State != domain.Hidden {
            td.Label = t.Card.Name
        }
        td.Selectable = v.InputEnabled && t.State == domain.Hidden
        d.Rows[t.Row] = append(d.Rows[t.Row], td)
    }
    return d
}

// Helper to set cookie
func ensurePlayerCookie(w http.ResponseWriter, r *http.Request) string {
    if c, err := r.Cookie("player_id"); err == nil && c.Value != "" {
        return c.Value
    }
    // Generate UUIDv4 for player ID
    v := uuid.NewString()
    http.SetCookie(w, &http.Cookie{Name: "player_id", Value: v, Path: "/"})
    return v
}
