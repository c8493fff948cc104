// Command memory serves the memory card game over HTTP.
package main

import (
    "context"
    "errors"
    "flag"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/jaminalder/codex-memory/internal/app"
    "github.com/jaminalder/codex-memory/internal/config"
    "github.com/jaminalder/codex-memory/internal/domain"
    "github.com/jaminalder/codex-memory/internal/web"
    "k8s.io/klog/v2"
)

func main() {
    klog.InitFlags(nil)
    defer klog.Flush()

    if err := config.LoadDotEnv(); err != nil {
        klog.Warningf("%v", err)
    }
    cfg := config.Register(flag.CommandLine, os.Getenv)
    flag.Parse()

    if err := cfg.Validate(); err != nil {
        klog.Fatalf("invalid configuration: %v", err)
    }
    // A deck that cannot form a grid must stop the game from starting.
    deck := domain.NewDeckFromNames(cfg.DeckName, cfg.Cards)
    board, err := domain.NewBoard(deck)
    if err != nil {
        klog.Fatalf("invalid deck: %v", err)
    }
    klog.Infof("deck %s (%dx%d)", deck, board.Rows(), board.Cols())

    svc, err := app.NewService(app.Options{
        DeckName:      cfg.DeckName,
        Cards:         cfg.Cards,
        EvalDelay:     cfg.EvalDelay,
        MismatchDelay: cfg.MismatchDelay,
        Seed:          cfg.Seed,
    })
    if err != nil {
        klog.Fatalf("failed to initialize service: %v", err)
    }

    srv := &http.Server{
        Addr:              cfg.Addr,
        Handler:           web.NewServer(svc),
        ReadHeaderTimeout: 10 * time.Second,
    }

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    go func() {
        klog.Infof("listening on %s", cfg.Addr)
        if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            klog.Fatalf("server error: %v", err)
        }
    }()

    <-ctx.Done()
    klog.Info("shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := srv.Shutdown(shutdownCtx); err != nil {
        klog.Errorf("shutdown: %v", err)
    }
}
