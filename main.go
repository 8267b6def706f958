package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/hexgem/assets"
	"github.com/robalobadob/hexgem/internal/config"
	"github.com/robalobadob/hexgem/internal/httpserver"
	"github.com/robalobadob/hexgem/internal/store"
	"github.com/robalobadob/hexgem/internal/words"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if getEnv("LOG_FORMAT", "") == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	tun, err := config.Load(os.Getenv("HEXGEM_TUNING"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load tuning")
	}

	// Loads in the background; games started before it finishes reject every word.
	dict := words.New()
	dict.Load(os.Getenv("WORDS_FILE"))

	db, err := openDB(getEnv("DB_PATH", "./data/hexgem.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	defer db.Close()
	migrations, err := assets.Migrations()
	if err != nil {
		log.Fatal().Err(err).Msg("load migrations")
	}
	if _, err := migrate(db, migrations); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mem := store.NewMemoryStore()
	idle, err := time.ParseDuration(getEnv("ROOM_IDLE_TIMEOUT", "10m"))
	if err != nil {
		log.Fatal().Err(err).Msg("bad ROOM_IDLE_TIMEOUT")
	}
	go mem.RunReaper(ctx, time.Minute, idle)

	srv := httpserver.New(mem, db, dict, tun)
	port := getEnv("PORT", "5175")
	hs := &http.Server{Addr: ":" + port, Handler: srv.Router()}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdown)
	}()

	log.Info().Str("port", port).Msg("starting hexgem server")
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
	mem.Close()
	log.Info().Msg("bye")
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
