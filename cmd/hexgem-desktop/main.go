// Command hexgem-desktop plays Hex Gem locally in a window.
//
// Drag across touching tiles to spell a word, drag back onto the previous
// tile to undo, release to play it. R restarts, Esc quits.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/hexgem/internal/config"
	"github.com/robalobadob/hexgem/internal/daily"
	"github.com/robalobadob/hexgem/internal/words"
)

var (
	tuningFlag  = flag.String("tuning", "", "YAML tuning file (default: built-in)")
	wordsFlag   = flag.String("words", "", "word list, one per line (default: built-in)")
	dailyFlag   = flag.Bool("daily", false, "play today's daily letters")
	verboseFlag = flag.Bool("verbose", false, "debug logging")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verboseFlag {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	tun, err := config.Load(*tuningFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load tuning")
	}
	dict := words.New()
	dict.Load(*wordsFlag)

	var seed uint64
	mode := modeFree
	if *dailyFlag {
		mode = modeDaily
		seed = daily.Seed(time.Now(), daily.SaltFromEnv())
	}

	app := newApp(tun, dict, mode, seed, openSaves("hexgem"))
	w, h := app.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("Hex Gem")
	if err := ebiten.RunGame(app); err != nil {
		log.Fatal().Err(err).Msg("game exited")
	}
}
