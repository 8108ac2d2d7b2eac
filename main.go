package main

import (
	"flag"
	"image"
	"io"
	"os"

	"github.com/automoto/doomerang-fuse/config"
	"github.com/automoto/doomerang-fuse/network"
	"github.com/automoto/doomerang-fuse/scenes"
	"github.com/automoto/doomerang-fuse/shared/protocol"
	"github.com/automoto/doomerang-fuse/systems"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const appName = "doomerang-fuse"

type Scene interface {
	Update()
	Draw(screen *ebiten.Image)
	Close()
}

type Game struct {
	bounds image.Rectangle
	scene  Scene
}

func (g *Game) Update() error {
	g.scene.Update()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.scene.Draw(screen)
}

func (g *Game) Layout(width, height int) (int, int) {
	g.bounds = image.Rect(0, 0, config.C.Width, config.C.Height)
	return config.C.Width, config.C.Height
}

func main() {
	tuningPath := flag.String("tuning", "fuse.yaml", "YAML tuning overrides (missing file = defaults)")
	connect := flag.String("connect", "", "Bomb server address host:port (empty = local arena)")
	version := flag.String("version", "", "Client version sent when joining a server")
	playerName := flag.String("name", "player", "Player name sent when joining a server")
	debug := flag.Bool("debug", false, "Debug logging and collision outlines")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		config.Debug.ShowBodies = true
	}

	if err := config.LoadOverrides(*tuningPath); err != nil {
		log.Fatal().Err(err).Str("path", *tuningPath).Msg("invalid tuning file")
	}

	// Register network components for client-side deserialization
	if err := protocol.RegisterComponents(); err != nil {
		log.Fatal().Err(err).Msg("failed to register network components")
	}

	store, err := systems.OpenStore(appName, log.Logger.With().Str("component", "store").Logger())
	if err != nil {
		log.Warn().Err(err).Msg("could not initialize persistence")
	}

	audio := systems.NewEbitenAudio(log.Logger.With().Str("component", "audio").Logger())

	ebiten.SetWindowSize(config.C.Width*2, config.C.Height*2)
	ebiten.SetWindowTitle("Doomerang Fuse")
	ebiten.SetTPS(config.C.TPS)

	g := &Game{}
	if *connect != "" {
		client := network.NewClient(log.Logger.With().Str("component", "network").Logger())
		client.Connect(*connect, *version, *playerName)
		g.scene = scenes.NewNetworkedScene(client, store, audio, log.Logger.With().Str("component", "scene").Logger())
	} else {
		g.scene = scenes.NewArenaScene(store, audio, log.Logger.With().Str("component", "scene").Logger())
	}

	if code := shutdown(g.scene, audio, ebiten.RunGame(g), log.Logger); code != 0 {
		os.Exit(code)
	}
}

// shutdown releases the scene and audio on every exit path and returns the
// process exit code.
func shutdown(scene Scene, audio io.Closer, runErr error, logger zerolog.Logger) int {
	scene.Close()
	if err := audio.Close(); err != nil {
		logger.Warn().Err(err).Msg("could not close audio")
	}
	if runErr != nil {
		logger.Error().Err(runErr).Msg("game exited with error")
		return 1
	}
	return 0
}
