package main

import (
	"flag"
	"fmt"

	"github.com/rs/zerolog"

	"deckhall.com/server/game"
	"deckhall.com/server/logging"
	"deckhall.com/server/rest"
	"deckhall.com/server/template"
	"deckhall.com/server/util"
)

var mainLogger = logging.GetZeroLogger("main", nil)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var templateDir = flag.String("templates", util.ServerEnvironment.GetTemplateDir(), "directory of game template documents")
	var listenAddr = flag.String("listen", util.ServerEnvironment.GetListenAddr(), "address to serve on")
	flag.Parse()

	templates, err := template.LoadDir(*templateDir)
	if err != nil {
		mainLogger.Fatal().Err(err).Msg("Failed to load game templates")
	}
	if len(templates) == 0 {
		mainLogger.Fatal().Msgf("No game templates found in %s", *templateDir)
	}
	for name := range templates {
		mainLogger.Info().Str(logging.TemplateKey, name).Msg("Loaded game template")
	}

	var store game.TableStore
	switch method := util.ServerEnvironment.GetPersistMethod(); method {
	case "memory":
		store = game.NewMemoryTableStore()
	case "redis":
		addr := fmt.Sprintf("%s:%d",
			util.ServerEnvironment.GetRedisHost(),
			util.ServerEnvironment.GetRedisPort())
		store = game.NewRedisTableStore(addr,
			util.ServerEnvironment.GetRedisPW(),
			util.ServerEnvironment.GetRedisDB())
	default:
		mainLogger.Fatal().Msgf("Unsupported persist method: %s", method)
	}

	manager := game.NewManager(templates, store)
	if err := rest.RunRestServer(manager, *listenAddr); err != nil {
		mainLogger.Fatal().Err(err).Msg("REST server exited")
	}
}
