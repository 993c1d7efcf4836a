package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"santacall/app/client/elevenlabs"
	"santacall/app/client/openai"
	"santacall/app/config"
	"santacall/app/service/bridge"
	"santacall/app/service/call"
	"santacall/app/service/persist"
	"santacall/app/service/proxy"
	"santacall/app/service/queue"
	"santacall/app/service/settings"
	"santacall/app/service/vendor"
	"santacall/app/util/mylog"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
	"github.com/samber/do"
)

func main() {
	_ = godotenv.Load()

	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, openai.NewClient)
	do.Provide(di, elevenlabs.NewClient)
	do.Provide(di, settings.New)
	do.Provide(di, vendor.New)
	do.Provide(di, persist.New)
	do.Provide(di, queue.New)
	do.Provide(di, bridge.New)
	do.Provide(di, call.New)
	do.Provide(di, proxy.New)

	slog.Info("Service started")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	go do.MustInvoke[*call.Service](di).Run(appCtx)

	go func() {
		if err := do.MustInvoke[*proxy.Service](di).Run(); err != nil {
			log.Errorf("proxy server failed: %v", err)
			cancel()
		}
	}()

	<-appCtx.Done()
}
