package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/df07/go-progressive-pathtracer/pkg/log"
	"github.com/df07/go-progressive-pathtracer/web/server"
	"github.com/urfave/cli"
)

// Serve renders a scene in the background and exposes it through the HTTP preview API
func Serve(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}

	config := server.DefaultConfig()
	config.ScenesDir = ctx.String("dir")
	srv, err := server.NewServer(sc, renderConfig(ctx, sc), config, log.New("server"))
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		if err := srv.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Errorf("render loop stopped: %v", err)
		}
	}()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Start(fmt.Sprintf(":%d", ctx.Int("port"))) }()

	select {
	case err := <-serveErr:
		stop()
		_ = srv.Shutdown(context.Background())
		return err
	case <-runCtx.Done():
	}

	logger.Notice("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
