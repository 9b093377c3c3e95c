package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/mogaika/model_viewer/config"
	"github.com/mogaika/model_viewer/math3d"
	"github.com/mogaika/model_viewer/status"
	"github.com/mogaika/model_viewer/utils"
	"github.com/mogaika/model_viewer/viewer"
	"github.com/mogaika/model_viewer/web"
)

func main() {
	var configPath, addr, model, webPath string
	var fps int
	var watch, dump, verbose bool
	flag.StringVar(&configPath, "c", "", "Path to viewer.yaml")
	flag.StringVar(&addr, "i", "", "Address of server")
	flag.StringVar(&model, "model", "", "Model to show (.json, .gltf, .glb)")
	flag.StringVar(&webPath, "web", "", "Path to web client folder")
	flag.IntVar(&fps, "fps", 0, "Frames per second")
	flag.BoolVar(&watch, "watch", false, "Reload the model when the file changes")
	flag.BoolVar(&dump, "dump", false, "Dump the loaded scene to the log")
	flag.BoolVar(&verbose, "v", false, "Log math diagnostics")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			log.Fatal(err)
		}
	}

	// flags override the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			cfg.Listen = addr
		case "model":
			cfg.Model = model
		case "web":
			cfg.Web = webPath
		case "fps":
			cfg.FPS = fps
		case "watch":
			cfg.Watch = watch
		}
	})

	if verbose {
		math3d.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	} else {
		math3d.SetLogger(slog.Default())
	}

	hub := status.NewHub()
	v, err := viewer.New(cfg, hub)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Model != "" {
		if err := v.Load(cfg.Model); err != nil {
			log.Fatal(err)
		}
		if dump {
			scene, _ := v.SceneView()
			utils.LogDump(scene)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return v.Run(ctx) })
	g.Go(func() error { return web.StartServer(ctx, cfg.Listen, web.NewRouter(v, hub, cfg.Web)) })
	if cfg.Watch && cfg.Model != "" {
		g.Go(func() error { return v.Watch(ctx, cfg.Model) })
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Fatal(err)
	}
	hub.Close()
}
