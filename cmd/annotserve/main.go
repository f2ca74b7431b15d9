// Command annotserve serves a dataset over the read-only review API.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"particle-annotator/internal/app"
	"particle-annotator/internal/config"
	"particle-annotator/internal/logger"
	"particle-annotator/internal/server"
)

func main() {
	configPath := flag.String("config", "", "YAML tuning file")
	datasetPath := flag.String("dataset", "", "Image folder or dataset JSON")
	addr := flag.String("addr", "", "Listen address (overrides the config)")
	flag.Parse()

	if *datasetPath == "" {
		fmt.Println("Usage: annotserve -dataset <folder|file.json> [-config cfg.yaml] [-addr :8080]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	log := logger.Must(cfg.Log.Mode)
	defer log.Sync()

	state, err := app.NewState(cfg, log)
	if err != nil {
		log.Fatal("Failed to create state", zap.Error(err))
	}
	if info, statErr := os.Stat(*datasetPath); statErr == nil && info.IsDir() {
		err = state.OpenFolder(*datasetPath)
	} else {
		err = state.LoadJSON(*datasetPath)
	}
	if err != nil {
		log.Fatal("Failed to open dataset", zap.String("path", *datasetPath), zap.Error(err))
	}

	srv := server.New(state, cfg.Server.PreviewWidth, log.Named("http"))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("Shutting down")
		if err := srv.Shutdown(); err != nil {
			log.Error("Shutdown failed", zap.Error(err))
		}
	}()

	if err := srv.ListenAndServe(cfg.Server.Addr); err != nil {
		log.Fatal("Server stopped", zap.Error(err))
	}
}
