// Package main provides the entry point for the Particle Annotator application.
package main

import (
	"flag"
	"os"
	"time"

	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
	"go.uber.org/zap"

	"particle-annotator/internal/app"
	"particle-annotator/internal/config"
	"particle-annotator/internal/logger"
	"particle-annotator/internal/version"
	"particle-annotator/ui/mainwindow"
	"particle-annotator/ui/prefs"
)

func main() {
	configPath := flag.String("config", "", "YAML tuning file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Must("dev").Fatal("Failed to load config", zap.Error(err))
	}
	log := logger.Must(cfg.Log.Mode)
	defer log.Sync()
	log.Info("Starting", zap.String("version", version.String()))

	state, err := app.NewState(cfg, log)
	if err != nil {
		log.Fatal("Failed to create state", zap.Error(err))
	}

	fyneApp := fyneapp.NewWithID("io.github.particle-annotator")
	fyneApp.Settings().SetTheme(app.NewTheme())

	win := mainwindow.New(fyneApp, state, prefs.Load(), log.Named("ui"))

	// A folder or a dataset file may be given on the command line
	if flag.NArg() > 0 {
		path := flag.Arg(0)
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			err = state.OpenFolder(path)
		} else {
			err = state.LoadJSON(path)
		}
		if err != nil {
			log.Error("Failed to open", zap.String("path", path), zap.Error(err))
		}
	}

	setupHotReload(win, log)

	win.ShowAndRun()
}

// setupHotReload offers a restart when the binary is recompiled.
func setupHotReload(win *mainwindow.MainWindow, log *zap.Logger) {
	reloader := app.NewHotReloader(2 * time.Second)
	if reloader == nil {
		log.Debug("Hot reload: unable to determine executable path")
		return
	}

	log.Debug("Hot reload: watching",
		zap.String("path", reloader.Path()),
		zap.Time("modified", reloader.Baseline()))

	reloader.OnChange(func() {
		win.SavePreferencesIfChanged()
		log.Info("Hot reload: newer binary detected")
		dialog.ShowConfirm("New Version Available",
			"The application binary has been updated.\nRestart now?",
			func(ok bool) {
				if !ok {
					reloader.ResetBaseline()
					reloader.Start()
					return
				}
				win.SavePreferences()
				log.Info("Hot reload: restarting")
				if err := app.RestartProcess(reloader.Path()); err != nil {
					log.Error("Hot reload: restart failed", zap.Error(err))
				}
			}, win.Window)
	})

	reloader.Start()
}
