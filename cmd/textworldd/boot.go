package main

import (
	"fmt"

	"textworld/internal/config"
	"textworld/internal/logging"
	"textworld/internal/script"
	"textworld/internal/store"
	"textworld/internal/world"
)

const configFileName = "textworld.yaml"

// loadConfig reads textworld.yaml from the working directory, applying
// --data-dir as an override of whatever the file (or its defaults) says.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFileName)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if err := logging.Initialize(cfg.DataDir, cfg.LoggingConfigFor()); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	return cfg, nil
}

// openWorld opens the store and loads the world, bootstrapping a single
// spawn room the very first time the database is empty.
func openWorld(cfg *config.Config) (*store.Store, *world.World, *script.Host, error) {
	st, err := store.Open(cfg.StorePath())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}

	w, scripts, err := st.Load()
	if err != nil {
		st.Close()
		return nil, nil, nil, fmt.Errorf("load world: %w", err)
	}

	host := script.NewHost()
	for name, src := range scripts {
		if err := host.Compile(name, src); err != nil {
			logging.Get(logging.CategoryBoot).Warn("recompile %s on load: %v", name, err)
		}
	}

	if w.SpawnRoom == 0 {
		room := w.CreateRoom("You are standing at the crossroads where this world begins.")
		w.SetSpawnRoom(room)
		logging.Get(logging.CategoryBoot).Info("bootstrapped empty world with spawn room %s", room)
	}

	return st, w, host, nil
}
