package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"audio-diary/cmd"
	"audio-diary/config"
)

func main() {
	// Missing .env is fine; all configuration has defaults.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	root := cmd.Root(cfg)
	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Send()
	}
}
