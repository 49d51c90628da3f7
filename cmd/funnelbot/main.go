package main

import (
	"log"

	"github.com/joho/godotenv"

	corecmd "funnelbot/core/cmd"
	"funnelbot/internal/bot"
)

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return bot.LoadConfig(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return bot.Bootstrap(cfg.(*bot.Config))
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
