package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/m3rciful/skybot/app"
	"github.com/m3rciful/skybot/core/cmd"
)

func main() {
	// Optional in production; local runs keep secrets in .env.
	_ = godotenv.Load()

	os.Exit(cmd.Run(cmd.Options[*app.Config]{
		ConfigEnvVar:      "SKYBOT_CONFIG",
		DefaultConfigPath: "config.yaml",
		LoadConfig:        app.LoadConfig,
		Run:               app.Run,
	}))
}
