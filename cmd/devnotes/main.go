// Command devnotes runs the blog content API server. All configuration
// comes from environment variables; a .env file is loaded when present.
package main

import (
	"log"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/eringen/devnotes"
)

func main() {
	_ = godotenv.Load()

	var cfg devnotes.SiteConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("devnotes: parse config: %v", err)
	}

	app := devnotes.New(cfg)
	defer app.Close()

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
