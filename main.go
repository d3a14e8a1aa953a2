package main

import (
	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/gatherhub/gatherhub-api/cmd/app"
)

// @contact.name   GatherHub
// @contact.url    https://github.com/gatherhub/gatherhub-api
//
// @license.name  MIT
//
// @securityDefinitions.apikey AdminSecret
// @in header
// @name X-Admin-Secret
// @description Shared admin secret
func main() {
	if err := app.Start(); err != nil {
		panic(err)
	}
}
