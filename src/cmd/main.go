package main

import (
	"github.com/joho/godotenv"

	cfg "memocal/src/configuration"
	server "memocal/src/server"
)

func main() {
	// A missing .env is fine; real deployments set the environment.
	_ = godotenv.Load()
	config := cfg.ReadProperties()
	server.RunServer(config)
}
