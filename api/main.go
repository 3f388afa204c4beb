// @title c-transfer
// @version 0.1
// @description Access-code-gated ephemeral message and file relay.

// @host localhost:8000
// @BasePath /
// @query.collection.format multi
// @schemes http

package main

import (
	"log"

	_ "github.com/EDWINCHENC/c-transfer-unique/docs"
	"github.com/EDWINCHENC/c-transfer-unique/internal/app"
	"github.com/EDWINCHENC/c-transfer-unique/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	app.Run(cfg)
}
