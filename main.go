package main

import (
	"log"

	"github.com/civicjose/intranet-sub000/config"
	"github.com/civicjose/intranet-sub000/server"
)

func main() {
	cfg := config.MustLoad()
	app := &server.App{}
	app.Initialize(cfg)
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
