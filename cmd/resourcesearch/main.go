package main

import (
	"log"

	"github.com/4lexxe/DevsProject-sub004/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("resourcesearch failed to start: %v", err)
	}
}
