package server

import (
	"log"

	"github.com/gofiber/fiber/v2"

	routes "pagedb/server/routes"
)

func Server(addr string) {
	app := fiber.New()

	routes.SetupRoutes(app)

	log.Printf("Fiber listening on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatal(err)
	}
}
