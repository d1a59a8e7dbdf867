package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/hldang/stockpile/config"
	"github.com/hldang/stockpile/http/controller"
	routes "github.com/hldang/stockpile/http/route"
	infraPkg "github.com/hldang/stockpile/infra"
	"github.com/hldang/stockpile/repository"
)

func main() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	infra := infraPkg.InitInfra(cfg)
	defer infra.Logger.Shutdown(context.Background())

	repo := repository.InitRepository(infra)

	ctrl := controller.NewController(cfg, infra, repo)

	router := routes.SetupRouter(ctrl)

	log.Println("HTTP Server started on :8080")
	if err := router.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
