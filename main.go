package main

import (
	"github.com/cppla/greenwall/config"
	"github.com/cppla/greenwall/models"
	"github.com/cppla/greenwall/routes"
	"github.com/cppla/greenwall/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.Note{}, &models.PunchRecord{})

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s", cfg.AppPort)
	if err := utils.RunServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
