package main

import (
	"flag"

	"menuapi/internal/config"
	"menuapi/internal/infra/db"
	"menuapi/internal/infra/logger"

	"go.uber.org/zap"
)

func main() {
	down := flag.Bool("down", false, "roll back one migration")
	flag.Parse()

	if err := config.LoadEnvFile(".env", "../.env"); err != nil {
		panic(err)
	}
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal("connect db", zap.Error(err))
	}
	defer db.Close(gormDB)

	if *down {
		if err := db.MigrateDown(gormDB); err != nil {
			log.Fatal("migrate down", zap.Error(err))
		}
		log.Info("rolled back one migration")
		return
	}

	if err := db.MigrateUp(gormDB); err != nil {
		log.Fatal("migrate up", zap.Error(err))
	}
	log.Info("migrations applied")
}
