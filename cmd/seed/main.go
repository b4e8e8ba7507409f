package main

import (
	"bytes"
	"context"
	_ "embed"
	"flag"
	"io"
	"net/url"
	"os"

	"menuapi/internal/config"
	"menuapi/internal/identity"
	"menuapi/internal/infra/db"
	"menuapi/internal/infra/logger"
	infraRepo "menuapi/internal/infra/repository"
	"menuapi/internal/seed"
	"menuapi/internal/usecase"
	auth "menuapi/internal/usecase/auth_usecase"

	"go.uber.org/zap"
)

//go:embed products.csv
var defaultCSV []byte

func main() {
	file := flag.String("file", "", "CSV file to load (default: bundled menu)")
	force := flag.Bool("force", false, "seed even if products already exist")
	username := flag.String("username", "", "owner of the seeded products (default: ADMIN_USERNAME)")
	password := flag.String("password", "", "password used when the owner is created (default: ADMIN_PASSWORD)")
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

	if *username == "" {
		*username, *password = cfg.AdminUsername, cfg.AdminPassword
	}
	if *username == "" || *password == "" {
		log.Fatal("-username/-password or ADMIN_USERNAME/ADMIN_PASSWORD are required to seed")
	}

	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal("connect db", zap.Error(err))
	}
	defer db.Close(gormDB)

	ctx := context.Background()

	//作成者になるユーザー
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	owner, err := auth.NewRegisterUserUsecase(userRepo, auth.NewBcryptPasswordHasher(12)).Ensure(ctx, auth.RegisterUserInput{
		Username: *username,
		Password: *password,
	})
	if err != nil {
		log.Fatal("ensure seed user", zap.Error(err))
	}

	productUC := usecase.NewProductUsecase(infraRepo.NewProductGormRepository(gormDB), infraRepo.NewTxManagerGorm(gormDB))

	if !*force {
		existing, err := productUC.ListProducts(ctx, url.Values{"page_size": {"1"}})
		if err != nil {
			log.Fatal("count products", zap.Error(err))
		}
		if existing.Total > 0 {
			log.Info("products already exist, skipping", zap.Int64("count", existing.Total))
			return
		}
	}

	var src io.Reader = bytes.NewReader(defaultCSV)
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			log.Fatal("open csv", zap.Error(err))
		}
		defer f.Close()
		src = f
	}

	ctx = identity.WithIdentity(ctx, identity.Identity{
		UserID:       owner.User.ID,
		Username:     owner.User.Username,
		TokenVersion: owner.User.TokenVersion,
	})
	n, err := seed.Run(ctx, src, productUC)
	if err != nil {
		log.Fatal("seed", zap.Int("created", n), zap.Error(err))
	}
	log.Info("seed applied", zap.Int("created", n))
}
