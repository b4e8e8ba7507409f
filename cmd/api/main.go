package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"menuapi/internal/config"
	"menuapi/internal/infra/db"
	"menuapi/internal/infra/logger"
	infraRepo "menuapi/internal/infra/repository"
	"menuapi/internal/server"
	auth "menuapi/internal/usecase/auth_usecase"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
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

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal("connect db", zap.Error(err))
	}
	defer db.Close(gormDB)

	if cfg.AutoMigrate {
		if err := db.MigrateUp(gormDB); err != nil {
			log.Fatal("migrate up", zap.Error(err))
		}
		log.Info("migrations applied")
	}

	//トークン交換用ユーザー
	if cfg.AdminUsername != "" {
		registerUC := auth.NewRegisterUserUsecase(infraRepo.NewUserGormRepository(gormDB), auth.NewBcryptPasswordHasher(12))
		out, err := registerUC.Ensure(context.Background(), auth.RegisterUserInput{
			Username: cfg.AdminUsername,
			Password: cfg.AdminPassword,
		})
		if err != nil {
			log.Fatal("ensure admin user", zap.Error(err))
		}
		log.Info("admin user ready", zap.String("username", out.User.Username), zap.Bool("created", out.Created))
	}

	e := server.New(cfg, log, gormDB)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting http server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
		return
	}
	log.Info("server stopped")
}
