package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"paygate/internal/auth"
	"paygate/internal/config"
	"paygate/internal/logger"
	"paygate/internal/service"
	"paygate/internal/store"
	httptransport "paygate/internal/transport/http"
)

func main() {
	// 1. load config
	cfg, err := config.Load("internal/config/config.yaml")
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}

	// 2. init logger
	log, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		panic(fmt.Errorf("init logger: %w", err))
	}
	defer log.Sync()

	// 3. storage backend
	var st store.Storage
	switch cfg.Storage.Backend {
	case "postgres":
		gdb, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{PrepareStmt: true, TranslateError: true})
		if err != nil {
			log.Fatalf("open postgres: %v", err)
		}
		gs, err := store.NewGormStore(gdb)
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
		st = gs
	default:
		st = store.NewMemoryStore()
	}

	// 4. merchant cache (optional): wraps the backend so deactivation evicts
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Warnf("redis ping: %v, merchant cache disabled", err)
		} else {
			st = store.NewCachedStore(st, store.NewMerchantCache(rdb, 5*time.Minute))
		}
	}

	// 5. services
	settler := service.NewSettler(st, service.NewRandomDecider(), cfg.Settlement.Delay(), log)
	svc := service.NewPaymentService(st, settler, log)
	gw := service.NewGatewayService(st, settler, log)

	// 6. gin router
	tokens := auth.New(cfg.Auth.Secret, cfg.Auth.TokenTTL())
	router := httptransport.NewRouter(svc, gw, tokens, cfg.RateLimit, log)

	// 7. serve
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Infof("paygate-server listening on %s (backend=%s)", addr, cfg.Storage.Backend)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("listen: %v", err)
	}
}
