package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/civicjose/intranet-sub000/config"
	"github.com/civicjose/intranet-sub000/internal/authapi"
	"github.com/civicjose/intranet-sub000/internal/db"
	"github.com/civicjose/intranet-sub000/internal/health"
	"github.com/civicjose/intranet-sub000/internal/identity"
	"github.com/civicjose/intranet-sub000/internal/logs"
	"github.com/civicjose/intranet-sub000/internal/middleware"
	"github.com/civicjose/intranet-sub000/internal/models"
	"github.com/civicjose/intranet-sub000/internal/repo"
	"github.com/civicjose/intranet-sub000/internal/session"
)

type App struct {
	cfg        *config.Config
	db         *gorm.DB
	Router     *mux.Router
	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

func (a *App) Initialize(cfg *config.Config) {
	a.cfg = cfg

	/* 1) Логи */
	logs.Init(logs.Options{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		File:   a.cfg.Logging.File,
	})

	/* 2) DB (опционально — без БД работают in-memory хранилища) */
	if drv := a.cfg.Database.Driver; drv != "" {
		d, err := db.Open(drv, a.cfg.Database.DSN)
		if err != nil {
			log.Fatalf("db open failed: %v", err)
		}
		a.db = d

		if err := a.db.AutoMigrate(&models.User{}, &models.AllowedDomain{}); err != nil {
			log.Fatalf("db migrate failed: %v", err)
		}
	}

	users, domains := a.newStores()
	if err := domains.Seed(context.Background(), a.cfg.Domains.Allowed); err != nil {
		log.Fatalf("domain allow-list seed failed: %v", err)
	}

	sm := session.NewManager(a.cfg.Auth.JWTSecret, a.cfg.Auth.SessionTTL)
	svc := identity.New(users, domains, a.newMailer(),
		sm, a.cfg.Auth.CodeTTL, a.cfg.Auth.InviteTTL, a.cfg.SMTP.BaseURL)

	/* 3) Router + middleware */
	a.Router = mux.NewRouter().StrictSlash(true)
	a.Router.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.LoggerMW,
	)

	/* 4) Health */
	if a.db != nil {
		health.RegisterRoutesWithDB(a.Router, a.db) // /healthz, /readyz
	} else {
		health.RegisterRoutes(a.Router) // только /healthz
	}

	/* 5) Auth API + защищённый /api за Session Guard */
	authapi.RegisterRoutes(a.Router, authapi.NewHandler(svc), sm, users)

	/* (необязательно) вывести известные маршруты в лог при старте */
	_ = a.Router.Walk(func(rt *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, _ := rt.GetPathTemplate()
		methods, _ := rt.GetMethods()
		if len(methods) == 0 {
			methods = []string{"ANY"}
		}
		log.Printf("route: %-6v %s", methods, path)
		return nil
	})
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return fmt.Errorf("server not initialized")
	}

	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigs
		logs.Logger.Infof("shutdown signal: %s", s)
		a.cancel()
	}()

	// Жёсткие таймауты — это важно для production
	a.httpServer = &http.Server{
		Addr:              bind,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logs.Logger.Infof("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logs.Logger.Fatalf("http server error: %v", err)
		}
	}()

	<-a.ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logs.Logger.Errorf("http shutdown: %v", err)
	}
	return nil
}

// newStores выбирает реализацию хранилищ: gorm при настроенной БД,
// иначе — in-memory (dev-режим, данные живут до рестарта).
func (a *App) newStores() (identity.UserStore, seedableDomains) {
	if a.db != nil {
		return repo.NewUserStore(a.db), repo.NewDomainStore(a.db)
	}
	return repo.NewMemUserStore(), repo.NewMemDomainStore()
}

type seedableDomains interface {
	identity.DomainStore
	Seed(ctx context.Context, domains []string) error
}
