package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/safe4law/safe4law/internal/pkg/authz"
	"github.com/safe4law/safe4law/internal/pkg/clock"
	"github.com/safe4law/safe4law/internal/pkg/config"
	"github.com/safe4law/safe4law/internal/pkg/goroutine"
	"github.com/safe4law/safe4law/internal/pkg/hash"
	"github.com/safe4law/safe4law/internal/pkg/idempotency"
	"github.com/safe4law/safe4law/internal/pkg/instrument"
	"github.com/safe4law/safe4law/internal/pkg/jwt"
	"github.com/safe4law/safe4law/internal/pkg/mail"
	"github.com/safe4law/safe4law/internal/pkg/messaging"
	"github.com/safe4law/safe4law/internal/pkg/router"
	"github.com/safe4law/safe4law/internal/pkg/storage"
	"github.com/safe4law/safe4law/internal/pkg/uid"
	"github.com/safe4law/safe4law/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	password  hash.Hash
	docKey    hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	token     uid.StringID
	jwt       jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	mail      mail.Mail
	messaging messaging.Messaging
	storage   storage.Storage
	authz     *authz.Enforcer

	// server
	router     *router.Router
	httpServer *http.Server

	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initStorage()
	app.initMessaging()
	app.initAuthz()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
