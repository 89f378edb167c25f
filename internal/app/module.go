package app

import (
	"log/slog"
	"os"

	"github.com/safe4law/safe4law/internal/document"
	"github.com/safe4law/safe4law/internal/identity"
	"github.com/safe4law/safe4law/internal/notification"
	"github.com/safe4law/safe4law/internal/recovery"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.identity.enabled") {
		if err := identity.New(identity.Dependency{
			DBConn:     a.dbConn,
			Router:     a.router,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			Token:      a.token,
			HMAC:       a.hmac,
			Password:   a.password,
			Clock:      a.clock,
			Validator:  a.validator,
			JWT:        a.jwt,
		}); err != nil {
			slog.Error("failed to init module identity", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.recovery.enabled") {
		if err := recovery.New(recovery.Dependency{
			Ctx:        a.ctx,
			DBConn:     a.dbConn,
			CacheConn:  a.cacheConn,
			Goroutine:  a.goroutine,
			Router:     a.router,
			Messaging:  a.messaging,
			Mail:       a.mail,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			Token:      a.token,
			HMAC:       a.hmac,
			Password:   a.password,
			Clock:      a.clock,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module recovery", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:         a.ctx,
			Messaging:   a.messaging,
			Mail:        a.mail,
			Idempotency: a.idemp,
			Config:      a.config,
			Instrument:  a.ins,
			Clock:       a.clock,
			Goroutine:   a.goroutine,
			Validator:   a.validator,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.document.enabled") {
		if err := document.New(document.Dependency{
			DBConn:     a.dbConn,
			CacheConn:  a.cacheConn,
			Storage:    a.storage,
			Authz:      a.authz,
			Router:     a.router,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			Password:   a.docKey,
			Clock:      a.clock,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module document", "error", err)
			os.Exit(1)
		}
	}
}
