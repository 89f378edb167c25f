// Package document shares a legal document and its cover image with one
// recipient behind a 4-digit key, an access mode and an expiry.
package document

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/safe4law/safe4law/internal/document/inbound"
	"github.com/safe4law/safe4law/internal/document/outbound/cache"
	"github.com/safe4law/safe4law/internal/document/outbound/db"
	"github.com/safe4law/safe4law/internal/document/outbound/storage"
	"github.com/safe4law/safe4law/internal/document/usecase"
	"github.com/safe4law/safe4law/internal/pkg/authz"
	"github.com/safe4law/safe4law/internal/pkg/clock"
	"github.com/safe4law/safe4law/internal/pkg/config"
	"github.com/safe4law/safe4law/internal/pkg/hash"
	"github.com/safe4law/safe4law/internal/pkg/instrument"
	"github.com/safe4law/safe4law/internal/pkg/router"
	pkgstorage "github.com/safe4law/safe4law/internal/pkg/storage"
	"github.com/safe4law/safe4law/internal/pkg/uid"
	"github.com/safe4law/safe4law/internal/pkg/validator"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  redis.UniversalClient      `validate:"required"`
	Storage    pkgstorage.Storage         `validate:"required"`
	Authz      authz.Authorizer           `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	Password   hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:      db.NewDB(dep.DBConn, dep.Instrument),
		RepoCache:   cache.NewCache(dep.CacheConn, dep.Instrument),
		RepoStorage: storage.NewStorage(dep.Storage, dep.Instrument),
		Authz:       dep.Authz,
		Validator:   dep.Validator,
		Config:      dep.Config,
		Password:    dep.Password,
		UID:         dep.UID,
		Clock:       dep.Clock,
		Instrument:  dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
