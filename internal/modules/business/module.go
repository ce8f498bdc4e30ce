package business

import (
	"github.com/jmoiron/sqlx"
	"github.com/quickbiz/quickbiz-api/internal/modules/business/domain"
	"github.com/quickbiz/quickbiz-api/internal/modules/business/infrastructure/persistence/postgres"
)

type Module struct {
	BusinessRepository domain.BusinessRepository
}

func NewModule(db *sqlx.DB) *Module {
	return &Module{
		BusinessRepository: postgres.NewBusinessRepository(db),
	}
}
