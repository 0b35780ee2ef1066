//go:build wireinject
// +build wireinject

package main

//go:generate go run -mod=mod github.com/google/wire/cmd/wire

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/autotest/backend/internal/api"
	"github.com/autotest/backend/internal/infra/persistence/commonrepo"
	"github.com/autotest/backend/internal/infra/persistence/envrepo"
	"github.com/autotest/backend/internal/infra/persistence/resultrepo"
	"github.com/autotest/backend/internal/infra/persistence/suiterepo"
	"github.com/autotest/backend/internal/infra/persistence/taskrepo"
	"github.com/autotest/backend/internal/service"
	"github.com/autotest/backend/pkg/config"
)

func InitializeApp(logger *zap.Logger, cfg config.Config, db commonrepo.DB) (*App, error) {
	wire.Build(
		NewApp,

		ProvideRedisClient,
		ProvideQueue,
		ProvideBackend,
		ProvideWorker,
		ProvideReconciler,

		// http api providers
		api.NewServer,

		// service providers
		service.Provider,

		// infra providers
		taskrepo.Provider,
		resultrepo.Provider,
		envrepo.Provider,
		suiterepo.Provider,
	)
	return nil, nil
}
