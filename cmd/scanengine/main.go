package main

import (
	"context"
	"log/slog"
	"os"

	"scanengine/config"
	"scanengine/internal/delivery"
	"scanengine/internal/delivery/http"
	"scanengine/internal/delivery/http/middleware"
	"scanengine/internal/delivery/http/router/handler"
	"scanengine/internal/infra/billing"
	"scanengine/internal/infra/device"
	"scanengine/internal/infra/entitlement"
	"scanengine/internal/infra/identity"
	logs "scanengine/internal/infra/log"
	"scanengine/internal/infra/persistence/sqlite"
	"scanengine/internal/usecase"
	"scanengine/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle
	fx.Shutdowner

	Deliveries []delivery.Delivery `group:"deliveries"`
	Session    usecase.SessionUsecase
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		sqlite.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			sqlite.NewCredentialStore,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			identity.NewClient,
			entitlement.NewClient,
			billing.NewClient,
			device.NewProvider,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewSessionService,
			// Expose the narrow token view consumed by the entitlement service
			func(session usecase.SessionUsecase) usecase.TokenSource {
				return session
			},
			impl.NewEntitlementService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewErrorMiddleware,
			middleware.NewRequestIDMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewSessionHandler,
			handler.NewEntitlementHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	// Restore a previously persisted session before serving the UI shell.
	if err := params.Session.Initialize(ctx); err != nil {
		slog.Warn("Session restore failed, starting unauthenticated", slog.Any("error", err))
	}

	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))

				// Trigger graceful shutdown to execute all OnStop hooks
				if shutdownErr := params.Shutdown(); shutdownErr != nil {
					slog.Error("Failed to shutdown gracefully", slog.Any("error", shutdownErr))
					os.Exit(1)
				}
			}
		}()
	}
}
