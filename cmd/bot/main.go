package main

import (
	"context"
	"log/slog"
	"os"

	"clustercart/config"
	"clustercart/internal/delivery"
	"clustercart/internal/delivery/http"
	"clustercart/internal/delivery/http/middleware"
	"clustercart/internal/delivery/http/router/handler"
	"clustercart/internal/domain/service"
	"clustercart/internal/infra/auth"
	"clustercart/internal/infra/intent"
	logs "clustercart/internal/infra/log"
	"clustercart/internal/infra/messaging"
	"clustercart/internal/infra/payment"
	"clustercart/internal/infra/persistence/mongo"
	"clustercart/internal/infra/qrcode"
	"clustercart/internal/infra/storage"
	"clustercart/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
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
		mongo.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			mongo.NewMemberRepository,
			mongo.NewCartRepository,
			mongo.NewClusterRepository,
			mongo.NewOrderRepository,
			mongo.NewCommissionRepository,
			mongo.NewProductRepository,
			mongo.NewNotificationRepository,
			mongo.NewMessageRepository,
			mongo.NewMessageContextRepository,
			mongo.NewCounterRepository,
			mongo.NewSettingRepository,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTService,
			intent.NewOpenAIService,
			messaging.NewTwilioMessenger,
			payment.NewPaystackGateway,
			storage.NewBlobProofStore,
			newQRCodeService,
		),
	)
}

// newQRCodeService creates a QR code service with dependency injection
func newQRCodeService(cfg *config.Config) service.QRCodeService {
	if cfg.QRCode == nil {
		// Use default values if not configured
		return qrcode.NewQRCodeService(256, "M")
	}

	return qrcode.NewQRCodeService(cfg.QRCode.Size, cfg.QRCode.ErrorCorrectionLevel)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewCartService,
			impl.NewClusterService,
			impl.NewOrderService,
			impl.NewReferralService,
			impl.NewPaymentService,
			impl.NewAdminService,
			impl.NewConversationService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
			middleware.NewErrorMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewWhatsAppHandler,
			handler.NewPaystackHandler,
			handler.NewAdminHandler,
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
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
