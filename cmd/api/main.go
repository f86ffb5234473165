package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/hsdarestani/vaadehrep/internal/config"
	"github.com/hsdarestani/vaadehrep/internal/infra/gateway"
	"github.com/hsdarestani/vaadehrep/internal/infra/persistence/mysql"
	"github.com/hsdarestani/vaadehrep/internal/infra/security"
	httpapi "github.com/hsdarestani/vaadehrep/internal/interface/http"
	accountuc "github.com/hsdarestani/vaadehrep/internal/usecase/account"
	"github.com/hsdarestani/vaadehrep/internal/usecase/modifiers"
	"github.com/hsdarestani/vaadehrep/internal/usecase/notify"
	paymentuc "github.com/hsdarestani/vaadehrep/internal/usecase/payment"
	placementuc "github.com/hsdarestani/vaadehrep/internal/usecase/placement"
	"github.com/hsdarestani/vaadehrep/internal/usecase/serviceability"
	statusuc "github.com/hsdarestani/vaadehrep/internal/usecase/status"
	"github.com/hsdarestani/vaadehrep/pkg/logger"
)

func main() {
	log := logger.New(logger.Config{
		Level:  getenv("LOG_LEVEL", "info"),
		Format: getenv("LOG_FORMAT", "json"),
	})

	port := getenv("APP_PORT", "8080")
	// parseTime=true is required: the repositories scan DATETIME columns into
	// time.Time directly.
	dsn := getenv("MYSQL_DSN", "user:pass@tcp(mysql:3306)/vaadeh?parseTime=true")
	jwtSecret := getenv("JWT_SECRET", "dev-secret-change-me")

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Error("mysql open failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancel()
		log.Error("mysql ping failed", "error", err)
		os.Exit(1)
	}
	cancel()

	if err := mysql.EnsureSchema(ctx, db); err != nil {
		log.Error("schema migration failed", "error", err)
		os.Exit(1)
	}

	userRepo := mysql.NewUserRepository(db)
	addressRepo := mysql.NewAddressRepository(db)
	vendorRepo := mysql.NewVendorRepository(db)
	catalogRepo := mysql.NewCatalogRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	settingRepo := mysql.NewSettingRepository(db)

	settings := config.NewSettings(settingRepo, log.WithComponent("settings"))
	tokenSvc := security.NewJWTService(jwtSecret, 30*24*time.Hour)
	passwordSvc := security.NewBcryptService(0)

	telegram := gateway.NewTelegramClient(os.Getenv("TELEGRAM_BOT_TOKEN"))
	sms := gateway.NewSMSClient(os.Getenv("SMS_ENDPOINT"), os.Getenv("SMS_API_KEY"), getenv("SMS_SENDER", "Vaadeh"))
	paymentGateway := gateway.NewPaymentClient(
		os.Getenv("PAYMENT_BASE_URL"),
		os.Getenv("PAYMENT_API_KEY"),
		os.Getenv("PAYMENT_CALLBACK_URL"),
	)

	notifySvc := notify.NewService(
		vendorRepo, userRepo, telegram, sms,
		os.Getenv("ADMIN_TELEGRAM_CHAT_ID"),
		log.WithComponent("notify"),
	)

	accountSvc := accountuc.NewService(userRepo, tokenSvc, passwordSvc)
	svcbSvc := serviceability.NewService(vendorRepo, orderRepo, settings)
	modSvc := modifiers.NewService(catalogRepo)
	if names := settings.OptOutOptionNames(ctx); len(names) > 0 {
		modSvc = modifiers.NewServiceWithOptOuts(catalogRepo, names)
	}
	statusSvc := statusuc.NewService(orderRepo, notifySvc, settings, log.WithComponent("status"))
	placementSvc := placementuc.NewService(
		accountSvc, vendorRepo, catalogRepo, addressRepo, orderRepo,
		modSvc, svcbSvc, settings, notifySvc,
		log.WithComponent("placement"),
	)
	paymentSvc := paymentuc.NewService(orderRepo, paymentGateway, statusSvc, log.WithComponent("payment"))

	api := httpapi.NewAPI(httpapi.Dependencies{
		AccountService:        accountSvc,
		PlacementService:      placementSvc,
		StatusService:         statusSvc,
		PaymentService:        paymentSvc,
		ServiceabilityService: svcbSvc,
		OrderRepository:       orderRepo,
		VendorRepository:      vendorRepo,
		CatalogRepository:     catalogRepo,
	})

	go runUnpaidSweep(ctx, statusSvc, log.WithComponent("sweep"))

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	}()

	log.Info("listening", "port", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
	log.Info("stopped")
}

// runUnpaidSweep cancels orders that sat unpaid past the configured TTL.
func runUnpaidSweep(ctx context.Context, svc *statusuc.Service, log *logger.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.CancelStaleUnpaid(ctx)
			if err != nil {
				log.Error("sweep failed", "error", err)
				continue
			}
			if n > 0 {
				log.Info("cancelled stale unpaid orders", "count", n)
			}
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
