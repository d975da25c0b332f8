package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/agritrack/machinery-booking/internal/config"
	"github.com/agritrack/machinery-booking/internal/db"
	"github.com/agritrack/machinery-booking/internal/events"
	"github.com/agritrack/machinery-booking/internal/model"
	"github.com/agritrack/machinery-booking/internal/obs"
	"github.com/agritrack/machinery-booking/internal/repository"
	"github.com/agritrack/machinery-booking/internal/service"
	"github.com/agritrack/machinery-booking/internal/transport/httpapi"
	"github.com/agritrack/machinery-booking/internal/transport/meta"
)

func main() {
	// 1. Config: .env if present, then env.
	if err := godotenv.Load(); err != nil {
		log.Printf("cfg: no .env file: %v", err)
	}
	appCfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		log.Fatalf("load db config: %v", err)
	}

	// 2. Database + migrations.
	gormDB, err := db.NewGormDB(dbCfg)
	if err != nil {
		log.Fatalf("init db: %v", err)
	}
	if err := model.AutoMigrate(gormDB); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("sql DB: %v", err)
	}
	defer sqlDB.Close()

	// 3. Tracing (no-op without an endpoint).
	shutdownTracer, err := obs.InitTracer(context.Background(), "machinery-booking", appCfg.OTLPEndpoint, appCfg.Environment)
	if err != nil {
		log.Fatalf("init tracer: %v", err)
	}

	// 4. Event publisher.
	var pub events.Publisher = events.NopPublisher{}
	if appCfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(appCfg.AMQPURL, appCfg.AMQPExchange)
		if err != nil {
			log.Fatalf("init amqp: %v", err)
		}
		pub = amqpPub
	}
	defer pub.Close()

	// 5. Repositories.
	farmerRepo := repository.NewGormFarmerRepository(gormDB)
	machineRepo := repository.NewGormMachineRepository(gormDB)
	bookingRepo := repository.NewGormBookingRepository(gormDB)
	otpRepo := repository.NewGormOTPRepository(gormDB)
	sessionRepo := repository.NewGormSessionRepository(gormDB)
	logRepo := repository.NewGormMessageLogRepository(gormDB)

	// 6. Booking engine.
	engine := service.NewBookingEngine(
		farmerRepo, machineRepo, bookingRepo, otpRepo, sessionRepo, logRepo,
		pub, service.PolicyFromConfig(appCfg),
	)

	// 7. Webhook server.
	sender := meta.NewClient(appCfg.MetaAccessToken, appCfg.MetaPhoneID)
	srv := httpapi.NewServer(engine, sender, appCfg.TwilioAccountSID, appCfg.MetaVerifyToken)

	e := echo.New()
	e.HideBanner = true
	srv.Register(e)

	go func() {
		log.Printf("listening on %s", appCfg.HTTPAddr)
		if err := e.Start(appCfg.HTTPAddr); err != nil {
			log.Printf("http server: %v", err)
		}
	}()

	// 8. Graceful shutdown.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if err := shutdownTracer(ctx); err != nil {
		log.Printf("tracer shutdown: %v", err)
	}
}
