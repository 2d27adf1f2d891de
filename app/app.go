package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/carhive/rental-service/config"
	"github.com/carhive/rental-service/internal/handler"
	"github.com/carhive/rental-service/internal/repository"
	"github.com/carhive/rental-service/internal/server"
	"github.com/carhive/rental-service/internal/service"
	"github.com/carhive/rental-service/internal/sweeper"
	"github.com/carhive/rental-service/migrations"
	"github.com/carhive/rental-service/pkg/kafka"
	"github.com/carhive/rental-service/pkg/logger"
	"github.com/carhive/rental-service/pkg/postgres"
	"go.uber.org/zap"
)

func Run(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "rental")
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return fmt.Errorf("db init %v", err)
	}

	repo, err := repository.NewRepository(db, log)
	if err != nil {
		return fmt.Errorf("repo init %v", err)
	}

	var producer sarama.SyncProducer
	if len(cfg.Kafka.Addrs) > 0 {
		producer, err = kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("kafka producer %v", err)
		}
	}

	svc := service.NewService(repo, producer, log)
	h := handler.New(svc, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	sw := sweeper.New(svc, cfg.Sweep.Interval, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server start ON: ",
			zap.String("addr",
				net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
		if err := srv.Run(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sw.Start(ctx)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Debug("Graceful shutdown")

		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		return srv.Stop(closeCtx)
	})

	err = g.Wait()
	db.Close()
	if producer != nil {
		_ = producer.Close()
	}
	log.Info("Graceful shutdown finished")
	return err
}
