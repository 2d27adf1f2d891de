package service

import (
	"context"

	"github.com/IBM/sarama"

	"github.com/carhive/rental-service/internal/errs"
	"github.com/carhive/rental-service/internal/model"
	"github.com/carhive/rental-service/internal/repository"
	"go.uber.org/zap"
)

// Service is the reservation lifecycle engine. Date preconditions are
// rejected here, before any storage round trip; everything that needs the
// store's transaction discipline lives in the repository.
type Service struct {
	log      *zap.Logger
	repo     repository.Repository
	producer sarama.SyncProducer
}

func NewService(repo repository.Repository, producer sarama.SyncProducer, log *zap.Logger) *Service {
	return &Service{
		log:      log,
		repo:     repo,
		producer: producer,
	}
}

func (s *Service) ListVehicles(ctx context.Context) ([]model.Vehicle, error) {
	return s.repo.ListVehicles(ctx)
}

func (s *Service) ListAvailable(ctx context.Context, rng model.DateRange) ([]model.Vehicle, error) {
	if !rng.Valid() {
		return nil, errs.ErrInvalidRange
	}
	return s.repo.ListAvailable(ctx, rng)
}

func (s *Service) GetVehicle(ctx context.Context, vin string) (model.Vehicle, error) {
	return s.repo.GetVehicle(ctx, vin)
}

func (s *Service) CreateReservation(ctx context.Context, req model.CreateReservationRequest) (model.Reservation, error) {
	if !req.Range().Valid() {
		return model.Reservation{}, errs.ErrInvalidRange
	}
	if req.StartDate.Before(model.Today().Time) {
		return model.Reservation{}, errs.ErrInvalidRange
	}
	rsv, err := s.repo.CreateReservation(ctx, req)
	if err != nil {
		return model.Reservation{}, err
	}
	s.publish(EventReservationCreated, rsv)
	return rsv, nil
}

func (s *Service) GetReservation(ctx context.Context, id int64) (model.Reservation, error) {
	return s.repo.GetReservation(ctx, id)
}

func (s *Service) ListReservations(ctx context.Context, licenseNo string) ([]model.Reservation, error) {
	return s.repo.ListReservations(ctx, licenseNo)
}

func (s *Service) ConfirmReservation(ctx context.Context, id int64, amount *float64) (model.Reservation, error) {
	rsv, err := s.repo.ConfirmReservation(ctx, id, amount)
	if err != nil {
		return model.Reservation{}, err
	}
	s.publish(EventReservationConfirmed, rsv)
	return rsv, nil
}

func (s *Service) RecordPayment(ctx context.Context, req model.PaymentRequest) (model.Reservation, error) {
	rsv, err := s.repo.RecordPayment(ctx, req)
	if err != nil {
		return model.Reservation{}, err
	}
	s.publish(EventReservationConfirmed, rsv)
	return rsv, nil
}

func (s *Service) CancelReservation(ctx context.Context, id int64) error {
	if err := s.repo.CancelReservation(ctx, id); err != nil {
		return err
	}
	if s.producer != nil {
		if rsv, err := s.repo.GetReservation(ctx, id); err == nil {
			s.publish(EventReservationCancelled, rsv)
		}
	}
	return nil
}

func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.SweepExpired(ctx)
}
