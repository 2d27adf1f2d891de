package handler

import (
	"context"

	"github.com/carhive/rental-service/internal/model"
	"github.com/carhive/rental-service/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type RentalService interface {
	ListVehicles(ctx context.Context) ([]model.Vehicle, error)
	ListAvailable(ctx context.Context, rng model.DateRange) ([]model.Vehicle, error)
	GetVehicle(ctx context.Context, vin string) (model.Vehicle, error)
	CreateReservation(ctx context.Context, req model.CreateReservationRequest) (model.Reservation, error)
	GetReservation(ctx context.Context, id int64) (model.Reservation, error)
	ListReservations(ctx context.Context, licenseNo string) ([]model.Reservation, error)
	ConfirmReservation(ctx context.Context, id int64, amount *float64) (model.Reservation, error)
	RecordPayment(ctx context.Context, req model.PaymentRequest) (model.Reservation, error)
	CancelReservation(ctx context.Context, id int64) error
	SweepExpired(ctx context.Context) (int64, error)
}

var _ RentalService = (*service.Service)(nil)
