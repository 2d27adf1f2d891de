package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carhive/rental-service/internal/errs"
	"github.com/carhive/rental-service/internal/model"
	repo_mocks "github.com/carhive/rental-service/internal/repository/mocks"
	"github.com/carhive/rental-service/internal/service"
)

func newService(t *testing.T) (*service.Service, *repo_mocks.MockRepository) {
	t.Helper()
	c := gomock.NewController(t)
	t.Cleanup(c.Finish)
	repo := repo_mocks.NewMockRepository(c)
	return service.NewService(repo, nil, zap.NewExample().Named("test")), repo
}

func TestService_CreateReservation_InvalidRange(t *testing.T) {
	t.Parallel()
	today := model.Today()

	var tests = []struct {
		name       string
		start, end model.Date
	}{
		{
			name:  "end before start",
			start: model.Date{Time: today.AddDate(0, 0, 5)},
			end:   model.Date{Time: today.AddDate(0, 0, 2)},
		},
		{
			name:  "retroactive start",
			start: model.Date{Time: today.AddDate(0, 0, -1)},
			end:   model.Date{Time: today.AddDate(0, 0, 2)},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, _ := newService(t)
			_, err := svc.CreateReservation(context.Background(), model.CreateReservationRequest{
				LicenseNo:     "D1234567",
				VIN:           "1HGCM82633A004352",
				StartDate:     tt.start,
				EndDate:       tt.end,
				InsuranceType: "Basic",
			})
			require.ErrorIs(t, err, errs.ErrInvalidRange)
		})
	}
}

func TestService_CreateReservation_OK(t *testing.T) {
	t.Parallel()
	svc, repo := newService(t)

	today := model.Today()
	req := model.CreateReservationRequest{
		LicenseNo:     "D1234567",
		VIN:           "1HGCM82633A004352",
		StartDate:     model.Date{Time: today.AddDate(0, 0, 1)},
		EndDate:       model.Date{Time: today.AddDate(0, 0, 5)},
		InsuranceType: "Full",
	}
	want := model.Reservation{
		ID:            42,
		LicenseNo:     req.LicenseNo,
		VIN:           req.VIN,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Status:        model.StatusPending,
		InsuranceType: req.InsuranceType,
	}
	repo.EXPECT().CreateReservation(context.Background(), req).Return(want, nil)

	got, err := svc.CreateReservation(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestService_CreateReservation_BookingToday(t *testing.T) {
	t.Parallel()
	svc, repo := newService(t)

	today := model.Today()
	req := model.CreateReservationRequest{
		LicenseNo:     "D1234567",
		VIN:           "1HGCM82633A004352",
		StartDate:     today,
		EndDate:       today,
		InsuranceType: "None",
	}
	repo.EXPECT().CreateReservation(context.Background(), req).Return(model.Reservation{ID: 1}, nil)

	_, err := svc.CreateReservation(context.Background(), req)
	require.NoError(t, err)
}

func TestService_CreateReservation_Conflict(t *testing.T) {
	t.Parallel()
	svc, repo := newService(t)

	today := model.Today()
	req := model.CreateReservationRequest{
		LicenseNo:     "D1234567",
		VIN:           "1HGCM82633A004352",
		StartDate:     model.Date{Time: today.AddDate(0, 0, 1)},
		EndDate:       model.Date{Time: today.AddDate(0, 0, 3)},
		InsuranceType: "Basic",
	}
	repo.EXPECT().CreateReservation(context.Background(), req).Return(model.Reservation{}, errs.ErrConflict)

	_, err := svc.CreateReservation(context.Background(), req)
	require.ErrorIs(t, err, errs.ErrConflict)
}

func TestService_ListAvailable_InvalidRange(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)

	_, err := svc.ListAvailable(context.Background(), model.DateRange{
		Start: model.NewDate(2030, time.January, 10),
		End:   model.NewDate(2030, time.January, 5),
	})
	require.ErrorIs(t, err, errs.ErrInvalidRange)
}

func TestService_ConfirmReservation(t *testing.T) {
	t.Parallel()
	svc, repo := newService(t)

	amount := 250.0
	want := model.Reservation{ID: 7, Status: model.StatusConfirmed, TotalAmount: &amount}
	repo.EXPECT().ConfirmReservation(context.Background(), int64(7), &amount).Return(want, nil)

	got, err := svc.ConfirmReservation(context.Background(), 7, &amount)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestService_ConfirmReservation_AlreadyConfirmed(t *testing.T) {
	t.Parallel()
	svc, repo := newService(t)

	amount := 99.0
	repo.EXPECT().ConfirmReservation(context.Background(), int64(7), &amount).
		Return(model.Reservation{}, errs.ErrAlreadyConfirmed)

	_, err := svc.ConfirmReservation(context.Background(), 7, &amount)
	require.ErrorIs(t, err, errs.ErrAlreadyConfirmed)
}

func TestService_CancelReservation(t *testing.T) {
	t.Parallel()
	svc, repo := newService(t)

	repo.EXPECT().CancelReservation(context.Background(), int64(3)).Return(nil)
	require.NoError(t, svc.CancelReservation(context.Background(), 3))
}

func TestService_CancelReservation_AlreadyStarted(t *testing.T) {
	t.Parallel()
	svc, repo := newService(t)

	repo.EXPECT().CancelReservation(context.Background(), int64(3)).Return(errs.ErrAlreadyStarted)
	require.ErrorIs(t, svc.CancelReservation(context.Background(), 3), errs.ErrAlreadyStarted)
}

func TestService_SweepExpired(t *testing.T) {
	t.Parallel()
	svc, repo := newService(t)

	repo.EXPECT().SweepExpired(context.Background()).Return(int64(2), nil)
	released, err := svc.SweepExpired(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, released)
}

func TestService_SweepExpired_Err(t *testing.T) {
	t.Parallel()
	svc, repo := newService(t)

	repo.EXPECT().SweepExpired(context.Background()).Return(int64(0), errors.New("db down"))
	_, err := svc.SweepExpired(context.Background())
	require.Error(t, err)
}
