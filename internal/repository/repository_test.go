package repository_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carhive/rental-service/internal/errs"
	"github.com/carhive/rental-service/internal/model"
	"github.com/carhive/rental-service/internal/repository"
	"github.com/carhive/rental-service/migrations"
	"github.com/carhive/rental-service/pkg/postgres"
)

// These tests exercise the transactional core against a real database.
// Export TEST_DB=1 with the usual DB_* envs pointing at a scratch postgres.

func newTestRepo(t *testing.T) (repository.Repository, *pgxpool.Pool) {
	t.Helper()
	if os.Getenv("TEST_DB") == "" {
		t.Skip("TEST_DB not set")
	}
	var cfg postgres.DB
	require.NoError(t, envconfig.Process("", &cfg))
	db, err := postgres.NewPostgresDB(context.Background(), &cfg, migrations.MigrationFiles)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	repo, err := repository.NewRepository(db, zap.NewExample().Named("test"))
	require.NoError(t, err)
	return repo, db
}

func seed(t *testing.T, db *pgxpool.Pool) (licenseNo, vin string) {
	t.Helper()
	suffix := uuid.NewString()[:8]
	licenseNo = "D-" + suffix
	vin = "VIN-" + suffix
	ctx := context.Background()
	_, err := db.Exec(ctx,
		`insert into renter (license_no, first_name, last_name, email) values ($1, 'Test', 'Renter', $2)`,
		licenseNo, licenseNo+"@example.com")
	require.NoError(t, err)
	_, err = db.Exec(ctx,
		`insert into vehicle (vin, model, vehicle_type, color, year, seating_capacity) values ($1, 'Corolla', 'Sedan', 'White', 2022, 5)`,
		vin)
	require.NoError(t, err)
	return licenseNo, vin
}

func day(offset int) model.Date {
	return model.Date{Time: model.Today().AddDate(0, 0, offset)}
}

func TestRepository_CreateReservation_ConcurrentOverlap(t *testing.T) {
	repo, db := newTestRepo(t)
	licenseNo, vin := seed(t, db)

	req := model.CreateReservationRequest{
		LicenseNo:     licenseNo,
		VIN:           vin,
		StartDate:     day(1),
		EndDate:       day(5),
		InsuranceType: "Basic",
	}

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.CreateReservation(context.Background(), req)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var created, conflicts int
	for err := range results {
		switch {
		case err == nil:
			created++
		case errors.Is(err, errs.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, created)
	require.Equal(t, 1, conflicts)
}

func TestRepository_Reservation_CancelFreesRange(t *testing.T) {
	repo, db := newTestRepo(t)
	licenseNo, vin := seed(t, db)
	ctx := context.Background()

	first, err := repo.CreateReservation(ctx, model.CreateReservationRequest{
		LicenseNo: licenseNo, VIN: vin,
		StartDate: day(2), EndDate: day(6), InsuranceType: "Basic",
	})
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, first.Status)

	// adjacent ranges collide, no same-day turnover
	_, err = repo.CreateReservation(ctx, model.CreateReservationRequest{
		LicenseNo: licenseNo, VIN: vin,
		StartDate: day(6), EndDate: day(8), InsuranceType: "None",
	})
	require.ErrorIs(t, err, errs.ErrConflict)

	require.NoError(t, repo.CancelReservation(ctx, first.ID))

	second, err := repo.CreateReservation(ctx, model.CreateReservationRequest{
		LicenseNo: licenseNo, VIN: vin,
		StartDate: day(2), EndDate: day(6), InsuranceType: "Full",
	})
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	cancelled, err := repo.GetReservation(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusCancelled, cancelled.Status)
}

func TestRepository_SweepExpired_RunTwice(t *testing.T) {
	repo, db := newTestRepo(t)
	licenseNo, vin := seed(t, db)
	ctx := context.Background()

	_, err := db.Exec(ctx, `update vehicle set status = 'Unavailable' where vin = $1`, vin)
	require.NoError(t, err)
	_, err = db.Exec(ctx,
		`insert into reservation (license_no, vin, start_date, end_date, status)
		 values ($1, $2, current_date - 10, current_date - 3, 'Confirmed')`,
		licenseNo, vin)
	require.NoError(t, err)

	released, err := repo.SweepExpired(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, released, int64(1))

	var vehicleStatus string
	require.NoError(t, db.QueryRow(ctx, `select status from vehicle where vin = $1`, vin).Scan(&vehicleStatus))
	require.Equal(t, "Available", vehicleStatus)

	var reservationStatus string
	require.NoError(t, db.QueryRow(ctx,
		`select status from reservation where vin = $1`, vin).Scan(&reservationStatus))
	require.Equal(t, "Completed", reservationStatus)

	released, err = repo.SweepExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, released)
}

func TestRepository_CancelReservation_KeepsBusyVehicle(t *testing.T) {
	repo, db := newTestRepo(t)
	licenseNo, vin := seed(t, db)
	ctx := context.Background()

	// confirmed booking covering today holds the vehicle
	_, err := db.Exec(ctx,
		`insert into reservation (license_no, vin, start_date, end_date, status)
		 values ($1, $2, current_date - 1, current_date + 2, 'Confirmed')`,
		licenseNo, vin)
	require.NoError(t, err)
	_, err = db.Exec(ctx, `update vehicle set status = 'Unavailable' where vin = $1`, vin)
	require.NoError(t, err)

	future, err := repo.CreateReservation(ctx, model.CreateReservationRequest{
		LicenseNo: licenseNo, VIN: vin,
		StartDate: day(5), EndDate: day(7), InsuranceType: "Basic",
	})
	require.NoError(t, err)

	require.NoError(t, repo.CancelReservation(ctx, future.ID))

	var status string
	require.NoError(t, db.QueryRow(ctx, `select status from vehicle where vin = $1`, vin).Scan(&status))
	require.Equal(t, "Unavailable", status)
}
