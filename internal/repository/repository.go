package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carhive/rental-service/internal/errs"
	"github.com/carhive/rental-service/internal/model"
	"github.com/pkg/errors"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type Repository interface {
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

type repository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewRepository(db *pgxpool.Pool, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	vehicleTableName     = `vehicle`
	reservationTableName = `reservation`
	paymentTableName     = `payment`
	renterTableName      = `renter`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var vehicleColumns = []string{"vin", "model", "vehicle_type", "color", "year", "seating_capacity", "status"}

func (r *repository) ListVehicles(ctx context.Context) ([]model.Vehicle, error) {
	query, args, err := qb.Select(vehicleColumns...).
		From(vehicleTableName).
		OrderBy("vin").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vehicles, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Vehicle])
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows: %w", err)
	}
	return vehicles, nil
}

// ListAvailable returns vehicles with Status=Available minus those holding an
// active reservation that overlaps the range. The cached status alone is not
// enough: it reflects today, the range may be in the future.
func (r *repository) ListAvailable(ctx context.Context, rng model.DateRange) ([]model.Vehicle, error) {
	q := `
select vin, model, vehicle_type, color, year, seating_capacity, status
from vehicle v
where v.status = 'Available'
  and v.vin not in (
      select rsv.vin from reservation rsv
      where rsv.status = any(@statuses)
        and rsv.start_date <= @end_date and rsv.end_date >= @start_date
  )
order by v.vin`
	args := pgx.NamedArgs{
		"statuses":   model.ActiveStatuses,
		"start_date": rng.Start,
		"end_date":   rng.End,
	}

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vehicles, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Vehicle])
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows: %w", err)
	}
	return vehicles, nil
}

func (r *repository) GetVehicle(ctx context.Context, vin string) (model.Vehicle, error) {
	query, args, err := qb.Select(vehicleColumns...).
		From(vehicleTableName).
		Where(sq.Eq{"vin": vin}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Vehicle{}, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Vehicle{}, err
	}
	defer rows.Close()

	vehicle, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Vehicle])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return model.Vehicle{}, errs.ErrNotFound
		}
		return model.Vehicle{}, err
	}
	return vehicle, nil
}

// CreateReservation inserts a Pending reservation. The vehicle row is locked
// for the duration of the transaction, so two racing creates for the same
// vehicle serialize and the loser sees the winner's row in the conflict scan.
// The gist exclusion constraint on the reservation table backs the same rule
// at the schema level.
func (r *repository) CreateReservation(ctx context.Context, req model.CreateReservationRequest) (model.Reservation, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return model.Reservation{}, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var exists bool
	if err := tx.QueryRow(ctx,
		`select exists(select 1 from renter where license_no = $1)`, req.LicenseNo,
	).Scan(&exists); err != nil {
		return model.Reservation{}, err
	}
	if !exists {
		return model.Reservation{}, errs.ErrNotFound
	}

	var status model.VehicleStatus
	err = tx.QueryRow(ctx,
		`select status from vehicle where vin = $1 for update`, req.VIN,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Reservation{}, errs.ErrNotFound
		}
		return model.Reservation{}, err
	}
	if status == model.VehicleMaintenance {
		return model.Reservation{}, errs.ErrConflict
	}

	if err := r.checkConflicts(ctx, tx, req.VIN, req.Range()); err != nil {
		return model.Reservation{}, err
	}

	q := `
insert into reservation (license_no, vin, start_date, end_date, status, insurance_type)
values (@license_no, @vin, @start_date, @end_date, @status, @insurance_type)
returning *`
	args := pgx.NamedArgs{
		"license_no":     req.LicenseNo,
		"vin":            req.VIN,
		"start_date":     req.StartDate,
		"end_date":       req.EndDate,
		"status":         model.StatusPending,
		"insurance_type": req.InsuranceType,
	}
	rows, err := tx.Query(ctx, q, args)
	if err != nil {
		return model.Reservation{}, mapConstraintErr(err)
	}
	rsv, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Reservation])
	if err != nil {
		r.log.Error("CreateReservation", zap.String("vin", req.VIN), zap.Error(err))
		return model.Reservation{}, mapConstraintErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Reservation{}, mapConstraintErr(err)
	}
	return rsv, nil
}

// checkConflicts is the interval conflict index: it scans the vehicle's
// active reservations and rejects any overlap with the candidate range.
// Must run inside the create transaction, after the vehicle row lock.
func (r *repository) checkConflicts(ctx context.Context, tx pgx.Tx, vin string, rng model.DateRange) error {
	q := `select start_date, end_date from reservation where vin = @vin and status = any(@statuses)`
	args := pgx.NamedArgs{
		"vin":      vin,
		"statuses": model.ActiveStatuses,
	}
	rows, err := tx.Query(ctx, q, args)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var taken model.DateRange
		if err := rows.Scan(&taken.Start, &taken.End); err != nil {
			return err
		}
		if rng.Overlaps(taken) {
			return errs.ErrConflict
		}
	}
	return rows.Err()
}

func (r *repository) GetReservation(ctx context.Context, id int64) (model.Reservation, error) {
	query, args, err := qb.Select("*").
		From(reservationTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Reservation{}, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Reservation{}, err
	}
	defer rows.Close()

	rsv, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Reservation])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, errs.ErrNotFound
		}
		return model.Reservation{}, err
	}
	return rsv, nil
}

func (r *repository) ListReservations(ctx context.Context, licenseNo string) ([]model.Reservation, error) {
	query, args, err := qb.Select("*").
		From(reservationTableName).
		Where(sq.Eq{"license_no": licenseNo}).
		OrderBy("id desc").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Reservation])
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows: %w", err)
	}
	return items, nil
}

func (r *repository) ConfirmReservation(ctx context.Context, id int64, amount *float64) (model.Reservation, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return model.Reservation{}, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	rsv, err := confirmTx(ctx, tx, id, amount)
	if err != nil {
		return model.Reservation{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Reservation{}, err
	}
	return rsv, nil
}

// RecordPayment persists the payment event and confirms the reservation with
// its amount in one transaction.
func (r *repository) RecordPayment(ctx context.Context, req model.PaymentRequest) (model.Reservation, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return model.Reservation{}, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	rsv, err := confirmTx(ctx, tx, req.ReservationID, &req.Amount)
	if err != nil {
		return model.Reservation{}, err
	}

	q := `
insert into payment (id, reservation_id, amount, method, card_no, name_on_card)
values (@id, @reservation_id, @amount, @method, @card_no, @name_on_card)`
	args := pgx.NamedArgs{
		"id":             uuid.New(),
		"reservation_id": req.ReservationID,
		"amount":         req.Amount,
		"method":         req.Method,
		"card_no":        req.CardNo,
		"name_on_card":   req.NameOnCard,
	}
	if _, err := tx.Exec(ctx, q, args); err != nil {
		return model.Reservation{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Reservation{}, err
	}
	return rsv, nil
}

// confirmTx advances Pending -> Confirmed. Re-confirming with the same amount
// (or with none, the operator path) is a no-op; a different amount is
// rejected. If the reservation covers today the vehicle is marked busy.
func confirmTx(ctx context.Context, tx pgx.Tx, id int64, amount *float64) (model.Reservation, error) {
	rows, err := tx.Query(ctx, `select * from reservation where id = $1 for update`, id)
	if err != nil {
		return model.Reservation{}, err
	}
	rsv, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Reservation])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, errs.ErrNotFound
		}
		return model.Reservation{}, err
	}

	switch rsv.Status {
	case model.StatusPending:
	case model.StatusConfirmed, model.StatusCompleted:
		if amount == nil || (rsv.TotalAmount != nil && *rsv.TotalAmount == *amount) {
			return rsv, nil
		}
		return model.Reservation{}, errs.ErrAlreadyConfirmed
	default: // Cancelled: gone from the active set
		return model.Reservation{}, errs.ErrNotFound
	}

	q := `
update reservation
set status = @status, total_amount = coalesce(@amount, total_amount)
where id = @id
returning *`
	args := pgx.NamedArgs{
		"status": model.StatusConfirmed,
		"amount": amount,
		"id":     id,
	}
	rows, err = tx.Query(ctx, q, args)
	if err != nil {
		return model.Reservation{}, err
	}
	rsv, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Reservation])
	if err != nil {
		return model.Reservation{}, err
	}

	today := model.Today()
	if !rsv.StartDate.After(today.Time) && !today.After(rsv.EndDate.Time) {
		if _, err := tx.Exec(ctx,
			`update vehicle set status = 'Unavailable' where vin = $1 and status = 'Available'`,
			rsv.VIN,
		); err != nil {
			return model.Reservation{}, err
		}
	}
	return rsv, nil
}

// CancelReservation tags the reservation Cancelled and releases the vehicle
// as one transaction. Allowed strictly before the start date.
func (r *repository) CancelReservation(ctx context.Context, id int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var (
		vin       string
		startDate model.Date
		status    model.ReservationStatus
	)
	err = tx.QueryRow(ctx,
		`select vin, start_date, status from reservation where id = $1 for update`, id,
	).Scan(&vin, &startDate, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.ErrNotFound
		}
		return err
	}
	if status == model.StatusCancelled {
		return errs.ErrNotFound
	}
	if !model.Today().Before(startDate.Time) {
		return errs.ErrAlreadyStarted
	}

	if _, err := tx.Exec(ctx,
		`update reservation set status = $1 where id = $2`, model.StatusCancelled, id,
	); err != nil {
		return err
	}
	// the row is Cancelled by now, so the exists-check only sees other
	// reservations; a different confirmed booking covering today keeps the
	// vehicle busy
	q := `
update vehicle set status = 'Available'
where vin = $1
  and status <> 'Maintenance'
  and not exists (
      select 1 from reservation o
      where o.vin = $1 and o.status = 'Confirmed'
        and o.start_date <= current_date and o.end_date >= current_date
  )`
	if _, err := tx.Exec(ctx, q, vin); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SweepExpired reconciles vehicles whose Confirmed reservations have ended:
// the reservations become Completed and their vehicles go back to Available.
// Both updates are keyed on strictly past end dates, so re-running is a no-op.
func (r *repository) SweepExpired(ctx context.Context) (int64, error) {
	q := `
with expired as (
    update reservation
    set status = 'Completed'
    where status = 'Confirmed' and end_date < current_date
    returning vin
)
update vehicle v
set status = 'Available'
from (select distinct vin from expired) e
where v.vin = e.vin
  and v.status = 'Unavailable'
  and not exists (
      select 1 from reservation o
      where o.vin = v.vin and o.status = 'Confirmed'
        and o.start_date <= current_date and o.end_date >= current_date
  )`

	tag, err := r.db.Exec(ctx, q)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func mapConstraintErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.ExclusionViolation:
			return errs.ErrConflict
		case pgerrcode.ForeignKeyViolation:
			return errs.ErrNotFound
		case pgerrcode.CheckViolation:
			return errs.ErrInvalidRange
		}
	}
	return err
}
