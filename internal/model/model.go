package model

import (
	"time"

	"github.com/google/uuid"
)

type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "Available"
	VehicleUnavailable VehicleStatus = "Unavailable"
	VehicleMaintenance VehicleStatus = "Maintenance"
)

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "Pending"
	StatusConfirmed ReservationStatus = "Confirmed"
	StatusCompleted ReservationStatus = "Completed"
	StatusCancelled ReservationStatus = "Cancelled"
)

// ActiveStatuses are the reservation states that hold a vehicle for their
// date range. Cancelled and Completed reservations never conflict.
var ActiveStatuses = []string{string(StatusPending), string(StatusConfirmed)}

type Vehicle struct {
	VIN             string        `json:"vin" db:"vin"`
	Model           string        `json:"model" db:"model"`
	Type            string        `json:"vehicleType" db:"vehicle_type"`
	Color           string        `json:"color" db:"color"`
	Year            int           `json:"year" db:"year"`
	SeatingCapacity int           `json:"seatingCapacity" db:"seating_capacity"`
	Status          VehicleStatus `json:"status" db:"status"`
}

type Reservation struct {
	ID            int64             `json:"id" db:"id"`
	LicenseNo     string            `json:"licenseNo" db:"license_no"`
	VIN           string            `json:"vin" db:"vin"`
	StartDate     Date              `json:"startDate" db:"start_date"`
	EndDate       Date              `json:"endDate" db:"end_date"`
	Status        ReservationStatus `json:"status" db:"status"`
	TotalAmount   *float64          `json:"totalAmount" db:"total_amount"`
	InsuranceType string            `json:"insuranceType" db:"insurance_type"`
	CreatedAt     time.Time         `json:"-" db:"created_at"`
}

func (r Reservation) Range() DateRange {
	return DateRange{Start: r.StartDate, End: r.EndDate}
}

type CreateReservationRequest struct {
	LicenseNo     string `json:"licenseNo" validate:"required"`
	VIN           string `json:"vin" validate:"required"`
	StartDate     Date   `json:"startDate" validate:"required"`
	EndDate       Date   `json:"endDate" validate:"required"`
	InsuranceType string `json:"insuranceType" validate:"required,oneof=None Basic Full"`
}

func (r CreateReservationRequest) Range() DateRange {
	return DateRange{Start: r.StartDate, End: r.EndDate}
}

type PaymentRequest struct {
	ReservationID int64   `json:"reservationId" validate:"required"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Method        string  `json:"method" validate:"required,oneof=Card Cash"`
	CardNo        string  `json:"cardNo"`
	NameOnCard    string  `json:"nameOnCard"`
}

type Payment struct {
	ID            uuid.UUID `json:"id" db:"id"`
	ReservationID int64     `json:"reservationId" db:"reservation_id"`
	Amount        float64   `json:"amount" db:"amount"`
	Method        string    `json:"method" db:"method"`
	PaidAt        time.Time `json:"paidAt" db:"paid_at"`
}
