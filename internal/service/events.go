package service

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"

	"github.com/carhive/rental-service/internal/model"
	"github.com/carhive/rental-service/pkg/kafka"
	"go.uber.org/zap"
)

const (
	EventReservationCreated   = "reservation.created"
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCancelled = "reservation.cancelled"
)

type Event struct {
	Type          string                  `json:"type"`
	ReservationID int64                   `json:"reservationId"`
	LicenseNo     string                  `json:"licenseNo"`
	VIN           string                  `json:"vin"`
	Status        model.ReservationStatus `json:"status"`
	At            time.Time               `json:"at"`
}

// publish emits a lifecycle event for downstream consumers. A nil producer
// disables the stream; publish failures are logged and never fail the
// transition that already committed.
func (s *Service) publish(typ string, rsv model.Reservation) {
	if s.producer == nil {
		return
	}
	data, err := json.Marshal(Event{
		Type:          typ,
		ReservationID: rsv.ID,
		LicenseNo:     rsv.LicenseNo,
		VIN:           rsv.VIN,
		Status:        rsv.Status,
		At:            time.Now().UTC(),
	})
	if err != nil {
		s.log.Error("event marshal", zap.Error(err))
		return
	}
	msg := &sarama.ProducerMessage{
		Topic: kafka.ReservationEventsTopic,
		Value: sarama.StringEncoder(data),
	}
	if _, _, err := s.producer.SendMessage(msg); err != nil {
		s.log.Error("event publish", zap.String("type", typ), zap.Error(err))
	}
}
