package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"motodispatch/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationRideRequested NotificationType = "ride_request"
	NotificationRideAccepted  NotificationType = "ride_accepted"
	NotificationRideCancelled NotificationType = "ride_cancelled"
	NotificationRideCompleted NotificationType = "ride_completed"
)

// Notification is a message for a single recipient.
type Notification struct {
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]any
	CreatedAt   time.Time
}

// NotificationSender delivers a single notification. Implementations
// push to FCM/SMS/websocket; the default sender writes to the log.
type NotificationSender interface {
	Send(ctx context.Context, n Notification) error
}

// LogSender is a NotificationSender that only logs.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a log-backed notification sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the notification.
func (s *LogSender) Send(ctx context.Context, n Notification) error {
	s.logger.Info("notification",
		"type", n.Type,
		"recipient", n.RecipientID,
		"title", n.Title,
		"message", n.Message,
	)
	return nil
}

const (
	notifyMaxAttempts = 3
	notifyBackoff     = 200 * time.Millisecond
)

// NotificationService delivers notifications asynchronously.
// Delivery is fire-and-forget with bounded retry: a failure is logged
// and never propagates to the caller, so a flaky push provider cannot
// fail or roll back a ride operation.
type NotificationService struct {
	sender NotificationSender
	logger *slog.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(sender NotificationSender, logger *slog.Logger) *NotificationService {
	return &NotificationService{sender: sender, logger: logger}
}

// dispatch sends n in the background, retrying with doubling backoff.
func (s *NotificationService) dispatch(n Notification) {
	n.CreatedAt = time.Now()

	go func() {
		backoff := notifyBackoff
		for attempt := 1; attempt <= notifyMaxAttempts; attempt++ {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := s.sender.Send(ctx, n)
			cancel()
			if err == nil {
				return
			}
			if attempt == notifyMaxAttempts {
				s.logger.Warn("notification dropped",
					"type", n.Type, "recipient", n.RecipientID, "error", err)
				return
			}
			time.Sleep(backoff)
			backoff *= 2
		}
	}()
}

// NotifyRideRequested tells a nearby driver about a new ride.
func (s *NotificationService) NotifyRideRequested(driverID string, ride *domain.Ride) {
	s.dispatch(Notification{
		Type:        NotificationRideRequested,
		RecipientID: driverID,
		Title:       "New ride available",
		Message:     fmt.Sprintf("Ride %s requested, estimated %.0f %s", ride.ID, ride.EstimatedPrice, breakdownCurrency(ride)),
		Data: map[string]any{
			"ride_id":         ride.ID,
			"pickup_lat":      ride.PickupLat,
			"pickup_lng":      ride.PickupLng,
			"estimated_price": ride.EstimatedPrice,
		},
	})
}

// NotifyRideAccepted tells the customer a driver took the ride.
func (s *NotificationService) NotifyRideAccepted(ride *domain.Ride) {
	s.dispatch(Notification{
		Type:        NotificationRideAccepted,
		RecipientID: ride.CustomerID,
		Title:       "Ride accepted",
		Message:     "Your ride has been accepted, the driver is on the way",
		Data: map[string]any{
			"ride_id":   ride.ID,
			"driver_id": ride.DriverID,
		},
	})
}

// NotifyRideCancelled tells the affected party about a cancellation.
func (s *NotificationService) NotifyRideCancelled(ride *domain.Ride, reason string) {
	s.dispatch(Notification{
		Type:        NotificationRideCancelled,
		RecipientID: ride.CustomerID,
		Title:       "Ride cancelled",
		Message:     fmt.Sprintf("Ride cancelled: %s", reason),
		Data: map[string]any{
			"ride_id": ride.ID,
			"reason":  reason,
		},
	})
}

// NotifyRideCompleted tells the customer the final fare.
func (s *NotificationService) NotifyRideCompleted(ride *domain.Ride) {
	s.dispatch(Notification{
		Type:        NotificationRideCompleted,
		RecipientID: ride.CustomerID,
		Title:       "Ride completed",
		Message:     fmt.Sprintf("Your ride is complete. Total: %.0f %s", ride.PriceTotal, breakdownCurrency(ride)),
		Data: map[string]any{
			"ride_id": ride.ID,
			"total":   ride.PriceTotal,
		},
	})
}

func breakdownCurrency(ride *domain.Ride) string {
	if ride.Breakdown != nil && ride.Breakdown.Currency != "" {
		return ride.Breakdown.Currency
	}
	return "GNF"
}
