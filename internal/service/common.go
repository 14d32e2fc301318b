package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"inventory-api/internal/model"
	"inventory-api/internal/repository"
	"inventory-api/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Events published to websocket clients after a commit.
const (
	EventOrderCreated     = "order.created"
	EventInventoryUpdated = "inventory.updated"
	EventLowStock         = "inventory.low_stock"
	EventProductDeleted   = "product.deleted"
)

// EventPublisher pushes realtime notifications. Publish must not block.
type EventPublisher interface {
	Publish(event string, data map[string]interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, map[string]interface{}) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

// Settings carries the inventory thresholds read from config.
type Settings struct {
	LowStockThreshold int
	NearExpiryMonths  int
}

func (s Settings) withDefaults() Settings {
	if s.LowStockThreshold < 0 {
		s.LowStockThreshold = 10
	}
	if s.NearExpiryMonths <= 0 {
		s.NearExpiryMonths = 3
	}
	return s
}

// internal keeps application errors as they are and hides anything else behind msg.
func internal(err error, msg string) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Internal(msg, err)
}

// lookup maps a missing row to NotFound(notFoundMsg) and other failures to Internal(msg).
func lookup(err error, notFoundMsg, msg string) error {
	if repository.IsNotFound(err) {
		return apperror.NotFound(notFoundMsg)
	}
	return internal(err, msg)
}

func parseActor(actor string) *uuid.UUID {
	if id, err := uuid.Parse(actor); err == nil {
		return &id
	}
	return nil
}

func writeAudit(ctx context.Context, repo repository.AuditRepository, now time.Time, actor, action, entityID, entityName string, details interface{}) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	entry := &model.AuditLog{
		ID:         uuid.New(),
		UserID:     parseActor(actor),
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    datatypes.JSON(payload),
		CreatedAt:  now,
	}
	if err := repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func publishStock(pub EventPublisher, threshold int, products ...*model.Product) {
	for _, p := range products {
		data := map[string]interface{}{
			"productId": p.ID.String(),
			"name":      p.Name,
			"quantity":  p.Quantity,
		}
		pub.Publish(EventInventoryUpdated, data)
		if p.Quantity <= threshold {
			slog.Info("product reached low stock", "productId", p.ID, "quantity", p.Quantity)
			pub.Publish(EventLowStock, data)
		}
	}
}
