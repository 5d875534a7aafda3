package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	EventLoanSubmitted     = "loan.submitted"
	EventLoanStatusChanged = "loan.status_changed"
	EventLoanRepaid        = "loan.repaid"
	EventRepaymentRecorded = "repayment.recorded"
)

func newBaseEvent(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

func NewLoanSubmitted(loanID, userID, amount string) Event {
	return newBaseEvent(EventLoanSubmitted, map[string]interface{}{
		"loan_id": loanID,
		"user_id": userID,
		"amount":  amount,
	})
}

func NewLoanStatusChanged(loanID, fromStatus, toStatus, actorID string) Event {
	return newBaseEvent(EventLoanStatusChanged, map[string]interface{}{
		"loan_id":     loanID,
		"from_status": fromStatus,
		"to_status":   toStatus,
		"actor_id":    actorID,
	})
}

func NewLoanRepaid(loanID string) Event {
	return newBaseEvent(EventLoanRepaid, map[string]interface{}{
		"loan_id": loanID,
	})
}

func NewRepaymentRecorded(loanID, receiptNumber, amountPaid, remainingBalance string) Event {
	return newBaseEvent(EventRepaymentRecorded, map[string]interface{}{
		"loan_id":           loanID,
		"receipt_number":    receiptNumber,
		"amount_paid":       amountPaid,
		"remaining_balance": remainingBalance,
	})
}

// RegisterAuditSubscriber logs every lifecycle event; the audit trail on the
// loan record itself is written by the services, this is operator-facing.
func RegisterAuditSubscriber(bus *EventBus, logger *slog.Logger) {
	audit := func(ctx context.Context, event Event) error {
		logger.Info("audit",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"occurred_at", event.OccurredAt(),
			"payload", event.Payload())
		return nil
	}

	for _, eventType := range []string{
		EventLoanSubmitted,
		EventLoanStatusChanged,
		EventLoanRepaid,
		EventRepaymentRecorded,
	} {
		bus.Subscribe(eventType, audit)
	}
}
