package amqp

import (
	"encoding/json"
	"time"
)

// ReminderMessage tells the notifier that a subscription's current
// period ends soon. It carries enough to render a notification without
// another lookup; the subscription id is there for anything deeper.
type ReminderMessage struct {
	SubscriptionID string    `json:"subscription_id"`
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	PeriodEnd      string    `json:"period_end"` // YYYY-MM-DD
	DaysLeft       int       `json:"days_left"`
	CostCents      int64     `json:"cost_cents"`
	BillingCycle   string    `json:"billing_cycle"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewReminderMessage builds a reminder for one subscription.
func NewReminderMessage(subscriptionID, userID, name, periodEnd string, daysLeft int, costCents int64, cycle string) *ReminderMessage {
	return &ReminderMessage{
		SubscriptionID: subscriptionID,
		UserID:         userID,
		Name:           name,
		PeriodEnd:      periodEnd,
		DaysLeft:       daysLeft,
		CostCents:      costCents,
		BillingCycle:   cycle,
		Timestamp:      time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReminderMessageFromJSON creates a message from JSON bytes
func ReminderMessageFromJSON(data []byte) (*ReminderMessage, error) {
	var msg ReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
