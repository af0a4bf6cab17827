package events

import "time"

// Lifecycle events consumed by the notification collaborator.

type OrderCreated struct {
	EventType   string    `json:"eventType"`
	OrderID     string    `json:"orderId"`
	RequesterID string    `json:"requesterId"`
	CompanyID   string    `json:"companyId"`
	TotalPrice  int64     `json:"totalPrice"`
	DeliveryFee int64     `json:"deliveryFee"`
	Instant     bool      `json:"instant"`
	Timestamp   time.Time `json:"timestamp"`
}

type OrderDecided struct {
	EventType    string    `json:"eventType"`
	OrderID      string    `json:"orderId"`
	CompanyID    string    `json:"companyId"`
	ApproverID   string    `json:"approverId"`
	Status       string    `json:"status"`
	AdminMessage string    `json:"adminMessage,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

type OrderCanceled struct {
	EventType  string    `json:"eventType"`
	OrderID    string    `json:"orderId"`
	CanceledBy string    `json:"canceledBy"`
	Timestamp  time.Time `json:"timestamp"`
}
