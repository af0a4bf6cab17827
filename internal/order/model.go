package order

import "time"

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusCanceled Status = "CANCELED"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCanceled
}

// CanTransitionTo reports whether s -> next is a legal move. The machine is
// one-way: PENDING may move to any terminal state, terminal states are final.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPending && next.IsTerminal()
}

func (s Status) String() string {
	return string(s)
}

// Receipt is a price/name snapshot of a catalog item captured at
// order-creation time. Historical orders stay accurate if the catalog
// changes later.
type Receipt struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	UnitPrice   int64  `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
	ImageURL    string `json:"imageUrl"`
}

// Subtotal is the receipt's contribution to the order total.
func (r Receipt) Subtotal() int64 {
	return r.UnitPrice * int64(r.Quantity)
}

// Order is an immutable-at-creation purchase request tracked through the
// status state machine. TotalPrice is computed once from the receipts and
// never recomputed from live prices.
type Order struct {
	ID             string    `json:"orderId"`
	RequesterID    string    `json:"requesterId"`
	CompanyID      string    `json:"companyId"`
	Status         Status    `json:"status"`
	Receipts       []Receipt `json:"items"`
	TotalPrice     int64     `json:"totalPrice"`
	DeliveryFee    int64     `json:"deliveryFee"`
	RequestMessage string    `json:"requestMessage,omitempty"`
	AdminMessage   string    `json:"adminMessage,omitempty"`
	ApproverID     string    `json:"approverId,omitempty"`
	Instant        bool      `json:"instant"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Total is the amount charged against the budget and locked into a payment
// session: item total plus delivery fee.
func (o *Order) Total() int64 {
	return o.TotalPrice + o.DeliveryFee
}

// Name is a short human-readable label handed to the payment widget.
func (o *Order) Name() string {
	if len(o.Receipts) == 0 {
		return "snack order"
	}
	if len(o.Receipts) == 1 {
		return o.Receipts[0].ProductName
	}
	return o.Receipts[0].ProductName + " and more"
}
