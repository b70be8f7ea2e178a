// Package entity contains the core business objects of the project.
package entity

import "time"

// OrderStatus represents the fulfilment stage of an order.
type OrderStatus string

const (
	// OrderNew is a freshly created order before any payment request.
	OrderNew OrderStatus = "NEW"
	// OrderWaitingPayment means payment links have been issued.
	OrderWaitingPayment OrderStatus = "WAITING_PAYMENT"
	// OrderPaid means payment is fully reconciled.
	OrderPaid OrderStatus = "PAID"
	// OrderDispatched means the order left the warehouse.
	OrderDispatched OrderStatus = "DISPATCHED"
	// OrderDelivered means the order reached the member.
	OrderDelivered OrderStatus = "DELIVERED"
)

// String returns the string representation of the OrderStatus.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid checks if the OrderStatus is a valid value.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderNew, OrderWaitingPayment, OrderPaid, OrderDispatched, OrderDelivered:
		return true
	default:
		return false
	}
}

// ClusterPaymentStatus represents the state of one member's share of a
// cluster order.
type ClusterPaymentStatus string

const (
	// SharePending means the member's payment link is issued but unpaid.
	SharePending ClusterPaymentStatus = "PENDING"
	// SharePaid means the member's share has been confirmed by the gateway.
	SharePaid ClusterPaymentStatus = "PAID"
)

// ClusterPayment records one member's share of a cluster order. Entries are
// unique by phone; webhook replays overwrite in place.
type ClusterPayment struct {
	Phone      string               `json:"phone" bson:"phone"`
	AmountKobo int64                `json:"amount_kobo" bson:"amount_kobo"`
	Status     ClusterPaymentStatus `json:"status" bson:"status"`
	Reference  string               `json:"reference,omitempty" bson:"reference,omitempty"` // Gateway transaction reference.
	PayerName  string               `json:"payer_name,omitempty" bson:"payer_name,omitempty"`
	PaidAt     *time.Time           `json:"paid_at,omitempty" bson:"paid_at,omitempty"`
}

// Order represents a checkout, personal or cluster-wide.
type Order struct {
	ID                string     `json:"id" bson:"_id,omitempty"`
	MemberPhone       string     `json:"member_phone" bson:"member_phone"` // The member who checked out; for cluster orders, the owner.
	Items             []LineItem `json:"items" bson:"items"`
	SubtotalKobo      int64      `json:"subtotal_kobo" bson:"subtotal_kobo"`
	DeliveryFeeKobo   int64      `json:"delivery_fee_kobo" bson:"delivery_fee_kobo"`
	TotalKobo         int64      `json:"total_kobo" bson:"total_kobo"`
	Status            OrderStatus `json:"status" bson:"status"`
	Slug              string     `json:"slug" bson:"slug"` // Human-readable id like LAG-042, unique per order.
	City              string     `json:"city,omitempty" bson:"city,omitempty"`
	Address           string     `json:"address,omitempty" bson:"address,omitempty"`
	PaymentRef        string     `json:"payment_ref,omitempty" bson:"payment_ref,omitempty"`
	CreatedAt         time.Time  `json:"created_at" bson:"created_at"`

	// Cluster linkage, zero-valued on personal orders.
	ClusterID            string           `json:"cluster_id,omitempty" bson:"cluster_id,omitempty"`
	ClusterName          string           `json:"cluster_name,omitempty" bson:"cluster_name,omitempty"`
	ClusterOwnerPhone    string           `json:"cluster_owner_phone,omitempty" bson:"cluster_owner_phone,omitempty"`
	ClusterMembers       []string         `json:"cluster_members,omitempty" bson:"cluster_members,omitempty"`
	ClusterPayments      []ClusterPayment `json:"cluster_payments,omitempty" bson:"cluster_payments,omitempty"`
	ClusterPaidAmountKobo int64           `json:"cluster_paid_amount_kobo" bson:"cluster_paid_amount_kobo"` // Recomputed from PAID entries, never incremented.
}

// IsClusterOrder reports whether the order was checked out for a cluster.
func (o *Order) IsClusterOrder() bool {
	return o.ClusterID != ""
}

// PaidShareTotals returns the kobo sum and count of PAID cluster payment
// entries. The sum is the only source of truth for ClusterPaidAmountKobo.
func (o *Order) PaidShareTotals() (amountKobo int64, count int) {
	for _, p := range o.ClusterPayments {
		if p.Status == SharePaid {
			amountKobo += p.AmountKobo
			count++
		}
	}

	return amountKobo, count
}
