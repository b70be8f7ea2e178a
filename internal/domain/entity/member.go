// Package entity contains the core business objects of the project.
package entity

import "time"

// ConversationState represents where a member currently sits in the guided
// WhatsApp conversation. The set is closed; unknown values loaded from the
// store are rejected by ParseConversationState instead of being coerced.
type ConversationState string

const (
	// StateIdle means no flow is in progress; free-form messages are classified by intent.
	StateIdle ConversationState = "idle"
	// StateAwaitingName waits for the member's name during onboarding.
	StateAwaitingName ConversationState = "awaiting_name"
	// StateAwaitingCity waits for the member's city during onboarding.
	StateAwaitingCity ConversationState = "awaiting_city"
	// StateAwaitingLagosArea waits for the Mainland/Island choice after "Lagos".
	StateAwaitingLagosArea ConversationState = "awaiting_lagos_area"
	// StateAwaitingMembership waits for a membership plan choice.
	StateAwaitingMembership ConversationState = "awaiting_membership"
	// StateAwaitingPaymentProof waits for a payment proof image or reference.
	StateAwaitingPaymentProof ConversationState = "awaiting_payment_proof"
	// StateAwaitingOrder waits for the member to describe what they want to buy.
	StateAwaitingOrder ConversationState = "awaiting_order"
	// StateAwaitingAddress interrupts checkout until a delivery address is captured.
	StateAwaitingAddress ConversationState = "awaiting_address"
	// StateAwaitingClusterName waits for a name for the cluster being created.
	StateAwaitingClusterName ConversationState = "awaiting_cluster_name"
	// StateAwaitingClusterLimit waits for the member cap of the cluster being created.
	StateAwaitingClusterLimit ConversationState = "awaiting_cluster_limit"
	// StateAwaitingCartAction waits for a reply to product candidates held in PendingSelection.
	StateAwaitingCartAction ConversationState = "awaiting_cart_action"
)

// String returns the string representation of the ConversationState.
func (s ConversationState) String() string {
	return string(s)
}

// IsValid checks if the ConversationState is a valid value.
func (s ConversationState) IsValid() bool {
	switch s {
	case StateIdle, StateAwaitingName, StateAwaitingCity, StateAwaitingLagosArea,
		StateAwaitingMembership, StateAwaitingPaymentProof, StateAwaitingOrder,
		StateAwaitingAddress, StateAwaitingClusterName, StateAwaitingClusterLimit,
		StateAwaitingCartAction:
		return true
	default:
		return false
	}
}

// ParseConversationState validates a stored state string. Unknown states are
// an error so a corrupted document cannot silently route a member into idle.
func ParseConversationState(raw string) (ConversationState, error) {
	state := ConversationState(raw)
	if !state.IsValid() {
		return "", ErrUnknownConversationState
	}

	return state, nil
}

// MembershipType represents the plan a member signed up for.
type MembershipType string

const (
	// MembershipLifetime is the one-off lifetime plan.
	MembershipLifetime MembershipType = "lifetime"
	// MembershipMonthly is the recurring monthly plan.
	MembershipMonthly MembershipType = "monthly"
	// MembershipOnetime is the single-cycle plan.
	MembershipOnetime MembershipType = "onetime"
)

// String returns the string representation of the MembershipType.
func (m MembershipType) String() string {
	return string(m)
}

// IsValid checks if the MembershipType is a valid value.
func (m MembershipType) IsValid() bool {
	switch m {
	case MembershipLifetime, MembershipMonthly, MembershipOnetime:
		return true
	default:
		return false
	}
}

// PaymentStatus represents a member's membership payment state.
type PaymentStatus string

const (
	// PaymentUnpaid means no membership payment has been received.
	PaymentUnpaid PaymentStatus = "unpaid"
	// PaymentPendingReview means a payment proof is awaiting admin review.
	PaymentPendingReview PaymentStatus = "pending_review"
	// PaymentPaid means the membership is settled.
	PaymentPaid PaymentStatus = "paid"
)

// String returns the string representation of the PaymentStatus.
func (p PaymentStatus) String() string {
	return string(p)
}

// PendingSelection holds the product candidates a member is being asked to
// confirm while in the cart-action state. It lives only for the duration of
// that exchange and is cleared on resolution.
type PendingSelection struct {
	Candidates []Product `json:"candidates" bson:"candidates"` // Products matching the member's last query.
	Query      string    `json:"query" bson:"query"`           // The raw query that produced the candidates.
	CreatedAt  time.Time `json:"created_at" bson:"created_at"` // When the selection was offered.
}

// Member represents a WhatsApp member keyed by phone number.
type Member struct {
	Phone            string            `json:"phone" bson:"phone"`                             // WhatsApp phone number in E.164 form, the primary key.
	Name             string            `json:"name,omitempty" bson:"name,omitempty"`           // Display name captured during onboarding.
	State            ConversationState `json:"state" bson:"state"`                             // Current conversation state.
	City             string            `json:"city,omitempty" bson:"city,omitempty"`           // Delivery city (Lagos Mainland, Lagos Island, Abuja, PH).
	MembershipType   MembershipType    `json:"membership_type,omitempty" bson:"membership_type,omitempty"`
	PaymentStatus    PaymentStatus     `json:"payment_status" bson:"payment_status"` // Membership payment state.
	ReferralCode     string            `json:"referral_code,omitempty" bson:"referral_code,omitempty"`
	ReferredBy       string            `json:"referred_by,omitempty" bson:"referred_by,omitempty"` // Phone of the member who referred this one.
	Address          string            `json:"address,omitempty" bson:"address,omitempty"`         // Delivery address captured at checkout.
	CurrentClusterID string            `json:"current_cluster_id,omitempty" bson:"current_cluster_id,omitempty"`
	PendingClusterID string            `json:"pending_cluster_id,omitempty" bson:"pending_cluster_id,omitempty"` // Cluster awaiting membership payment before join completes.
	PendingClusterName string          `json:"pending_cluster_name,omitempty" bson:"pending_cluster_name,omitempty"` // Name captured while the cluster creation flow is in progress.
	PendingSelection *PendingSelection `json:"pending_selection,omitempty" bson:"pending_selection,omitempty"`
	JoinedAt         time.Time         `json:"joined_at" bson:"joined_at"`
	UpdatedAt        time.Time         `json:"updated_at" bson:"updated_at"`
}

// IsPaid reports whether the member's membership is settled.
func (m *Member) IsPaid() bool {
	return m.PaymentStatus == PaymentPaid
}
