// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

import (
	"context"

	"clustercart/internal/domain/entity"
)

// CartActionKind is what the member wants done with a pending candidate.
type CartActionKind string

const (
	// CartActionAdd adds the resolved candidate to the cart.
	CartActionAdd CartActionKind = "add"
	// CartActionRemove removes the resolved candidate from the cart.
	CartActionRemove CartActionKind = "remove"
	// CartActionCheckout proceeds straight to checkout.
	CartActionCheckout CartActionKind = "checkout"
	// CartActionAffirm is a bare yes with no candidate named.
	CartActionAffirm CartActionKind = "affirm"
	// CartActionNone means the reply was not a cart action at all.
	CartActionNone CartActionKind = "none"
)

// CartAction is the interpreted reply to a product-candidate prompt.
type CartAction struct {
	Kind CartActionKind
	SKU  string // Candidate SKU when the reply names one, empty otherwise.
	Qty  int    // Requested quantity, defaults to 1.
}

// MemberContext carries what the conversation engine knows about the sender
// so the model can lean on it: a paid cluster member asking "how much is
// left" means something different from a brand-new visitor.
type MemberContext struct {
	InCluster     bool
	IsPaid        bool
	PendingReview bool
	City          string
}

// IntentService classifies free-form member messages and extracts slots from
// them. Implementations are expected to be slow and fallible; every caller
// must tolerate an error and degrade to a deterministic fallback.
type IntentService interface {
	// ClassifyIntent maps the message onto the intent vocabulary, using the
	// member context to break ties.
	ClassifyIntent(ctx context.Context, text string, memberCtx MemberContext) (entity.Intent, error)

	// ExtractName pulls a person's name out of an onboarding reply.
	ExtractName(ctx context.Context, text string) (string, error)

	// ExtractCity pulls a supported city out of an onboarding reply.
	ExtractCity(ctx context.Context, text string) (string, error)

	// ExtractLagosArea resolves Mainland or Island from a reply.
	ExtractLagosArea(ctx context.Context, text string) (string, error)

	// ExtractMembership resolves a membership plan from a reply.
	ExtractMembership(ctx context.Context, text string) (entity.MembershipType, error)

	// ExtractProductQuery pulls the product search terms out of a message.
	ExtractProductQuery(ctx context.Context, text string) (string, error)

	// InterpretCartAction classifies a reply given the candidates on offer.
	InterpretCartAction(ctx context.Context, text string, candidates []entity.Product) (*CartAction, error)

	// GenerateReply produces a short freeform answer for messages nothing
	// else handled.
	GenerateReply(ctx context.Context, text string, memberCtx MemberContext) (string, error)
}
