// Package entity contains the core business objects of the project.
package entity

// Intent is the closed vocabulary the classifier maps free-form messages to.
type Intent string

const (
	// IntentCatalogSearch asks for products matching a query.
	IntentCatalogSearch Intent = "catalog_search"
	// IntentCartView shows the active cart.
	IntentCartView Intent = "cart_view"
	// IntentCartAdd adds a product to the active cart.
	IntentCartAdd Intent = "cart_add"
	// IntentCartRemove removes a product from the active cart.
	IntentCartRemove Intent = "cart_remove"
	// IntentCartCheckout turns the active cart into an order.
	IntentCartCheckout Intent = "cart_checkout"
	// IntentClusterCreate starts the cluster creation flow.
	IntentClusterCreate Intent = "cluster_create"
	// IntentClusterJoin joins an existing cluster.
	IntentClusterJoin Intent = "cluster_join"
	// IntentClusterView shows the member's cluster and its shared cart.
	IntentClusterView Intent = "cluster_view"
	// IntentClusterRename renames a cluster the member owns.
	IntentClusterRename Intent = "cluster_rename"
	// IntentReferralLink asks for the member's referral link.
	IntentReferralLink Intent = "referral_link"
	// IntentMenuHelp asks what the bot can do.
	IntentMenuHelp Intent = "menu_help"
	// IntentPaymentConfirmation claims a payment was made.
	IntentPaymentConfirmation Intent = "payment_confirmation"
	// IntentOrderHelp asks about an existing order.
	IntentOrderHelp Intent = "order_help"
	// IntentOther is everything the vocabulary does not cover.
	IntentOther Intent = "other"
)

// String returns the string representation of the Intent.
func (i Intent) String() string {
	return string(i)
}

// IsValid checks if the Intent is a valid value.
func (i Intent) IsValid() bool {
	switch i {
	case IntentCatalogSearch, IntentCartView, IntentCartAdd, IntentCartRemove,
		IntentCartCheckout, IntentClusterCreate, IntentClusterJoin,
		IntentClusterView, IntentClusterRename, IntentReferralLink,
		IntentMenuHelp, IntentPaymentConfirmation, IntentOrderHelp, IntentOther:
		return true
	default:
		return false
	}
}

// ParseIntent maps a classifier label onto the vocabulary, falling back to
// IntentOther for anything unknown so a model drift never crashes dispatch.
func ParseIntent(raw string) Intent {
	intent := Intent(raw)
	if !intent.IsValid() {
		return IntentOther
	}

	return intent
}
