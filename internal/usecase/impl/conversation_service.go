package impl

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"clustercart/config"
	"clustercart/internal/domain/entity"
	domainerrors "clustercart/internal/domain/errors"
	"clustercart/internal/domain/repository"
	"clustercart/internal/domain/service"
	"clustercart/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const defaultClassifyTimeout = 5 * time.Second

// pendingSelectionTTL bounds how long offered candidates stay actionable.
const pendingSelectionTTL = 30 * time.Minute

var (
	joinTokenPattern  = regexp.MustCompile(`JOIN_CLUSTER_([A-Za-z0-9\-]+)`)
	referredByPattern = regexp.MustCompile(`(?i)referred\s+by\s+(\S[\S ]{0,40})`)
	orderSlugPattern  = regexp.MustCompile(`\b(LAG|ABJ|PH|GEN)-\d{3,}\b`)
	renamePattern     = regexp.MustCompile(`(?i)rename\b.*\bto\s+(.+)$`)
)

type conversationService struct {
	memberRepo     repository.MemberRepository
	productRepo    repository.ProductRepository
	messageRepo    repository.MessageRepository
	messageCtxRepo repository.MessageContextRepository
	settingRepo    repository.SettingRepository
	notificationRepo repository.NotificationRepository

	cartUsecase    usecase.CartUsecase
	clusterUsecase usecase.ClusterUsecase
	orderUsecase   usecase.OrderUsecase
	adminUsecase   usecase.AdminUsecase

	intentService service.IntentService
	gateway       service.PaymentGateway
	proofStore    service.ProofStore
	messenger     service.Messenger

	config *config.Config
	logger *slog.Logger
}

// ConversationServiceParams holds dependencies for ConversationService, injected by Fx.
type ConversationServiceParams struct {
	fx.In

	MemberRepo     repository.MemberRepository
	ProductRepo    repository.ProductRepository
	MessageRepo    repository.MessageRepository
	MessageCtxRepo repository.MessageContextRepository
	SettingRepo    repository.SettingRepository
	NotificationRepo repository.NotificationRepository

	CartUsecase    usecase.CartUsecase
	ClusterUsecase usecase.ClusterUsecase
	OrderUsecase   usecase.OrderUsecase
	AdminUsecase   usecase.AdminUsecase

	IntentService service.IntentService
	Gateway       service.PaymentGateway
	ProofStore    service.ProofStore
	Messenger     service.Messenger

	Config *config.Config
	Logger *slog.Logger
}

// NewConversationService creates a new conversation state machine instance
func NewConversationService(params ConversationServiceParams) usecase.ConversationUsecase {
	return &conversationService{
		memberRepo:     params.MemberRepo,
		productRepo:    params.ProductRepo,
		messageRepo:    params.MessageRepo,
		messageCtxRepo: params.MessageCtxRepo,
		settingRepo:    params.SettingRepo,
		notificationRepo: params.NotificationRepo,
		cartUsecase:    params.CartUsecase,
		clusterUsecase: params.ClusterUsecase,
		orderUsecase:   params.OrderUsecase,
		adminUsecase:   params.AdminUsecase,
		intentService:  params.IntentService,
		gateway:        params.Gateway,
		proofStore:     params.ProofStore,
		messenger:      params.Messenger,
		config:         params.Config,
		logger:         params.Logger,
	}
}

// turn is the outcome of handling one inbound message.
type turn struct {
	text     string
	mediaURL string
	intent   entity.Intent
	aiUsed   bool
}

// Process handles one inbound message. It is total: every upstream failure
// degrades to a reply instead of surfacing to the transport handler.
func (s *conversationService) Process(ctx context.Context, msg *usecase.IncomingMessage) (*usecase.Reply, error) {
	phone := NormalizePhone(msg.Phone)
	body := strings.TrimSpace(msg.Body)
	if body == "" && msg.ButtonPayload != "" {
		body = strings.TrimSpace(msg.ButtonPayload)
	}

	member, created, err := s.loadOrCreateMember(ctx, phone)
	if err != nil {
		s.logger.Error("member load failed", slog.String("phone", phone), slog.Any("error", err))

		return &usecase.Reply{
			Text:   "Sorry, something went wrong on our side. Please try again in a moment.",
			Intent: entity.IntentOther,
		}, nil
	}
	stateBefore := member.State

	var t *turn
	switch {
	case created:
		t = &turn{
			text:   "Hi there! Welcome to ClusterCart, the group-buying club that gets you wholesale prices on everyday essentials. What's your name?",
			intent: entity.IntentOther,
		}
	case strings.HasPrefix(body, "/") && s.adminUsecase.IsAdmin(phone):
		t = s.handleAdminCommand(ctx, phone, body)
	default:
		t = s.handleMemberMessage(ctx, member, body, msg)
	}

	member.UpdatedAt = time.Now()
	if err := s.memberRepo.Update(ctx, member); err != nil {
		s.logger.Error("member persist failed", slog.String("phone", phone), slog.Any("error", err))
	}

	s.logTranscript(ctx, phone, body, msg.MediaURL, t, stateBefore, member.State)

	return &usecase.Reply{
		Text:        t.text,
		MediaURL:    t.mediaURL,
		Intent:      t.intent,
		StateBefore: stateBefore,
		StateAfter:  member.State,
		AIUsed:      t.aiUsed,
	}, nil
}

func (s *conversationService) handleMemberMessage(ctx context.Context, member *entity.Member, body string, msg *usecase.IncomingMessage) *turn {
	// Deep-link join tokens are handled before any classification.
	if match := joinTokenPattern.FindStringSubmatch(body); match != nil {
		return s.handleJoinToken(ctx, member, match[1])
	}
	if match := joinTokenPattern.FindStringSubmatch(msg.ButtonPayload); match != nil {
		return s.handleJoinToken(ctx, member, match[1])
	}

	// Referral fragments persist regardless of what else the message does.
	if member.ReferredBy == "" {
		if match := referredByPattern.FindStringSubmatch(body); match != nil {
			member.ReferredBy = strings.TrimSpace(match[1])
		}
	}

	switch member.State {
	case entity.StateAwaitingName:
		return s.handleAwaitingName(ctx, member, body)
	case entity.StateAwaitingCity:
		return s.handleAwaitingCity(ctx, member, body)
	case entity.StateAwaitingLagosArea:
		return s.handleAwaitingLagosArea(ctx, member, body)
	case entity.StateAwaitingMembership:
		return s.handleAwaitingMembership(ctx, member, body)
	case entity.StateAwaitingPaymentProof:
		return s.handleAwaitingPaymentProof(ctx, member, body, msg.MediaURL)
	case entity.StateAwaitingOrder:
		return s.handleAwaitingOrder(ctx, member, body)
	case entity.StateAwaitingAddress:
		return s.handleAwaitingAddress(ctx, member, body)
	case entity.StateAwaitingClusterName:
		return s.handleAwaitingClusterName(member, body)
	case entity.StateAwaitingClusterLimit:
		return s.handleAwaitingClusterLimit(ctx, member, body)
	case entity.StateAwaitingCartAction:
		return s.handleAwaitingCartAction(ctx, member, body, msg)
	case entity.StateIdle:
		return s.dispatchIdle(ctx, member, body)
	default:
		// The state enum is closed; anything else is store corruption.
		s.logger.Error("member in unknown state",
			slog.String("phone", member.Phone), slog.String("state", member.State.String()))
		member.State = entity.StateIdle

		return &turn{
			text:   "Let's start over. Send me a product name to shop, or 'menu' to see what I can do.",
			intent: entity.IntentOther,
		}
	}
}

// --- onboarding ---

func (s *conversationService) handleAwaitingName(ctx context.Context, member *entity.Member, body string) *turn {
	aiUsed := false
	name, err := s.extractName(ctx, body)
	if err != nil || name == "" {
		name = fallbackName(body)
	} else {
		aiUsed = true
	}
	if name == "" {
		return &turn{text: "What should I call you?", intent: entity.IntentOther, aiUsed: aiUsed}
	}

	member.Name = name
	member.State = entity.StateAwaitingCity

	return &turn{
		text:   fmt.Sprintf("Nice to meet you, %s! Which city are you in? We currently deliver in Lagos, Abuja and Port Harcourt.", name),
		intent: entity.IntentOther,
		aiUsed: aiUsed,
	}
}

func (s *conversationService) handleAwaitingCity(ctx context.Context, member *entity.Member, body string) *turn {
	aiUsed := false
	city, err := s.extractCity(ctx, body)
	if err != nil || city == "" {
		city = fallbackCity(body)
	} else {
		aiUsed = true
	}

	switch {
	case strings.EqualFold(city, "Lagos"):
		member.State = entity.StateAwaitingLagosArea

		return &turn{text: "Lagos it is! Are you on the Mainland or the Island?", intent: entity.IntentOther, aiUsed: aiUsed}
	case city != "":
		member.City = city
		member.State = entity.StateAwaitingMembership

		return &turn{text: s.membershipPrompt(city), intent: entity.IntentOther, aiUsed: aiUsed}
	default:
		return &turn{
			text:   "We deliver in Lagos, Abuja and Port Harcourt for now. Which one are you in?",
			intent: entity.IntentOther,
			aiUsed: aiUsed,
		}
	}
}

func (s *conversationService) handleAwaitingLagosArea(ctx context.Context, member *entity.Member, body string) *turn {
	aiUsed := false
	area, err := s.extractLagosArea(ctx, body)
	if err != nil || area == "" {
		area = fallbackLagosArea(body)
	} else {
		aiUsed = true
	}
	if area == "" {
		return &turn{text: "Mainland or Island?", intent: entity.IntentOther, aiUsed: aiUsed}
	}

	member.City = "Lagos " + area
	member.State = entity.StateAwaitingMembership

	return &turn{text: s.membershipPrompt(member.City), intent: entity.IntentOther, aiUsed: aiUsed}
}

func (s *conversationService) handleAwaitingMembership(ctx context.Context, member *entity.Member, body string) *turn {
	aiUsed := false
	plan, err := s.extractMembership(ctx, body)
	if err != nil || !plan.IsValid() {
		plan = fallbackMembership(body)
	} else {
		aiUsed = true
	}
	if !plan.IsValid() {
		return &turn{
			text:   "Please pick a plan: lifetime, monthly or one-time.",
			intent: entity.IntentOther,
			aiUsed: aiUsed,
		}
	}

	member.MembershipType = plan
	amount := s.planAmountKobo(plan)

	tx, err := s.gateway.InitializeTransaction(ctx, s.virtualEmail(member.Phone), amount, map[string]any{
		"type":  "membership",
		"phone": member.Phone,
		"plan":  plan.String(),
	})
	if err != nil {
		s.logger.Error("membership payment init failed",
			slog.String("phone", member.Phone), slog.Any("error", err))
		member.State = entity.StateAwaitingPaymentProof

		return &turn{
			text: fmt.Sprintf("Our card link is acting up, so you can pay the %s plan (₦%.2f) by bank transfer instead. Send a screenshot of your transfer here when done.",
				plan, float64(amount)/100),
			intent: entity.IntentOther,
			aiUsed: aiUsed,
		}
	}

	member.State = entity.StateIdle

	return &turn{
		text: fmt.Sprintf("Great choice! Pay for your %s membership (₦%.2f) here: %s\nOnce payment lands you can start shopping right away.",
			plan, float64(amount)/100, tx.AuthorizationURL),
		intent: entity.IntentOther,
		aiUsed: aiUsed,
	}
}

func (s *conversationService) handleAwaitingPaymentProof(ctx context.Context, member *entity.Member, body string, mediaURL string) *turn {
	if mediaURL != "" {
		proofURL, err := s.proofStore.Store(ctx, member.Phone, mediaURL)
		if err != nil {
			s.logger.Error("proof upload failed", slog.String("phone", member.Phone), slog.Any("error", err))
		}
		member.PaymentStatus = entity.PaymentPendingReview
		member.State = entity.StateIdle
		s.recordProofNotification(ctx, member, proofURL)

		return &turn{
			text:   "Got it! Your payment proof is with our team for review. We'll confirm shortly.",
			intent: entity.IntentPaymentConfirmation,
		}
	}

	if containsAny(strings.ToLower(body), "paid", "sent", "transferred", "done") {
		member.PaymentStatus = entity.PaymentPendingReview
		member.State = entity.StateIdle
		s.recordProofNotification(ctx, member, "")

		return &turn{
			text:   "Thanks! We've flagged your payment for review. A screenshot speeds things up if you have one.",
			intent: entity.IntentPaymentConfirmation,
		}
	}

	return &turn{
		text:   "Please send a screenshot of your payment, or type 'paid' once you've transferred.",
		intent: entity.IntentOther,
	}
}

// --- checkout interrupt ---

func (s *conversationService) handleAwaitingAddress(ctx context.Context, member *entity.Member, body string) *turn {
	if body == "" {
		return &turn{text: "What's your delivery address?", intent: entity.IntentOther}
	}

	member.Address = body
	member.State = entity.StateIdle

	// Re-enter checkout in the same turn rather than making the member ask again.
	return s.handleCheckout(ctx, member)
}

func (s *conversationService) handleAwaitingOrder(ctx context.Context, member *entity.Member, body string) *turn {
	order, err := s.orderUsecase.CreateOrderFromText(ctx, member, body)
	if err != nil {
		if errors.Is(err, domainerrors.ErrOrderUnparsed) {
			return &turn{
				text:   "I couldn't read that as an order. Send it like 'Rice 5kg x2, Beans 1kg', one item per comma.",
				intent: entity.IntentOrderHelp,
			}
		}
		s.logger.Error("text order capture failed",
			slog.String("phone", member.Phone), slog.Any("error", err))

		return &turn{text: "I couldn't capture your order just now. Please try again.", intent: entity.IntentOrderHelp}
	}

	member.State = entity.StateIdle

	return &turn{
		text:   fmt.Sprintf("Order received! Your order number is %s. We'll confirm totals and payment shortly.", order.Slug),
		intent: entity.IntentOrderHelp,
	}
}

// --- cluster creation flow ---

func (s *conversationService) handleAwaitingClusterName(member *entity.Member, body string) *turn {
	if body == "" {
		return &turn{text: "What should we call your cluster?", intent: entity.IntentClusterCreate}
	}

	member.PendingClusterName = body
	member.State = entity.StateAwaitingClusterLimit

	return &turn{
		text:   fmt.Sprintf("%q it is. How many people can join, including you? (default %d)", body, s.config.Commerce.DefaultClusterLimit),
		intent: entity.IntentClusterCreate,
	}
}

func (s *conversationService) handleAwaitingClusterLimit(ctx context.Context, member *entity.Member, body string) *turn {
	limit := firstInt(body)
	if limit == 0 {
		limit = s.config.Commerce.DefaultClusterLimit
	}

	name := member.PendingClusterName
	member.PendingClusterName = ""
	member.State = entity.StateIdle

	invite, err := s.clusterUsecase.CreateCluster(ctx, member, name, limit)
	if err != nil {
		s.logger.Error("cluster creation failed", slog.String("phone", member.Phone), slog.Any("error", err))

		return &turn{
			text:   "I couldn't create the cluster just now. Please try again.",
			intent: entity.IntentClusterCreate,
		}
	}

	mediaURL := ""
	if invite.QRCode != nil {
		url, err := s.proofStore.StoreImage(ctx, "qr/"+invite.Cluster.ID+".png", invite.QRCode)
		if err != nil {
			s.logger.Warn("invite QR upload failed", slog.String("cluster_id", invite.Cluster.ID), slog.Any("error", err))
		} else {
			mediaURL = url
		}
	}

	return &turn{
		text: fmt.Sprintf("Your cluster %q is live with room for %d people. Share this invite link:\n%s",
			invite.Cluster.Name, invite.Cluster.MaxPeople, invite.DeepLink),
		mediaURL: mediaURL,
		intent:   entity.IntentClusterCreate,
	}
}

// --- cart action resolution ---

func (s *conversationService) handleAwaitingCartAction(ctx context.Context, member *entity.Member, body string, msg *usecase.IncomingMessage) *turn {
	selection := member.PendingSelection
	if selection == nil || time.Since(selection.CreatedAt) > pendingSelectionTTL {
		member.PendingSelection = nil
		member.State = entity.StateIdle

		return s.dispatchIdle(ctx, member, body)
	}
	candidates := selection.Candidates

	// A quoted reply to a product card pins the candidate deterministically.
	if msg.ReplyToSID != "" {
		if msgCtx, err := s.messageCtxRepo.FindBySID(ctx, msg.ReplyToSID); err == nil {
			for i := range candidates {
				if candidates[i].SKU == msgCtx.SKU {
					return s.resolveCartAdd(ctx, member, &candidates[i], 1, false)
				}
			}
		}
	}

	aiUsed := false
	action, err := s.interpretCartAction(ctx, body, candidates)
	if err != nil || action == nil {
		action = fallbackCartAction(body, candidates)
	} else {
		aiUsed = true
	}

	switch action.Kind {
	case service.CartActionAffirm:
		if len(candidates) == 1 {
			return s.resolveCartAdd(ctx, member, &candidates[0], max(action.Qty, 1), aiUsed)
		}

		// A bare yes with several candidates is ambiguous; never guess.
		return &turn{
			text:   "Which one do you mean?\n" + numberedProductList(candidates),
			intent: entity.IntentCartAdd,
			aiUsed: aiUsed,
		}
	case service.CartActionAdd:
		if product := pickCandidate(candidates, action.SKU); product != nil {
			return s.resolveCartAdd(ctx, member, product, max(action.Qty, 1), aiUsed)
		}
		if len(candidates) == 1 {
			return s.resolveCartAdd(ctx, member, &candidates[0], max(action.Qty, 1), aiUsed)
		}

		return &turn{
			text:   "Which one do you mean?\n" + numberedProductList(candidates),
			intent: entity.IntentCartAdd,
			aiUsed: aiUsed,
		}
	case service.CartActionRemove:
		member.PendingSelection = nil
		member.State = entity.StateIdle
		query := body
		if product := pickCandidate(candidates, action.SKU); product != nil {
			query = product.Name
		}

		return s.removeFromCart(ctx, member, query, aiUsed)
	case service.CartActionCheckout:
		member.PendingSelection = nil
		member.State = entity.StateIdle

		return s.handleCheckout(ctx, member)
	default:
		member.PendingSelection = nil
		member.State = entity.StateIdle

		return s.dispatchIdle(ctx, member, body)
	}
}

func (s *conversationService) resolveCartAdd(ctx context.Context, member *entity.Member, product *entity.Product, qty int, aiUsed bool) *turn {
	member.PendingSelection = nil
	member.State = entity.StateIdle

	active, err := s.cartUsecase.AddItem(ctx, member, product, qty)
	if err != nil {
		s.logger.Error("cart add failed", slog.String("phone", member.Phone), slog.Any("error", err))

		return &turn{text: "I couldn't update your cart just now. Please try again.", intent: entity.IntentCartAdd, aiUsed: aiUsed}
	}

	return &turn{
		text: fmt.Sprintf("Added %d x %s. %s\nSay 'checkout' when you're ready.",
			qty, product.Name, cartSummary(active)),
		intent: entity.IntentCartAdd,
		aiUsed: aiUsed,
	}
}

// --- idle dispatch ---

func (s *conversationService) dispatchIdle(ctx context.Context, member *entity.Member, body string) *turn {
	if body == "" {
		return &turn{text: s.menuText(ctx), intent: entity.IntentMenuHelp}
	}

	// Naming one of the member's clusters switches the active cart first.
	if clusters, err := s.clusterUsecase.GetMemberClusters(ctx, member.Phone); err == nil {
		for i := range clusters {
			if strings.EqualFold(strings.TrimSpace(body), clusters[i].Name) {
				if _, err := s.clusterUsecase.SwitchActiveCluster(ctx, member, clusters[i].Name); err == nil {
					return &turn{
						text:   fmt.Sprintf("You're now shopping with cluster %q. Send a product name to add to the shared cart.", clusters[i].Name),
						intent: entity.IntentClusterView,
					}
				}
			}
		}
	}

	intent, aiUsed, hardErr := s.classify(ctx, member, body)
	if hardErr {
		return &turn{
			text:   "I didn't catch that. Please try again in a moment.",
			intent: entity.IntentOther,
		}
	}

	switch intent {
	case entity.IntentCatalogSearch:
		return s.catalogSearch(ctx, member, body, aiUsed)
	case entity.IntentCartAdd:
		return s.catalogSearch(ctx, member, body, aiUsed)
	case entity.IntentCartView:
		return s.viewCart(ctx, member, aiUsed)
	case entity.IntentCartRemove:
		query := s.productQuery(ctx, body)

		return s.removeFromCart(ctx, member, query, aiUsed)
	case entity.IntentCartCheckout:
		return s.handleCheckout(ctx, member)
	case entity.IntentClusterCreate:
		if !member.IsPaid() {
			member.State = entity.StateAwaitingMembership

			return &turn{
				text:   "Clusters are a members-only perk. " + s.membershipPrompt(member.City),
				intent: intent,
				aiUsed: aiUsed,
			}
		}
		member.State = entity.StateAwaitingClusterName

		return &turn{text: "Love it. What should we call your cluster?", intent: intent, aiUsed: aiUsed}
	case entity.IntentClusterJoin:
		return &turn{
			text:   "Ask your friend for their cluster invite link and tap it; it brings you right back here and joins you automatically.",
			intent: intent,
			aiUsed: aiUsed,
		}
	case entity.IntentClusterView:
		return s.viewCluster(ctx, member, aiUsed)
	case entity.IntentClusterRename:
		return s.renameCluster(ctx, member, body, aiUsed)
	case entity.IntentReferralLink:
		return &turn{
			text: fmt.Sprintf("Share ClusterCart and earn 2%% of your friend's first order! Your link:\n%s",
				s.referralLink(member.Phone)),
			intent: intent,
			aiUsed: aiUsed,
		}
	case entity.IntentMenuHelp:
		return &turn{text: s.menuText(ctx), intent: intent, aiUsed: aiUsed}
	case entity.IntentPaymentConfirmation:
		member.State = entity.StateAwaitingPaymentProof

		return &turn{
			text:   "Please send a screenshot of your payment so our team can confirm it.",
			intent: intent,
			aiUsed: aiUsed,
		}
	case entity.IntentOrderHelp:
		return s.orderHelp(ctx, body, aiUsed)
	default:
		return s.freeformReply(ctx, member, body, aiUsed)
	}
}

// memberContext snapshots the sender facts the NLU prompts fold in.
func memberContext(member *entity.Member) service.MemberContext {
	return service.MemberContext{
		InCluster:     member.CurrentClusterID != "",
		IsPaid:        member.IsPaid(),
		PendingReview: member.PaymentStatus == entity.PaymentPendingReview,
		City:          member.City,
	}
}

// classify runs the intent classifier under a hard timeout. Timeouts and
// empty labels default to catalog search; transport failures are surfaced so
// the caller can ask the member to retry without changing state.
func (s *conversationService) classify(ctx context.Context, member *entity.Member, body string) (intent entity.Intent, aiUsed bool, hardErr bool) {
	boundedCtx, cancel := context.WithTimeout(ctx, s.classifyTimeout())
	defer cancel()

	label, err := s.intentService.ClassifyIntent(boundedCtx, body, memberContext(member))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return entity.IntentCatalogSearch, false, false
		}

		return entity.IntentOther, false, true
	}
	if label == "" {
		return entity.IntentCatalogSearch, true, false
	}

	return entity.ParseIntent(label.String()), true, false
}

func (s *conversationService) catalogSearch(ctx context.Context, member *entity.Member, body string, aiUsed bool) *turn {
	query := s.productQuery(ctx, body)

	products, err := s.productRepo.Search(ctx, query, member.City, 5)
	if err != nil {
		s.logger.Error("catalog search failed", slog.String("query", query), slog.Any("error", err))

		return &turn{text: "I couldn't search the catalog just now. Please try again.", intent: entity.IntentCatalogSearch, aiUsed: aiUsed}
	}
	if len(products) == 0 {
		return &turn{
			text:   fmt.Sprintf("I couldn't find anything for %q. Try another product name, or 'menu' for the price list.", query),
			intent: entity.IntentCatalogSearch,
			aiUsed: aiUsed,
		}
	}

	// Push each product as its own card so quoted replies can pin it later.
	for _, product := range products {
		caption := fmt.Sprintf("%s — ₦%.2f", product.Name, float64(product.PriceKobo)/100)
		sid, err := s.messenger.Send(ctx, member.Phone, caption, product.ImageURL)
		if err != nil {
			s.logger.Warn("product card delivery failed",
				slog.String("sku", product.SKU), slog.Any("error", err))

			continue
		}
		msgCtx := &entity.MessageContext{
			MessageSID: sid,
			Phone:      member.Phone,
			SKU:        product.SKU,
			CreatedAt:  time.Now(),
		}
		if err := s.messageCtxRepo.Save(ctx, msgCtx); err != nil {
			s.logger.Warn("message context save failed", slog.String("sid", sid), slog.Any("error", err))
		}
	}

	member.PendingSelection = &entity.PendingSelection{
		Candidates: products,
		Query:      query,
		CreatedAt:  time.Now(),
	}
	member.State = entity.StateAwaitingCartAction

	return &turn{
		text:   "Which would you like? Reply with the name or number to add it to your cart.\n" + numberedProductList(products),
		intent: entity.IntentCatalogSearch,
		aiUsed: aiUsed,
	}
}

func (s *conversationService) viewCart(ctx context.Context, member *entity.Member, aiUsed bool) *turn {
	active, err := s.cartUsecase.GetActiveCart(ctx, member, false)
	if err != nil {
		s.logger.Error("cart view failed", slog.String("phone", member.Phone), slog.Any("error", err))

		return &turn{text: "I couldn't open your cart just now. Please try again.", intent: entity.IntentCartView, aiUsed: aiUsed}
	}
	if len(active.Items) == 0 {
		return &turn{text: "Your cart is empty. Send me a product name to start shopping.", intent: entity.IntentCartView, aiUsed: aiUsed}
	}

	header := "Your cart:"
	if active.IsCluster {
		header = fmt.Sprintf("Shared cart for cluster %q:", active.Cluster.Name)
	}

	var b strings.Builder
	b.WriteString(header + "\n")
	for _, item := range active.Items {
		fmt.Fprintf(&b, "• %d x %s — ₦%.2f\n", item.Qty, item.Name, float64(item.SubtotalKobo())/100)
	}
	fmt.Fprintf(&b, "Subtotal: ₦%.2f\nSay 'checkout' when you're ready.", float64(active.SubtotalKobo())/100)

	return &turn{text: b.String(), intent: entity.IntentCartView, aiUsed: aiUsed}
}

func (s *conversationService) removeFromCart(ctx context.Context, member *entity.Member, query string, aiUsed bool) *turn {
	result, err := s.cartUsecase.RemoveItem(ctx, member, query)
	if err != nil {
		if errors.Is(err, domainerrors.ErrCartEmpty) {
			return &turn{text: "Your cart is already empty.", intent: entity.IntentCartRemove, aiUsed: aiUsed}
		}
		s.logger.Error("cart remove failed", slog.String("phone", member.Phone), slog.Any("error", err))

		return &turn{text: "I couldn't update your cart just now. Please try again.", intent: entity.IntentCartRemove, aiUsed: aiUsed}
	}

	switch {
	case result.Removed != nil:
		return &turn{
			text:   fmt.Sprintf("Removed %s from your cart.", result.Removed.Name),
			intent: entity.IntentCartRemove,
			aiUsed: aiUsed,
		}
	case len(result.Candidates) > 0:
		var b strings.Builder
		b.WriteString("A few items match. Which one should I remove?\n")
		for i, item := range result.Candidates {
			fmt.Fprintf(&b, "%d. %s\n", i+1, item.Name)
		}
		b.WriteString("Reply with the exact name.")

		return &turn{text: b.String(), intent: entity.IntentCartRemove, aiUsed: aiUsed}
	default:
		return &turn{
			text:   fmt.Sprintf("I couldn't find %q in your cart.", query),
			intent: entity.IntentCartRemove,
			aiUsed: aiUsed,
		}
	}
}

func (s *conversationService) handleCheckout(ctx context.Context, member *entity.Member) *turn {
	if member.Address == "" {
		member.State = entity.StateAwaitingAddress

		return &turn{text: "Almost there! What's your delivery address?", intent: entity.IntentCartCheckout}
	}

	result, err := s.orderUsecase.CreateOrderFromCart(ctx, member)
	if err != nil {
		switch {
		case errors.Is(err, domainerrors.ErrCartEmpty):
			member.State = entity.StateAwaitingOrder

			return &turn{
				text:   "Your cart is empty. Send your order as a list, like 'Rice 5kg x2, Beans 1kg', and I'll capture it.",
				intent: entity.IntentCartCheckout,
			}
		case errors.Is(err, domainerrors.ErrCheckoutRestricted):
			return &turn{text: "Only the cluster owner can check out the shared cart. Nudge them when it's ready!", intent: entity.IntentCartCheckout}
		default:
			s.logger.Error("checkout failed", slog.String("phone", member.Phone), slog.Any("error", err))

			return &turn{text: "Checkout hit a snag. Please try again in a moment.", intent: entity.IntentCartCheckout}
		}
	}

	order := result.Order
	if order.IsClusterOrder() {
		sent := 0
		for _, link := range result.ShareLinks {
			if link.Err == nil {
				sent++
			}
		}

		return &turn{
			text: fmt.Sprintf("Cluster order %s created! Total ₦%.2f split across %d members — %d payment links sent. I'll confirm as each share lands.",
				order.Slug, float64(order.TotalKobo)/100, len(result.ShareLinks), sent),
			intent: entity.IntentCartCheckout,
		}
	}

	if result.PaymentURL == "" {
		return &turn{
			text: fmt.Sprintf("Order %s created! Total ₦%.2f including delivery. Our payment link is briefly down — I'll send it shortly.",
				order.Slug, float64(order.TotalKobo)/100),
			intent: entity.IntentCartCheckout,
		}
	}

	return &turn{
		text: fmt.Sprintf("Order %s created! Total ₦%.2f including delivery. Pay here: %s",
			order.Slug, float64(order.TotalKobo)/100, result.PaymentURL),
		intent: entity.IntentCartCheckout,
	}
}

func (s *conversationService) viewCluster(ctx context.Context, member *entity.Member, aiUsed bool) *turn {
	clusters, err := s.clusterUsecase.GetMemberClusters(ctx, member.Phone)
	if err != nil {
		s.logger.Error("cluster view failed", slog.String("phone", member.Phone), slog.Any("error", err))

		return &turn{text: "I couldn't load your clusters just now. Please try again.", intent: entity.IntentClusterView, aiUsed: aiUsed}
	}
	if len(clusters) == 0 {
		return &turn{
			text:   "You're not in a cluster yet. Say 'create a cluster' to start one and split delivery with friends!",
			intent: entity.IntentClusterView,
			aiUsed: aiUsed,
		}
	}

	var b strings.Builder
	b.WriteString("Your clusters:\n")
	for _, c := range clusters {
		marker := ""
		if c.ID == member.CurrentClusterID {
			marker = " (active)"
		}
		fmt.Fprintf(&b, "• %s%s — %d/%d members, %d items in the shared cart\n",
			c.Name, marker, len(c.Members), c.MaxPeople, len(c.Items))
	}
	b.WriteString("Send a cluster's name to switch to it.")

	return &turn{text: b.String(), intent: entity.IntentClusterView, aiUsed: aiUsed}
}

func (s *conversationService) renameCluster(ctx context.Context, member *entity.Member, body string, aiUsed bool) *turn {
	match := renamePattern.FindStringSubmatch(body)
	if match == nil {
		return &turn{
			text:   "To rename, say something like: rename my cluster to Ajah Foodies",
			intent: entity.IntentClusterRename,
			aiUsed: aiUsed,
		}
	}
	if member.CurrentClusterID == "" {
		return &turn{text: "You don't have an active cluster to rename.", intent: entity.IntentClusterRename, aiUsed: aiUsed}
	}

	newName := strings.TrimSpace(match[1])
	if err := s.clusterUsecase.RenameCluster(ctx, member, member.CurrentClusterID, newName); err != nil {
		if errors.Is(err, domainerrors.ErrNotOwner) {
			return &turn{text: "Only the cluster owner can rename it.", intent: entity.IntentClusterRename, aiUsed: aiUsed}
		}
		s.logger.Error("cluster rename failed", slog.String("phone", member.Phone), slog.Any("error", err))

		return &turn{text: "I couldn't rename the cluster just now. Please try again.", intent: entity.IntentClusterRename, aiUsed: aiUsed}
	}

	return &turn{text: fmt.Sprintf("Done! Your cluster is now called %q.", newName), intent: entity.IntentClusterRename, aiUsed: aiUsed}
}

func (s *conversationService) orderHelp(ctx context.Context, body string, aiUsed bool) *turn {
	slug := orderSlugPattern.FindString(strings.ToUpper(body))
	if slug == "" {
		return &turn{
			text:   "Send me your order number (it looks like LAG-001) and I'll check the status.",
			intent: entity.IntentOrderHelp,
			aiUsed: aiUsed,
		}
	}

	order, err := s.orderUsecase.GetOrder(ctx, slug)
	if err != nil {
		if errors.Is(err, domainerrors.ErrOrderNotFound) {
			return &turn{text: fmt.Sprintf("I couldn't find an order %s. Double-check the number?", slug), intent: entity.IntentOrderHelp, aiUsed: aiUsed}
		}
		s.logger.Error("order lookup failed", slog.String("slug", slug), slog.Any("error", err))

		return &turn{text: "I couldn't check that order just now. Please try again.", intent: entity.IntentOrderHelp, aiUsed: aiUsed}
	}

	return &turn{
		text: fmt.Sprintf("Order %s: %s. Total ₦%.2f.",
			order.Slug, order.Status, float64(order.TotalKobo)/100),
		intent: entity.IntentOrderHelp,
		aiUsed: aiUsed,
	}
}

func (s *conversationService) freeformReply(ctx context.Context, member *entity.Member, body string, aiUsed bool) *turn {
	text, err := s.generateReply(ctx, member, body)
	if err != nil || text == "" {
		return &turn{
			text:   "I can help you shop wholesale with friends! Send a product name to search, 'cart' to see your cart, or 'menu' for everything I can do.",
			intent: entity.IntentOther,
			aiUsed: aiUsed,
		}
	}

	return &turn{text: text, intent: entity.IntentOther, aiUsed: true}
}

// --- cluster join deep link ---

func (s *conversationService) handleJoinToken(ctx context.Context, member *entity.Member, clusterID string) *turn {
	cluster, err := s.clusterUsecase.JoinCluster(ctx, member, clusterID)
	switch {
	case err == nil:
		return &turn{
			text: fmt.Sprintf("Welcome to cluster %q! %d of %d spots filled. Anything you add to the cart is shared with the group.",
				cluster.Name, len(cluster.Members), cluster.MaxPeople),
			intent: entity.IntentClusterJoin,
		}
	case errors.Is(err, domainerrors.ErrNotEligible):
		member.PendingClusterID = clusterID
		member.State = entity.StateAwaitingMembership

		return &turn{
			text:   "You'll be added to the cluster as soon as your membership is active. " + s.membershipPrompt(member.City),
			intent: entity.IntentClusterJoin,
		}
	case errors.Is(err, domainerrors.ErrClusterFull):
		return &turn{text: "That cluster is already full. Ask the owner to start another one!", intent: entity.IntentClusterJoin}
	case errors.Is(err, domainerrors.ErrClusterNotFound):
		return &turn{text: "That invite link doesn't match an active cluster. Ask your friend for a fresh one.", intent: entity.IntentClusterJoin}
	default:
		s.logger.Error("cluster join failed",
			slog.String("phone", member.Phone), slog.String("cluster_id", clusterID), slog.Any("error", err))

		return &turn{text: "I couldn't join you to the cluster just now. Please tap the link again.", intent: entity.IntentClusterJoin}
	}
}

// --- admin ---

func (s *conversationService) handleAdminCommand(ctx context.Context, phone string, body string) *turn {
	reply, err := s.adminUsecase.HandleCommand(ctx, phone, body)
	if err != nil {
		s.logger.Error("admin command failed", slog.String("phone", phone), slog.Any("error", err))

		return &turn{text: "Command failed: " + err.Error(), intent: entity.IntentOther}
	}

	return &turn{text: reply, intent: entity.IntentOther}
}

// --- helpers ---

func (s *conversationService) loadOrCreateMember(ctx context.Context, phone string) (*entity.Member, bool, error) {
	member, err := s.memberRepo.FindByPhone(ctx, phone)
	if err == nil {
		return member, false, nil
	}
	if !errors.Is(err, repository.ErrMemberNotFound) {
		return nil, false, err
	}

	member = &entity.Member{
		Phone:         phone,
		State:         entity.StateAwaitingName,
		PaymentStatus: entity.PaymentUnpaid,
		JoinedAt:      time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, false, errors.Wrap(err, "failed to create member")
	}

	return member, true, nil
}

func (s *conversationService) productQuery(ctx context.Context, body string) string {
	query, err := s.extractQuery(ctx, body)
	if err != nil || query == "" {
		return body
	}

	return query
}

func (s *conversationService) membershipPrompt(city string) string {
	plans := s.config.Commerce.Plans

	where := ""
	if city != "" {
		where = fmt.Sprintf(" in %s", city)
	}

	return fmt.Sprintf("Here are our membership plans%s:\n• Lifetime — ₦%.2f\n• Monthly — ₦%.2f\n• One-time — ₦%.2f\nWhich one works for you?",
		where, float64(plans.Lifetime)/100, float64(plans.Monthly)/100, float64(plans.Onetime)/100)
}

func (s *conversationService) planAmountKobo(plan entity.MembershipType) int64 {
	plans := s.config.Commerce.Plans
	switch plan {
	case entity.MembershipLifetime:
		return plans.Lifetime
	case entity.MembershipMonthly:
		return plans.Monthly
	default:
		return plans.Onetime
	}
}

func (s *conversationService) menuText(ctx context.Context) string {
	priceSheet := s.config.Commerce.PriceSheetURL
	if url, err := s.settingRepo.Get(ctx, PriceSheetSettingKey); err == nil && url != "" {
		priceSheet = url
	}

	text := "Here's what I can do:\n" +
		"• Send a product name to search the catalog\n" +
		"• 'cart' to view your cart, 'checkout' to order\n" +
		"• 'create a cluster' to shop with friends and split delivery\n" +
		"• 'referral link' to earn on friends' first orders"
	if priceSheet != "" {
		text += "\nFull price list: " + priceSheet
	}

	return text
}

func (s *conversationService) referralLink(phone string) string {
	number := strings.TrimPrefix(strings.TrimPrefix(s.config.Twilio.FromNumber, "whatsapp:"), "+")

	return fmt.Sprintf("https://wa.me/%s?text=Hi!%%20I%%20was%%20referred%%20by%%20%s", number, strings.TrimPrefix(phone, "+"))
}

func (s *conversationService) virtualEmail(phone string) string {
	digits := strings.TrimPrefix(strings.TrimPrefix(phone, "whatsapp:"), "+")

	return digits + "@" + s.config.Paystack.EmailDomain
}

func (s *conversationService) recordProofNotification(ctx context.Context, member *entity.Member, proofURL string) {
	metadata := map[string]any{"phone": member.Phone}
	if proofURL != "" {
		metadata["proof_url"] = proofURL
	}
	notification := &entity.Notification{
		Type:      entity.NotificationPaymentProof,
		Message:   fmt.Sprintf("Payment proof received from %s, awaiting review", member.Phone),
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		s.logger.Warn("proof notification failed", slog.String("phone", member.Phone), slog.Any("error", err))
	}
}

func (s *conversationService) logTranscript(ctx context.Context, phone, body, mediaURL string, t *turn, before, after entity.ConversationState) {
	inbound := &entity.MessageLog{
		Phone:       phone,
		Direction:   entity.DirectionIn,
		Body:        body,
		Intent:      t.intent.String(),
		StateBefore: before.String(),
		StateAfter:  after.String(),
		AIUsed:      t.aiUsed,
		MediaURL:    mediaURL,
		Timestamp:   time.Now(),
	}
	if err := s.messageRepo.Log(ctx, inbound); err != nil {
		s.logger.Warn("transcript log failed", slog.String("phone", phone), slog.Any("error", err))
	}

	outbound := &entity.MessageLog{
		Phone:     phone,
		Direction: entity.DirectionOut,
		Body:      t.text,
		MediaURL:  t.mediaURL,
		Timestamp: time.Now(),
	}
	if err := s.messageRepo.Log(ctx, outbound); err != nil {
		s.logger.Warn("transcript log failed", slog.String("phone", phone), slog.Any("error", err))
	}
}

// RecordDeliveryStatus persists a provider delivery-status callback. Failed
// deliveries are surfaced in the log so undeliverable numbers stand out.
func (s *conversationService) RecordDeliveryStatus(ctx context.Context, status *entity.MessageStatus) error {
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}
	if status.Status == "failed" || status.Status == "undelivered" {
		s.logger.Warn("outbound message not delivered",
			slog.String("sid", status.MessageSID),
			slog.String("to", status.To),
			slog.String("error_code", status.ErrorCode))
	}

	if err := s.messageRepo.LogStatus(ctx, status); err != nil {
		return errors.Wrap(err, "failed to record delivery status")
	}

	return nil
}

func (s *conversationService) classifyTimeout() time.Duration {
	if s.config.OpenAI != nil && s.config.OpenAI.Timeout > 0 {
		return s.config.OpenAI.Timeout
	}

	return defaultClassifyTimeout
}

// The slot extractors share the classifier's timeout so a slow model can
// never stall a reply.

func (s *conversationService) extractName(ctx context.Context, body string) (string, error) {
	boundedCtx, cancel := context.WithTimeout(ctx, s.classifyTimeout())
	defer cancel()

	return s.intentService.ExtractName(boundedCtx, body)
}

func (s *conversationService) extractCity(ctx context.Context, body string) (string, error) {
	boundedCtx, cancel := context.WithTimeout(ctx, s.classifyTimeout())
	defer cancel()

	return s.intentService.ExtractCity(boundedCtx, body)
}

func (s *conversationService) extractLagosArea(ctx context.Context, body string) (string, error) {
	boundedCtx, cancel := context.WithTimeout(ctx, s.classifyTimeout())
	defer cancel()

	return s.intentService.ExtractLagosArea(boundedCtx, body)
}

func (s *conversationService) extractMembership(ctx context.Context, body string) (entity.MembershipType, error) {
	boundedCtx, cancel := context.WithTimeout(ctx, s.classifyTimeout())
	defer cancel()

	return s.intentService.ExtractMembership(boundedCtx, body)
}

func (s *conversationService) extractQuery(ctx context.Context, body string) (string, error) {
	boundedCtx, cancel := context.WithTimeout(ctx, s.classifyTimeout())
	defer cancel()

	return s.intentService.ExtractProductQuery(boundedCtx, body)
}

func (s *conversationService) interpretCartAction(ctx context.Context, body string, candidates []entity.Product) (*service.CartAction, error) {
	boundedCtx, cancel := context.WithTimeout(ctx, s.classifyTimeout())
	defer cancel()

	return s.intentService.InterpretCartAction(boundedCtx, body, candidates)
}

func (s *conversationService) generateReply(ctx context.Context, member *entity.Member, body string) (string, error) {
	boundedCtx, cancel := context.WithTimeout(ctx, s.classifyTimeout())
	defer cancel()

	return s.intentService.GenerateReply(boundedCtx, body, memberContext(member))
}

// --- deterministic fallbacks ---

func fallbackName(body string) string {
	name := strings.TrimSpace(body)
	for _, prefix := range []string{"my name is", "i'm", "i am", "im", "call me", "this is"} {
		if strings.HasPrefix(strings.ToLower(name), prefix) {
			name = strings.TrimSpace(name[len(prefix):])

			break
		}
	}
	if name == "" || len(name) > 60 {
		return ""
	}

	return strings.Title(strings.ToLower(name)) //nolint:staticcheck // member names are ASCII-ish and short
}

func fallbackCity(body string) string {
	b := strings.ToLower(body)
	switch {
	case strings.Contains(b, "lagos"):
		return "Lagos"
	case strings.Contains(b, "abuja"):
		return "Abuja"
	case strings.Contains(b, "port"), strings.Contains(b, "ph"):
		return "Port Harcourt"
	default:
		return ""
	}
}

func fallbackLagosArea(body string) string {
	b := strings.ToLower(body)
	switch {
	case strings.Contains(b, "mainland"):
		return "Mainland"
	case strings.Contains(b, "island"):
		return "Island"
	default:
		return ""
	}
}

func fallbackMembership(body string) entity.MembershipType {
	b := strings.ToLower(body)
	switch {
	case strings.Contains(b, "lifetime"), strings.Contains(b, "life"):
		return entity.MembershipLifetime
	case strings.Contains(b, "month"):
		return entity.MembershipMonthly
	case strings.Contains(b, "one"), strings.Contains(b, "once"), strings.Contains(b, "single"):
		return entity.MembershipOnetime
	default:
		return ""
	}
}

// fallbackCartAction interprets a candidate reply without the classifier:
// numbers select, names match, and a few keywords map to actions.
func fallbackCartAction(body string, candidates []entity.Product) *service.CartAction {
	b := strings.ToLower(strings.TrimSpace(body))

	if n := firstInt(b); n >= 1 && n <= len(candidates) && strconv.Itoa(n) == b {
		return &service.CartAction{Kind: service.CartActionAdd, SKU: candidates[n-1].SKU, Qty: 1}
	}

	switch {
	case containsAny(b, "checkout", "check out", "pay now"):
		return &service.CartAction{Kind: service.CartActionCheckout}
	case containsAny(b, "remove", "take out", "delete"):
		action := &service.CartAction{Kind: service.CartActionRemove}
		if p := matchCandidateByName(candidates, b); p != nil {
			action.SKU = p.SKU
		}

		return action
	case b == "yes", b == "yes please", b == "ok", b == "okay", b == "sure", b == "yep", b == "yeah":
		return &service.CartAction{Kind: service.CartActionAffirm, Qty: 1}
	}

	if p := matchCandidateByName(candidates, b); p != nil {
		qty := firstInt(b)
		if qty == 0 {
			qty = 1
		}

		return &service.CartAction{Kind: service.CartActionAdd, SKU: p.SKU, Qty: qty}
	}

	return &service.CartAction{Kind: service.CartActionNone}
}

func matchCandidateByName(candidates []entity.Product, body string) *entity.Product {
	for i := range candidates {
		if strings.Contains(body, strings.ToLower(candidates[i].Name)) {
			return &candidates[i]
		}
	}
	for i := range candidates {
		if strings.Contains(strings.ToLower(candidates[i].Name), body) && len(body) >= 3 {
			return &candidates[i]
		}
	}

	return nil
}

func pickCandidate(candidates []entity.Product, sku string) *entity.Product {
	if sku == "" {
		return nil
	}
	for i := range candidates {
		if candidates[i].SKU == sku {
			return &candidates[i]
		}
	}

	return nil
}

func numberedProductList(products []entity.Product) string {
	var b strings.Builder
	for i, p := range products {
		fmt.Fprintf(&b, "%d. %s — ₦%.2f\n", i+1, p.Name, float64(p.PriceKobo)/100)
	}

	return strings.TrimSpace(b.String())
}

func cartSummary(active *usecase.ActiveCart) string {
	where := "Your cart"
	if active.IsCluster {
		where = fmt.Sprintf("Cluster %q cart", active.Cluster.Name)
	}

	return fmt.Sprintf("%s: %d items, ₦%.2f.", where, len(active.Items), float64(active.SubtotalKobo())/100)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}

	return false
}

func firstInt(s string) int {
	num := regexp.MustCompile(`\d+`).FindString(s)
	if num == "" {
		return 0
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return 0
	}

	return n
}
