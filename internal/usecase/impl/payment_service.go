package impl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"clustercart/internal/domain/entity"
	"clustercart/internal/domain/repository"
	"clustercart/internal/domain/service"
	"clustercart/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type paymentService struct {
	memberRepo       repository.MemberRepository
	orderRepo        repository.OrderRepository
	notificationRepo repository.NotificationRepository
	clusterUsecase   usecase.ClusterUsecase
	referralUsecase  usecase.ReferralUsecase
	messenger        service.Messenger
	logger           *slog.Logger
}

// PaymentServiceParams holds dependencies for PaymentService, injected by Fx.
type PaymentServiceParams struct {
	fx.In

	MemberRepo       repository.MemberRepository
	OrderRepo        repository.OrderRepository
	NotificationRepo repository.NotificationRepository
	ClusterUsecase   usecase.ClusterUsecase
	ReferralUsecase  usecase.ReferralUsecase
	Messenger        service.Messenger
	Logger           *slog.Logger
}

// NewPaymentService creates a new payment reconciler instance
func NewPaymentService(params PaymentServiceParams) usecase.PaymentUsecase {
	return &paymentService{
		memberRepo:       params.MemberRepo,
		orderRepo:        params.OrderRepo,
		notificationRepo: params.NotificationRepo,
		clusterUsecase:   params.ClusterUsecase,
		referralUsecase:  params.ReferralUsecase,
		messenger:        params.Messenger,
		logger:           params.Logger,
	}
}

// HandleEvent dispatches a verified webhook event. Only charge.success is
// processed; everything else is logged and dropped. Replays never change
// financial state twice.
func (s *paymentService) HandleEvent(ctx context.Context, event *usecase.WebhookEvent) error {
	if event.Event != "charge.success" {
		s.logger.Info("ignoring webhook event", slog.String("event", event.Event))

		return nil
	}

	meta, err := parseMetadata(event.Data.Metadata)
	if err != nil {
		s.logger.Warn("webhook metadata unparseable",
			slog.String("reference", event.Data.Reference), slog.Any("error", err))

		return nil
	}

	switch metaString(meta, "type") {
	case "membership":
		return s.reconcileMembership(ctx, meta)
	case "order":
		return s.reconcileOrder(ctx, meta)
	case "cluster_order":
		return s.reconcileClusterOrder(ctx, meta, event.Data)
	default:
		s.logger.Warn("webhook metadata has unknown type",
			slog.String("reference", event.Data.Reference))

		return nil
	}
}

// reconcileMembership marks the member paid and completes any pending
// cluster join.
func (s *paymentService) reconcileMembership(ctx context.Context, meta map[string]any) error {
	phone := metaString(meta, "phone")
	member, err := s.memberRepo.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			s.logger.Warn("membership payment for unknown member", slog.String("phone", phone))

			return nil
		}

		return errors.Wrap(err, "failed to load member")
	}

	alreadyPaid := member.IsPaid()
	member.PaymentStatus = entity.PaymentPaid
	if plan := entity.MembershipType(metaString(meta, "plan")); plan.IsValid() {
		member.MembershipType = plan
	}
	member.UpdatedAt = time.Now()
	if err := s.memberRepo.Update(ctx, member); err != nil {
		return errors.Wrap(err, "failed to mark member paid")
	}

	if alreadyPaid {
		// Replay; state is already settled and notifications went out once.
		return nil
	}

	s.record(ctx, entity.NotificationMembershipPaid,
		fmt.Sprintf("Membership payment received from %s (%s)", phone, member.MembershipType),
		map[string]any{"phone": phone})

	s.send(ctx, phone, "Your membership payment is confirmed. Welcome aboard! Send me a product name any time to start shopping.")

	// Complete a join that was blocked on the membership payment.
	if member.PendingClusterID != "" {
		pendingID := member.PendingClusterID
		member.PendingClusterID = ""
		if err := s.memberRepo.Update(ctx, member); err != nil {
			return errors.Wrap(err, "failed to clear pending cluster")
		}
		if _, err := s.clusterUsecase.JoinCluster(ctx, member, pendingID); err != nil {
			s.logger.Warn("pending cluster join failed",
				slog.String("phone", phone), slog.String("cluster_id", pendingID), slog.Any("error", err))
		} else {
			s.send(ctx, phone, "You're in! Your pending cluster join is now complete.")
		}
	}

	return nil
}

// reconcileOrder sets the order PAID by slug and runs the referral engine.
func (s *paymentService) reconcileOrder(ctx context.Context, meta map[string]any) error {
	slug := metaString(meta, "order_slug")
	order, err := s.orderRepo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			s.logger.Warn("payment for unknown order slug", slog.String("slug", slug))

			return nil
		}

		return errors.Wrap(err, "failed to load order")
	}

	if order.Status == entity.OrderPaid {
		return nil
	}

	if err := s.orderRepo.SetStatusBySlug(ctx, slug, entity.OrderPaid); err != nil {
		return errors.Wrap(err, "failed to set order paid")
	}
	order.Status = entity.OrderPaid

	s.record(ctx, entity.NotificationOrderPaid,
		fmt.Sprintf("Order %s paid in full (₦%.2f)", slug, float64(order.TotalKobo)/100),
		map[string]any{"slug": slug})

	s.send(ctx, order.MemberPhone,
		fmt.Sprintf("Payment received for order %s. We'll message you when it's dispatched.", slug))

	if err := s.referralUsecase.AwardIfEligible(ctx, order); err != nil {
		s.logger.Warn("referral award failed", slog.String("slug", slug), slog.Any("error", err))
	}

	return nil
}

// reconcileClusterOrder upserts the payer's share, recomputes the paid
// amount from PAID entries and completes the order on the first time the
// cluster covers its target.
func (s *paymentService) reconcileClusterOrder(ctx context.Context, meta map[string]any, data usecase.WebhookData) error {
	slug := metaString(meta, "order_slug")
	phone := metaString(meta, "phone")

	order, err := s.orderRepo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			s.logger.Warn("cluster payment for unknown order slug", slog.String("slug", slug))

			return nil
		}

		return errors.Wrap(err, "failed to load order")
	}

	payerName := phone
	if payer, err := s.memberRepo.FindByPhone(ctx, phone); err == nil && payer.Name != "" {
		payerName = payer.Name
	}

	now := time.Now()
	payment := entity.ClusterPayment{
		Phone:      phone,
		AmountKobo: data.AmountKobo,
		Status:     entity.SharePaid,
		Reference:  data.Reference,
		PayerName:  payerName,
		PaidAt:     &now,
	}
	if err := s.orderRepo.UpsertClusterPayment(ctx, slug, payment); err != nil {
		return errors.Wrap(err, "failed to upsert cluster payment")
	}

	// Recompute from the stored entries rather than incrementing, so a
	// replayed delivery converges to the same amount.
	order, err = s.orderRepo.FindBySlug(ctx, slug)
	if err != nil {
		return errors.Wrap(err, "failed to reload order")
	}

	paidAmount, paidCount := order.PaidShareTotals()
	if err := s.orderRepo.SetClusterPaidAmount(ctx, slug, paidAmount); err != nil {
		return errors.Wrap(err, "failed to store cluster paid amount")
	}

	expected := len(order.ClusterMembers)
	if v := metaInt(meta, "expected_members"); v > 0 {
		expected = v
	}

	allPaid := paidAmount >= order.TotalKobo || (expected > 0 && paidCount >= expected)
	if !allPaid || order.Status == entity.OrderPaid {
		return nil
	}

	if err := s.orderRepo.SetStatusBySlug(ctx, slug, entity.OrderPaid); err != nil {
		return errors.Wrap(err, "failed to set cluster order paid")
	}
	order.Status = entity.OrderPaid

	s.record(ctx, entity.NotificationOrderPaid,
		fmt.Sprintf("Cluster order %s fully paid (₦%.2f across %d members)", slug, float64(paidAmount)/100, paidCount),
		map[string]any{"slug": slug, "cluster_id": order.ClusterID})

	s.send(ctx, order.ClusterOwnerPhone,
		fmt.Sprintf("Cluster order %s is fully paid. We'll message everyone when it's dispatched.", slug))
	for _, memberPhone := range order.ClusterMembers {
		if memberPhone == order.ClusterOwnerPhone {
			continue
		}
		s.send(ctx, memberPhone,
			fmt.Sprintf("Your cluster order %s is fully paid and on its way to dispatch.", slug))
	}

	if err := s.referralUsecase.AwardIfEligible(ctx, order); err != nil {
		s.logger.Warn("referral award failed", slog.String("slug", slug), slog.Any("error", err))
	}

	return nil
}

func (s *paymentService) record(ctx context.Context, kind entity.NotificationType, message string, metadata map[string]any) {
	notification := &entity.Notification{
		Type:      kind,
		Message:   message,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		s.logger.Warn("failed to record notification", slog.Any("error", err))
	}
}

func (s *paymentService) send(ctx context.Context, phone string, body string) {
	if _, err := s.messenger.Send(ctx, phone, body, ""); err != nil {
		s.logger.Warn("webhook notice delivery failed",
			slog.String("phone", phone), slog.Any("error", err))
	}
}

// parseMetadata accepts either an object or a JSON-encoded string, which is
// how the provider round-trips metadata depending on the channel.
func parseMetadata(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	case string:
		if v == "" {
			return map[string]any{}, nil
		}
		var meta map[string]any
		if err := json.Unmarshal([]byte(v), &meta); err != nil {
			return nil, errors.Wrap(err, "failed to decode stringified metadata")
		}

		return meta, nil
	default:
		return nil, errors.Errorf("unexpected metadata type %T", raw)
	}
}

func metaString(meta map[string]any, key string) string {
	v, _ := meta[key].(string)

	return v
}

func metaInt(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}

		return 0
	default:
		return 0
	}
}
