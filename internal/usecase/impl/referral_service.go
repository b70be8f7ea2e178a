package impl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"clustercart/internal/domain/entity"
	"clustercart/internal/domain/repository"
	"clustercart/internal/domain/service"
	"clustercart/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// commissionRateBps is the referral commission in basis points (2%).
const commissionRateBps = 200

type referralService struct {
	memberRepo       repository.MemberRepository
	orderRepo        repository.OrderRepository
	commissionRepo   repository.CommissionRepository
	notificationRepo repository.NotificationRepository
	messenger        service.Messenger
	logger           *slog.Logger
}

// ReferralServiceParams holds dependencies for ReferralService, injected by Fx.
type ReferralServiceParams struct {
	fx.In

	MemberRepo       repository.MemberRepository
	OrderRepo        repository.OrderRepository
	CommissionRepo   repository.CommissionRepository
	NotificationRepo repository.NotificationRepository
	Messenger        service.Messenger
	Logger           *slog.Logger
}

// NewReferralService creates a new referral service instance
func NewReferralService(params ReferralServiceParams) usecase.ReferralUsecase {
	return &referralService{
		memberRepo:       params.MemberRepo,
		orderRepo:        params.OrderRepo,
		commissionRepo:   params.CommissionRepo,
		notificationRepo: params.NotificationRepo,
		messenger:        params.Messenger,
		logger:           params.Logger,
	}
}

// AwardIfEligible records a 2% commission for the order's referrer when the
// referred member is on their first paid order, the referrer is a paid
// member, and no commission exists for the pair yet. Ineligibility is a
// silent no-op.
func (s *referralService) AwardIfEligible(ctx context.Context, order *entity.Order) error {
	referred, err := s.memberRepo.FindByPhone(ctx, order.MemberPhone)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return nil
		}

		return errors.Wrap(err, "failed to load referred member")
	}

	referrerPhone := NormalizePhone(referred.ReferredBy)
	if !LooksLikePhone(referrerPhone) {
		return nil
	}

	referrer, err := s.memberRepo.FindByPhone(ctx, referrerPhone)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return nil
		}

		return errors.Wrap(err, "failed to load referrer")
	}
	if !referrer.IsPaid() {
		return nil
	}

	// Only the first paid order earns a commission. The triggering order is
	// already PAID, so a count above one means this is not the first.
	paidCount, err := s.orderRepo.CountPaidByMember(ctx, order.MemberPhone)
	if err != nil {
		return errors.Wrap(err, "failed to count paid orders")
	}
	if paidCount > 1 {
		return nil
	}

	existing, err := s.commissionRepo.CountByReferredPhone(ctx, order.MemberPhone)
	if err != nil {
		return errors.Wrap(err, "failed to count commissions")
	}
	if existing > 0 {
		return nil
	}

	amount := order.TotalKobo * commissionRateBps / 10000
	commission := &entity.Commission{
		ReferrerPhone: referrer.Phone,
		ReferredPhone: order.MemberPhone,
		OrderSlug:     order.Slug,
		AmountKobo:    amount,
		Status:        entity.CommissionPending,
		CreatedAt:     time.Now(),
	}
	if err := s.commissionRepo.Create(ctx, commission); err != nil {
		if errors.Is(err, repository.ErrCommissionExists) {
			// A replayed or concurrently processed webhook already
			// recorded the member's one commission.
			return nil
		}

		return errors.Wrap(err, "failed to record commission")
	}

	notification := &entity.Notification{
		Type:    entity.NotificationCommission,
		Message: fmt.Sprintf("Referral commission of ₦%.2f for %s on order %s", float64(amount)/100, referrer.Phone, order.Slug),
		Metadata: map[string]any{
			"referrer": referrer.Phone,
			"referred": order.MemberPhone,
			"slug":     order.Slug,
		},
		CreatedAt: time.Now(),
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		s.logger.Warn("failed to record commission notification", slog.Any("error", err))
	}

	body := fmt.Sprintf("You just earned a ₦%.2f referral commission from your friend's first order. It will be paid out with the next cycle.", float64(amount)/100)
	if _, err := s.messenger.Send(ctx, referrer.Phone, body, ""); err != nil {
		s.logger.Warn("commission notice delivery failed",
			slog.String("referrer", referrer.Phone), slog.Any("error", err))
	}

	return nil
}

// NormalizePhone strips transport prefixes and separators from a phone.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(strings.TrimPrefix(phone, "whatsapp:"))
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) || r == '+' {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// LooksLikePhone reports whether the string plausibly names a phone number.
func LooksLikePhone(s string) bool {
	digits := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits++
		}
	}

	return digits >= 10
}
