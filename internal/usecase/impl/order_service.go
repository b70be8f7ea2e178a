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

type orderService struct {
	orderRepo        repository.OrderRepository
	counterRepo      repository.CounterRepository
	notificationRepo repository.NotificationRepository
	cartUsecase      usecase.CartUsecase
	gateway          service.PaymentGateway
	messenger        service.Messenger
	config           *config.Config
	logger           *slog.Logger
}

// OrderServiceParams holds dependencies for OrderService, injected by Fx.
type OrderServiceParams struct {
	fx.In

	OrderRepo        repository.OrderRepository
	CounterRepo      repository.CounterRepository
	NotificationRepo repository.NotificationRepository
	CartUsecase      usecase.CartUsecase
	Gateway          service.PaymentGateway
	Messenger        service.Messenger
	Config           *config.Config
	Logger           *slog.Logger
}

// NewOrderService creates a new order service instance
func NewOrderService(params OrderServiceParams) usecase.OrderUsecase {
	return &orderService{
		orderRepo:        params.OrderRepo,
		counterRepo:      params.CounterRepo,
		notificationRepo: params.NotificationRepo,
		cartUsecase:      params.CartUsecase,
		gateway:          params.Gateway,
		messenger:        params.Messenger,
		config:           params.Config,
		logger:           params.Logger,
	}
}

// SplitShares divides totalKobo across n payers so the shares always sum back
// to the total: everyone pays total/n, and the first total%n payers carry one
// extra kobo each.
func SplitShares(totalKobo int64, n int) []int64 {
	if n <= 0 {
		return nil
	}

	base := totalKobo / int64(n)
	remainder := totalKobo % int64(n)

	shares := make([]int64, n)
	for i := range shares {
		shares[i] = base
		if int64(i) < remainder {
			shares[i]++
		}
	}

	return shares
}

// SlugPrefix derives the order slug prefix from a member's city.
func SlugPrefix(city string) string {
	c := strings.ToLower(city)
	switch {
	case strings.Contains(c, "lagos"):
		return "LAG"
	case strings.Contains(c, "abuja"):
		return "ABJ"
	case strings.Contains(c, "ph"), strings.Contains(c, "port"):
		return "PH"
	default:
		return "GEN"
	}
}

// CreateOrderFromCart turns the member's active cart into an order, assigns a
// counter-backed slug, clears the source cart and issues payment links.
func (s *orderService) CreateOrderFromCart(ctx context.Context, member *entity.Member) (*usecase.CheckoutResult, error) {
	active, err := s.cartUsecase.GetActiveCart(ctx, member, false)
	if err != nil {
		return nil, err
	}

	if active.IsCluster && !active.Cluster.IsOwner(member.Phone) {
		return nil, domainerrors.ErrCheckoutRestricted
	}
	if len(active.Items) == 0 {
		return nil, domainerrors.ErrCartEmpty
	}

	subtotal := active.SubtotalKobo()
	deliveryFee := s.config.Commerce.DeliveryFeeKobo
	total := subtotal + deliveryFee

	slug, err := s.nextSlug(ctx, member.City)
	if err != nil {
		return nil, err
	}

	order := &entity.Order{
		MemberPhone:     member.Phone,
		Items:           active.Items,
		SubtotalKobo:    subtotal,
		DeliveryFeeKobo: deliveryFee,
		TotalKobo:       total,
		Status:          entity.OrderNew,
		Slug:            slug,
		City:            member.City,
		Address:         member.Address,
		CreatedAt:       time.Now(),
	}
	if active.IsCluster {
		order.ClusterID = active.Cluster.ID
		order.ClusterName = active.Cluster.Name
		order.ClusterOwnerPhone = active.Cluster.OwnerPhone
		order.ClusterMembers = append([]string(nil), active.Cluster.Members...)
	}

	if _, err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, errors.Wrap(err, "failed to create order")
	}

	if err := s.cartUsecase.ClearActiveCart(ctx, member); err != nil {
		s.logger.Warn("failed to clear cart after checkout",
			slog.String("slug", slug), slog.Any("error", err))
	}

	s.recordNotification(ctx, entity.NotificationNewOrder,
		fmt.Sprintf("New order %s from %s, total ₦%.2f", slug, member.Phone, float64(total)/100),
		map[string]any{"slug": slug, "phone": member.Phone})

	result := &usecase.CheckoutResult{Order: order}
	if active.IsCluster {
		result.ShareLinks = s.initClusterPayments(ctx, order)
	} else {
		result.PaymentURL = s.initPersonalPayment(ctx, order)
	}

	order.Status = entity.OrderWaitingPayment
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, errors.Wrap(err, "failed to update order after payment init")
	}

	return result, nil
}

// orderLinePattern matches one comma-separated order line: item words, an
// optional size token like 5kg, and an optional xN quantity suffix.
var orderLinePattern = regexp.MustCompile(`^([A-Za-z0-9 ]+?)(?:\s+([0-9]+[A-Za-z]+))?\s*(?:x\s*([0-9]+))?$`)

// parseOrderLines reads a free-text item list like "Rice 5kg x2, Beans 1kg".
// Quantities default to 1; lines that don't parse are skipped.
func parseOrderLines(text string) []entity.LineItem {
	var items []entity.LineItem
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		match := orderLinePattern.FindStringSubmatch(part)
		if match == nil {
			continue
		}

		name := strings.TrimSpace(match[1])
		if match[2] != "" {
			name += " " + match[2]
		}
		qty := 1
		if match[3] != "" {
			qty, _ = strconv.Atoi(match[3])
		}
		items = append(items, entity.LineItem{SKU: name, Name: name, Qty: max(qty, 1)})
	}

	return items
}

// CreateOrderFromText captures a free-text item list as an order. Prices are
// unknown at capture time, so the order carries a zero total and waits for
// the team to confirm it; no payment link is issued.
func (s *orderService) CreateOrderFromText(ctx context.Context, member *entity.Member, text string) (*entity.Order, error) {
	items := parseOrderLines(text)
	if len(items) == 0 {
		return nil, domainerrors.ErrOrderUnparsed
	}

	slug, err := s.nextSlug(ctx, member.City)
	if err != nil {
		return nil, err
	}

	order := &entity.Order{
		MemberPhone: member.Phone,
		Items:       items,
		Status:      entity.OrderWaitingPayment,
		Slug:        slug,
		City:        member.City,
		Address:     member.Address,
		CreatedAt:   time.Now(),
	}
	if _, err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, errors.Wrap(err, "failed to create order")
	}

	s.recordNotification(ctx, entity.NotificationNewOrder,
		fmt.Sprintf("Text order %s from %s, %d lines awaiting pricing", slug, member.Phone, len(items)),
		map[string]any{"slug": slug, "phone": member.Phone})

	return order, nil
}

// initPersonalPayment creates the single payment link for a personal order.
// Failure leaves the URL empty; the member can retry from the order status.
func (s *orderService) initPersonalPayment(ctx context.Context, order *entity.Order) string {
	tx, err := s.gateway.InitializeTransaction(ctx, s.virtualEmail(order.MemberPhone), order.TotalKobo, map[string]any{
		"type":       "order",
		"order_slug": order.Slug,
		"phone":      order.MemberPhone,
	})
	if err != nil {
		s.logger.Error("payment init failed",
			slog.String("slug", order.Slug), slog.Any("error", err))

		return ""
	}

	order.PaymentRef = tx.Reference

	return tx.AuthorizationURL
}

// initClusterPayments splits the total across members, initializes one
// transaction per member and pushes each their link. Per-member failures are
// collected, not fatal.
func (s *orderService) initClusterPayments(ctx context.Context, order *entity.Order) []usecase.ShareLink {
	members := order.ClusterMembers
	shares := SplitShares(order.TotalKobo, len(members))
	links := make([]usecase.ShareLink, len(members))

	for i, phone := range members {
		links[i] = usecase.ShareLink{Phone: phone, AmountKobo: shares[i]}

		tx, err := s.gateway.InitializeTransaction(ctx, s.virtualEmail(phone), shares[i], map[string]any{
			"type":             "cluster_order",
			"order_slug":       order.Slug,
			"phone":            phone,
			"cluster_id":       order.ClusterID,
			"expected_members": len(members),
		})
		if err != nil {
			s.logger.Error("cluster share init failed",
				slog.String("slug", order.Slug), slog.String("phone", phone), slog.Any("error", err))
			links[i].Err = err

			continue
		}
		links[i].AuthorizationURL = tx.AuthorizationURL

		payment := entity.ClusterPayment{
			Phone:      phone,
			AmountKobo: shares[i],
			Status:     entity.SharePending,
			Reference:  tx.Reference,
		}
		if err := s.orderRepo.UpsertClusterPayment(ctx, order.Slug, payment); err != nil {
			s.logger.Error("failed to seed cluster payment entry",
				slog.String("slug", order.Slug), slog.String("phone", phone), slog.Any("error", err))
		}
		order.ClusterPayments = append(order.ClusterPayments, payment)

		body := fmt.Sprintf("Your share of cluster order %s is ₦%.2f. Pay here: %s",
			order.Slug, float64(shares[i])/100, tx.AuthorizationURL)
		if _, err := s.messenger.Send(ctx, phone, body, ""); err != nil {
			s.logger.Warn("share link delivery failed",
				slog.String("slug", order.Slug), slog.String("phone", phone), slog.Any("error", err))
			links[i].Err = err
		}
	}

	return links
}

// GetOrder retrieves an order by slug.
func (s *orderService) GetOrder(ctx context.Context, slug string) (*entity.Order, error) {
	order, err := s.orderRepo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, domainerrors.ErrOrderNotFound
		}

		return nil, errors.Wrap(err, "failed to find order")
	}

	return order, nil
}

// MarkPaid sets the order PAID, used by the admin mark-paid command.
func (s *orderService) MarkPaid(ctx context.Context, slug string) error {
	order, err := s.GetOrder(ctx, slug)
	if err != nil {
		return err
	}

	if err := s.orderRepo.SetStatusBySlug(ctx, slug, entity.OrderPaid); err != nil {
		return errors.Wrap(err, "failed to mark order paid")
	}

	body := fmt.Sprintf("Your order %s has been confirmed as paid. We'll update you when it ships.", slug)
	if _, err := s.messenger.Send(ctx, order.MemberPhone, body, ""); err != nil {
		s.logger.Warn("paid notice delivery failed", slog.String("slug", slug), slog.Any("error", err))
	}

	return nil
}

// ListRecent retrieves the newest orders for the admin views.
func (s *orderService) ListRecent(ctx context.Context, limit int) ([]entity.Order, error) {
	orders, err := s.orderRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list orders")
	}

	return orders, nil
}

// nextSlug draws the next per-city sequence number atomically and formats
// the slug. Two concurrent checkouts can never share a slug.
func (s *orderService) nextSlug(ctx context.Context, city string) (string, error) {
	prefix := SlugPrefix(city)
	seq, err := s.counterRepo.Next(ctx, "order_slug_"+prefix)
	if err != nil {
		return "", errors.Wrap(err, "failed to draw slug sequence")
	}

	return fmt.Sprintf("%s-%03d", prefix, seq), nil
}

func (s *orderService) virtualEmail(phone string) string {
	digits := strings.TrimPrefix(strings.TrimPrefix(phone, "whatsapp:"), "+")

	return digits + "@" + s.config.Paystack.EmailDomain
}

func (s *orderService) recordNotification(ctx context.Context, kind entity.NotificationType, message string, metadata map[string]any) {
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
