package impl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"clustercart/config"
	"clustercart/internal/domain/entity"
	domainerrors "clustercart/internal/domain/errors"
	"clustercart/internal/domain/repository"
	"clustercart/internal/domain/service"
	"clustercart/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// PriceSheetSettingKey is the settings key holding the current price sheet URL.
const PriceSheetSettingKey = "price_sheet_url"

const adminUsage = `Admin commands:
/orders - latest orders
/members - latest members
/mark_paid <slug> - mark an order paid
/broadcast <message> - message all members
/set_price_sheet <url> - update the price sheet link`

type adminService struct {
	memberRepo       repository.MemberRepository
	settingRepo      repository.SettingRepository
	notificationRepo repository.NotificationRepository
	orderUsecase     usecase.OrderUsecase
	messenger        service.Messenger
	hasher           service.PasswordHasher
	tokenService     service.TokenService
	config           *config.Config
	logger           *slog.Logger

	adminPhones map[string]struct{}
}

// AdminServiceParams holds dependencies for AdminService, injected by Fx.
type AdminServiceParams struct {
	fx.In

	MemberRepo       repository.MemberRepository
	SettingRepo      repository.SettingRepository
	NotificationRepo repository.NotificationRepository
	OrderUsecase     usecase.OrderUsecase
	Messenger        service.Messenger
	Hasher           service.PasswordHasher
	TokenService     service.TokenService
	Config           *config.Config
	Logger           *slog.Logger
}

// NewAdminService creates a new admin service instance
func NewAdminService(params AdminServiceParams) usecase.AdminUsecase {
	phones := make(map[string]struct{}, len(params.Config.Admin.Phones))
	for _, p := range params.Config.Admin.Phones {
		phones[NormalizePhone(p)] = struct{}{}
	}

	return &adminService{
		memberRepo:       params.MemberRepo,
		settingRepo:      params.SettingRepo,
		notificationRepo: params.NotificationRepo,
		orderUsecase:     params.OrderUsecase,
		messenger:        params.Messenger,
		hasher:           params.Hasher,
		tokenService:     params.TokenService,
		config:           params.Config,
		logger:           params.Logger,
		adminPhones:      phones,
	}
}

// IsAdmin reports whether the phone is on the admin allow-list.
func (s *adminService) IsAdmin(phone string) bool {
	_, ok := s.adminPhones[NormalizePhone(phone)]

	return ok
}

// HandleCommand executes a slash command from an admin phone and returns the
// reply text. Unknown commands return usage help.
func (s *adminService) HandleCommand(ctx context.Context, phone string, command string) (string, error) {
	if !s.IsAdmin(phone) {
		return "", domainerrors.ErrForbidden
	}

	fields := strings.Fields(strings.TrimSpace(command))
	if len(fields) == 0 {
		return adminUsage, nil
	}
	name := strings.ToLower(fields[0])
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(command), fields[0]))

	switch name {
	case "/orders":
		return s.ordersSummary(ctx)
	case "/members":
		return s.membersSummary(ctx)
	case "/mark_paid":
		if rest == "" {
			return "Usage: /mark_paid <slug>", nil
		}

		return s.markPaid(ctx, strings.ToUpper(rest))
	case "/broadcast":
		if rest == "" {
			return "Usage: /broadcast <message>", nil
		}
		result, err := s.Broadcast(ctx, rest)
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("Broadcast sent to %d members (%d failed).", result.Sent, result.Failed), nil
	case "/set_price_sheet":
		if rest == "" {
			return "Usage: /set_price_sheet <url>", nil
		}
		if err := s.settingRepo.Set(ctx, PriceSheetSettingKey, rest); err != nil {
			return "", errors.Wrap(err, "failed to store price sheet url")
		}

		return "Price sheet updated.", nil
	default:
		return adminUsage, nil
	}
}

// Login exchanges the dashboard password for a session token.
func (s *adminService) Login(ctx context.Context, password string) (string, error) {
	if !s.hasher.Check(password, s.config.Admin.DashPasswordHash) {
		return "", domainerrors.ErrInvalidCredentials
	}

	token, err := s.tokenService.GenerateToken("admin")
	if err != nil {
		return "", errors.Wrap(err, "failed to generate token")
	}

	return token, nil
}

// Broadcast sends the message to every member, collecting failures.
func (s *adminService) Broadcast(ctx context.Context, message string) (*usecase.BroadcastResult, error) {
	members, err := s.memberRepo.List(ctx, 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list members")
	}

	result := &usecase.BroadcastResult{}
	for _, member := range members {
		if _, err := s.messenger.Send(ctx, member.Phone, message, ""); err != nil {
			s.logger.Warn("broadcast delivery failed",
				slog.String("phone", member.Phone), slog.Any("error", err))
			result.Failed++

			continue
		}
		result.Sent++
	}

	return result, nil
}

// ListMembers retrieves members for the dashboard.
func (s *adminService) ListMembers(ctx context.Context, limit int) ([]entity.Member, error) {
	members, err := s.memberRepo.List(ctx, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list members")
	}

	return members, nil
}

// ListNotifications retrieves the newest event feed entries.
func (s *adminService) ListNotifications(ctx context.Context, limit int) ([]entity.Notification, error) {
	notifications, err := s.notificationRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}

	return notifications, nil
}

func (s *adminService) ordersSummary(ctx context.Context) (string, error) {
	orders, err := s.orderUsecase.ListRecent(ctx, 10)
	if err != nil {
		return "", err
	}
	if len(orders) == 0 {
		return "No orders yet.", nil
	}

	var b strings.Builder
	b.WriteString("Latest orders:\n")
	for _, o := range orders {
		fmt.Fprintf(&b, "%s | %s | ₦%.2f | %s\n", o.Slug, o.MemberPhone, float64(o.TotalKobo)/100, o.Status)
	}

	return strings.TrimSpace(b.String()), nil
}

func (s *adminService) membersSummary(ctx context.Context) (string, error) {
	members, err := s.memberRepo.List(ctx, 10)
	if err != nil {
		return "", errors.Wrap(err, "failed to list members")
	}
	if len(members) == 0 {
		return "No members yet.", nil
	}

	var b strings.Builder
	b.WriteString("Latest members:\n")
	for _, m := range members {
		name := m.Name
		if name == "" {
			name = "(no name)"
		}
		fmt.Fprintf(&b, "%s | %s | %s | %s\n", m.Phone, name, m.City, m.PaymentStatus)
	}

	return strings.TrimSpace(b.String()), nil
}

func (s *adminService) markPaid(ctx context.Context, slug string) (string, error) {
	if err := s.orderUsecase.MarkPaid(ctx, slug); err != nil {
		if errors.Is(err, domainerrors.ErrOrderNotFound) {
			return fmt.Sprintf("No order with slug %s.", slug), nil
		}

		return "", err
	}

	return fmt.Sprintf("Order %s marked as paid.", slug), nil
}
