// Package services содержит сценарии подписки: регистрацию пользователя,
// приём оплаты, подтверждение с выдачей приглашений и аудит невыданных ссылок.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/signal-club/internal/groups"
	"github.com/magabrotheeeer/signal-club/internal/lib/sl"
	"github.com/magabrotheeeer/signal-club/internal/messaging"
	"github.com/magabrotheeeer/signal-club/internal/models"
)

// ErrInactive приглашения выдаются только по активной подписке.
var ErrInactive = errors.New("subscription is not active")

// Repository операции хранилища, которые нужны сервису.
type Repository interface {
	CreateUser(ctx context.Context, id int64, username string) (bool, error)
	GetCurrentSubscription(ctx context.Context, userID int64) (*models.SubscriptionInfo, error)
	GetPackage(ctx context.Context, id int) (*models.Package, error)
	ListPackages(ctx context.Context) ([]models.Package, error)
	ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
	CreateTransaction(ctx context.Context, tx models.Transaction) (int64, error)
	GetTransaction(ctx context.Context, id int64) (*models.TransactionInfo, error)
	SetTransactionStatus(ctx context.Context, id int64, status string) error
	CreateSubscription(ctx context.Context, userID int64, packageID int, start time.Time) (*models.Subscription, error)
	GetSubscription(ctx context.Context, id int64) (*models.SubscriptionInfo, error)
	SetInviteStatus(ctx context.Context, id int64, status string) error
	ListUninvitedSubscriptions(ctx context.Context) ([]models.SubscriptionInfo, error)
}

// Transport отправка сообщений и выдача одноразовых приглашений.
type Transport interface {
	messaging.Sender
	messaging.Inviter
}

// GroupLookup группы, доступ к которым даёт тариф.
type GroupLookup interface {
	ForAssets(assets string) map[string]int64
}

// InviteResult итог выдачи приглашений по подписке.
type InviteResult struct {
	SubscriptionID int64             `json:"subscription_id"`
	Links          map[string]string `json:"links"`
	Failed         []string          `json:"failed,omitempty"`
	Sent           bool              `json:"sent"`
}

// SubscriptionService сценарии подписки.
type SubscriptionService struct {
	repo      Repository
	transport Transport
	groups    GroupLookup
	inviteTTL time.Duration
	adminID   int64
	now       func() time.Time
	log       *slog.Logger
}

// NewSubscriptionService создаёт сервис. adminID получает уведомления о новых заявках,
// ноль отключает уведомления.
func NewSubscriptionService(repo Repository, transport Transport, groups GroupLookup,
	inviteTTL time.Duration, adminID int64, log *slog.Logger) *SubscriptionService {
	if inviteTTL <= 0 {
		inviteTTL = 24 * time.Hour
	}
	return &SubscriptionService{
		repo:      repo,
		transport: transport,
		groups:    groups,
		inviteTTL: inviteTTL,
		adminID:   adminID,
		now:       time.Now,
		log:       log.With(slog.String("component", "subscription")),
	}
}

// RegisterUser регистрирует пользователя при первом обращении.
func (s *SubscriptionService) RegisterUser(ctx context.Context, req models.DummyUser) (bool, error) {
	const op = "services.SubscriptionService.RegisterUser"
	created, err := s.repo.CreateUser(ctx, req.ID, req.Username)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if created {
		s.log.Info("user registered", slog.Int64("user_id", req.ID))
	}
	return created, nil
}

// CurrentSubscription возвращает последнюю активную подписку пользователя.
func (s *SubscriptionService) CurrentSubscription(ctx context.Context, userID int64) (*models.SubscriptionInfo, error) {
	const op = "services.SubscriptionService.CurrentSubscription"
	sub, err := s.repo.GetCurrentSubscription(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// Packages возвращает доступные тарифы.
func (s *SubscriptionService) Packages(ctx context.Context) ([]models.Package, error) {
	const op = "services.SubscriptionService.Packages"
	list, err := s.repo.ListPackages(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// PaymentMethods возвращает способы оплаты.
func (s *SubscriptionService) PaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	const op = "services.SubscriptionService.PaymentMethods"
	list, err := s.repo.ListPaymentMethods(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// SubmitTransaction сохраняет заявку на оплату. Сумма берётся из цены тарифа.
func (s *SubscriptionService) SubmitTransaction(ctx context.Context, req models.DummyTransaction) (int64, error) {
	const op = "services.SubscriptionService.SubmitTransaction"

	if _, err := s.repo.CreateUser(ctx, req.UserID, ""); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	pkg, err := s.repo.GetPackage(ctx, req.PackageID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	id, err := s.repo.CreateTransaction(ctx, models.Transaction{
		UserID:    req.UserID,
		PackageID: pkg.ID,
		Amount:    pkg.Price,
		ProofRef:  req.ProofRef,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("transaction submitted", slog.Int64("transaction_id", id), slog.Int64("user_id", req.UserID))

	if s.adminID != 0 {
		msg := fmt.Sprintf("🔔 New subscription request\n\nUser: %d\nPlan: %s\nAmount: %s\nTx ID: %d",
			req.UserID, pkg.Name, pkg.Price.StringFixed(0), id)
		if err := s.transport.SendMessage(ctx, s.adminID, msg, messaging.FormatPlain); err != nil {
			s.log.Warn("failed to notify admin", slog.Int64("transaction_id", id), sl.Err(err))
		}
	}
	return id, nil
}

// ConfirmTransaction подтверждает оплату, создаёт подписку и выдаёт приглашения
// в группы тарифа. Повторное подтверждение возвращает repository.ErrNotPending.
func (s *SubscriptionService) ConfirmTransaction(ctx context.Context, txID int64) (*InviteResult, error) {
	const op = "services.SubscriptionService.ConfirmTransaction"

	tx, err := s.repo.GetTransaction(ctx, txID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.SetTransactionStatus(ctx, txID, models.TransactionConfirmed); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub, err := s.repo.CreateSubscription(ctx, tx.UserID, tx.PackageID, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log := s.log.With(slog.Int64("transaction_id", txID), slog.Int64("subscription_id", sub.ID))
	log.Info("transaction confirmed", slog.Int64("user_id", tx.UserID))

	result := s.issueInvites(ctx, sub.ID, tx.UserID, tx.Package.Assets)
	if err := s.markSent(ctx, result); err != nil {
		log.Error("failed to update invite status", sl.Err(err))
	}

	msg := "🎉 Payment accepted!\nYour subscription is now active." + inviteText(result)
	if err := s.transport.SendMessage(ctx, tx.UserID, msg, messaging.FormatPlain); err != nil {
		log.Warn("failed to notify user", sl.Err(err))
	}
	if len(result.Failed) > 0 {
		log.Warn("invite links failed", slog.String("groups", strings.Join(result.Failed, ",")))
	}
	return result, nil
}

// RejectTransaction отклоняет заявку и сообщает об этом пользователю.
func (s *SubscriptionService) RejectTransaction(ctx context.Context, txID int64) error {
	const op = "services.SubscriptionService.RejectTransaction"

	tx, err := s.repo.GetTransaction(ctx, txID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.SetTransactionStatus(ctx, txID, models.TransactionRejected); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("transaction rejected", slog.Int64("transaction_id", txID), slog.Int64("user_id", tx.UserID))

	msg := "⚠️ Payment rejected.\nPlease contact admin for more info."
	if err := s.transport.SendMessage(ctx, tx.UserID, msg, messaging.FormatPlain); err != nil {
		s.log.Warn("failed to notify user", slog.Int64("transaction_id", txID), sl.Err(err))
	}
	return nil
}

// ReissueInvites повторно выдаёт приглашения по активной подписке.
func (s *SubscriptionService) ReissueInvites(ctx context.Context, subID int64) (*InviteResult, error) {
	const op = "services.SubscriptionService.ReissueInvites"

	sub, err := s.repo.GetSubscription(ctx, subID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sub.Status != models.SubscriptionActive {
		return nil, fmt.Errorf("%s: %w", op, ErrInactive)
	}

	result := s.issueInvites(ctx, sub.ID, sub.UserID, sub.Assets)
	if err := s.markSent(ctx, result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(result.Links) > 0 {
		msg := "🔗 Your invite links were reissued." + inviteText(result)
		if err := s.transport.SendMessage(ctx, sub.UserID, msg, messaging.FormatPlain); err != nil {
			s.log.Warn("failed to send reissued links", slog.Int64("subscription_id", subID), sl.Err(err))
		}
	}
	return result, nil
}

// ListUninvited активные подписки без выданных приглашений.
func (s *SubscriptionService) ListUninvited(ctx context.Context) ([]models.SubscriptionInfo, error) {
	const op = "services.SubscriptionService.ListUninvited"
	list, err := s.repo.ListUninvitedSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

func (s *SubscriptionService) issueInvites(ctx context.Context, subID, userID int64, assets string) *InviteResult {
	targets := s.groups.ForAssets(assets)
	result := &InviteResult{SubscriptionID: subID, Links: make(map[string]string, len(targets))}
	expiry := s.now().Add(s.inviteTTL)

	for _, cat := range groups.Categories {
		groupID, ok := targets[cat]
		if !ok {
			continue
		}
		link, err := s.transport.CreateSingleUseInvite(ctx, groupID, userID, expiry)
		if err != nil {
			s.log.Warn("failed to create invite link",
				slog.Int64("subscription_id", subID), slog.String("category", cat), sl.Err(err))
			result.Failed = append(result.Failed, cat)
			continue
		}
		result.Links[cat] = link
	}
	result.Sent = len(targets) > 0 && len(result.Failed) == 0
	return result
}

func (s *SubscriptionService) markSent(ctx context.Context, result *InviteResult) error {
	if !result.Sent {
		return nil
	}
	return s.repo.SetInviteStatus(ctx, result.SubscriptionID, models.InviteSent)
}

func inviteText(result *InviteResult) string {
	var b strings.Builder
	if len(result.Links) > 0 {
		b.WriteString("\n\n🔗 Join links:")
		for _, cat := range groups.Categories {
			if link, ok := result.Links[cat]; ok {
				fmt.Fprintf(&b, "\n- %s: %s", strings.ToUpper(cat), link)
			}
		}
	}
	if len(result.Failed) > 0 {
		fmt.Fprintf(&b, "\n\n⚠️ Failed to generate links for: %s. Admin will contact you.",
			strings.Join(result.Failed, ", "))
	}
	return b.String()
}
