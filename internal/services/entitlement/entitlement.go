// Package services содержит резолвер состояния прав пользователя:
// чистое вычисление пробного периода, оставшихся дней и признака истечения.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/eventlens/entitlement-engine/internal/lib/sl"
	"github.com/eventlens/entitlement-engine/internal/metrics"
	"github.com/eventlens/entitlement-engine/internal/models"
)

const (
	// TrialDays — длительность бесплатного пробного периода в днях.
	TrialDays = 15
	// PaidPlanDays — длительность платного тарифа по умолчанию в днях.
	PaidPlanDays = 365
)

// Clock отдаёт текущее время; подменяется в тестах.
type Clock func() time.Time

// Resolve вычисляет состояние прав по снимку пользователя и моменту времени.
// Функция детерминированная, без ввода-вывода и побочных эффектов.
//
// Для платных тарифов оставшиеся дни считаются по цепочке фолбэков:
// дата активации тарифа, затем days_remaining из биллинга, затем дата
// окончания подписки, иначе полный срок тарифа. Платный тариф никогда
// не считается истекшим: просроченная оплата — забота биллинга,
// а не блокировки доступа.
func Resolve(user models.UserSnapshot, now time.Time) models.EntitlementState {
	tier := models.ParseTier(pickRawTier(user))
	if tier.IsPaid() {
		return models.EntitlementState{
			HasPaidPlan:   true,
			Tier:          tier,
			DaysRemaining: paidDaysRemaining(user, now),
		}
	}

	if user.CreatedAt == nil {
		// Неизвестная дата регистрации: открываем доступ на полный пробный срок.
		return models.EntitlementState{
			Tier:          models.TierFree,
			IsOnTrial:     true,
			DaysRemaining: TrialDays,
		}
	}

	daysUsed := int(now.Sub(*user.CreatedAt).Hours() / 24)
	if daysUsed < 0 {
		daysUsed = 0
	}
	daysRemaining := TrialDays - daysUsed
	if daysRemaining < 0 {
		daysRemaining = 0
	}
	return models.EntitlementState{
		Tier:          models.TierFree,
		IsOnTrial:     true,
		IsExpired:     daysRemaining <= 0,
		DaysRemaining: daysRemaining,
		DaysUsed:      daysUsed,
	}
}

// pickRawTier выбирает сырое значение тарифа: план пользователя,
// затем тариф подписки.
func pickRawTier(user models.UserSnapshot) string {
	if user.Plan != "" {
		return user.Plan
	}
	if user.Subscription != nil {
		return user.Subscription.Tier
	}
	return ""
}

func paidDaysRemaining(user models.UserSnapshot, now time.Time) int {
	if user.PlanActivatedAt != nil {
		expiry := user.PlanActivatedAt.AddDate(0, 0, PaidPlanDays)
		return ceilDays(expiry.Sub(now))
	}
	if user.Subscription != nil {
		if user.Subscription.DaysRemaining != nil {
			return *user.Subscription.DaysRemaining
		}
		if user.Subscription.EndDate != nil {
			return ceilDays(user.Subscription.EndDate.Sub(now))
		}
	}
	return PaidPlanDays
}

// ceilDays переводит длительность в дни с округлением вверх и нижней границей 0.
func ceilDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	const day = 24 * time.Hour
	days := int(d / day)
	if d%day != 0 {
		days++
	}
	return days
}

// UserRepository описывает доступ к снимкам пользователей в хранилище.
type UserRepository interface {
	GetUserByUsername(ctx context.Context, username string) (*models.UserSnapshot, error)
}

// EntitlementService вычисляет состояние прав для пользователя из хранилища.
type EntitlementService struct {
	users   UserRepository
	log     *slog.Logger
	metrics metrics.Recorder
	now     Clock
}

// NewEntitlementService создает новый экземпляр EntitlementService.
// Если clock равен nil, используется time.Now.
func NewEntitlementService(users UserRepository, log *slog.Logger, rec metrics.Recorder, clock Clock) *EntitlementService {
	if clock == nil {
		clock = time.Now
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &EntitlementService{
		users:   users,
		log:     log,
		metrics: rec,
		now:     clock,
	}
}

// ResolveForUser загружает снимок пользователя и вычисляет состояние прав.
// Ошибка хранилища не блокирует пользователя: возвращается состояние
// полного пробного периода, ошибка только логируется.
func (s *EntitlementService) ResolveForUser(ctx context.Context, username string) models.EntitlementState {
	const op = "services.entitlement.ResolveForUser"

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		s.log.Error("failed to load user snapshot, falling back to open access",
			slog.String("op", op), slog.String("username", username), sl.Err(err))
		return models.EntitlementState{
			Tier:          models.TierFree,
			IsOnTrial:     true,
			DaysRemaining: TrialDays,
		}
	}
	state := Resolve(*user, s.now())
	s.metrics.RecordResolution(string(state.Tier))
	return state
}
