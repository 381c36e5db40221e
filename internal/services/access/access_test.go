package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eventlens/entitlement-engine/internal/models"
)

func TestCanAccess(t *testing.T) {
	tests := []struct {
		name string
		tier models.Tier
		path string
		want bool
	}{
		{"бесплатный тариф видит дашборд", models.TierFree, "/dashboard", true},
		{"бесплатный тариф видит вложенную страницу проекта", models.TierFree, "/projects/42/photos", true},
		{"бесплатному тарифу закрыты сметы", models.TierFree, "/quotations", false},
		{"серебряному тарифу закрыт биллинг", models.TierSilver, "/billing", false},
		{"серебряный тариф видит календарь", models.TierSilver, "/calendar", true},
		{"золотой тариф видит сметы", models.TierGold, "/quotations", true},
		{"золотой тариф видит вложенную страницу биллинга", models.TierGold, "/billing/invoices", true},
		{"страница оплаты открыта бесплатному тарифу", models.TierFree, "/payment", true},
		{"вложенная страница оплаты открыта бесплатному тарифу", models.TierFree, "/payment/success", true},
		{"неизвестный путь закрыт всем", models.TierGold, "/admin-console", false},
		{"префикс не совпадает без разделителя", models.TierFree, "/dashboards", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccess(tt.tier, tt.path))
		})
	}
}

func TestRequiresGoldPlan(t *testing.T) {
	assert.True(t, RequiresGoldPlan("/quotations"))
	assert.True(t, RequiresGoldPlan("/billing/history"))
	assert.True(t, RequiresGoldPlan("/policy"))
	assert.False(t, RequiresGoldPlan("/dashboard"))
	assert.False(t, RequiresGoldPlan("/payment"))
}

func TestEvaluate(t *testing.T) {
	activeFree := models.EntitlementState{Tier: models.TierFree, IsOnTrial: true, DaysRemaining: 5}
	expiredFree := models.EntitlementState{Tier: models.TierFree, IsOnTrial: true, IsExpired: true}
	gold := models.EntitlementState{HasPaidPlan: true, Tier: models.TierGold, DaysRemaining: 300}

	tests := []struct {
		name string
		ent  models.EntitlementState
		path string
		want Decision
	}{
		{
			name: "активный пробный период открывает дашборд",
			ent:  activeFree,
			path: "/dashboard",
			want: Decision{Allowed: true},
		},
		{
			name: "пробный период получает предложение апгрейда на сметах",
			ent:  activeFree,
			path: "/quotations",
			want: Decision{Allowed: false, RequiresUpgrade: true, Reason: ReasonUpgradeRequired},
		},
		{
			name: "истекший пробный период закрывает дашборд",
			ent:  expiredFree,
			path: "/dashboard",
			want: Decision{Allowed: false, Reason: ReasonTrialExpired},
		},
		{
			name: "истекший пробный период пропускает к оплате",
			ent:  expiredFree,
			path: "/payment",
			want: Decision{Allowed: true},
		},
		{
			name: "истекший пробный период на золотой странице требует апгрейда",
			ent:  expiredFree,
			path: "/billing",
			want: Decision{Allowed: false, RequiresUpgrade: true, Reason: ReasonTrialExpired},
		},
		{
			name: "золотой тариф видит все страницы",
			ent:  gold,
			path: "/policy",
			want: Decision{Allowed: true},
		},
		{
			name: "неизвестный путь закрыт без предложения апгрейда",
			ent:  gold,
			path: "/internal-tools",
			want: Decision{Allowed: false, Reason: ReasonNotAllowed},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.ent, tt.path))
		})
	}
}
