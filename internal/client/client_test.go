package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_UnreadCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/notifications/unread-count", r.URL.Path)
		assert.Equal(t, "Bearer sometoken", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","data":{"unread_count":7}}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/api/v1", "sometoken")
	count, err := c.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestClient_LatestUnread(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantNil bool
		wantID  string
	}{
		{
			name:   "есть непрочитанное уведомление",
			body:   `{"status":"OK","data":{"notifications":[{"id":"n1","title":"hello"}]}}`,
			wantID: "n1",
		},
		{
			name:    "непрочитанных нет",
			body:    `{"status":"OK","data":{"notifications":[]}}`,
			wantNil: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/notifications", r.URL.Path)
				assert.Equal(t, "1", r.URL.Query().Get("limit"))
				assert.Equal(t, "true", r.URL.Query().Get("unread_only"))
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New(srv.URL+"/api/v1", "sometoken")
			n, err := c.LatestUnread(context.Background())
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, n)
			} else {
				require.NotNil(t, n)
				assert.Equal(t, tt.wantID, n.ID)
			}
		})
	}
}

func TestClient_MaintenanceCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/maintenance/check", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"OK","data":{"is_affected":true,"maintenance":{"is_enabled":true,"title":"Maintenance"}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/api/v1", "sometoken")
	affected, status, err := c.MaintenanceCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, affected)
	require.NotNil(t, status)
	assert.Equal(t, "Maintenance", status.Title)
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"Error","error":"invalid or expired token"}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/api/v1", "badtoken")
	_, err := c.UnreadCount(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid or expired token")
}

func TestClient_ServerErrorWithoutEnvelope(t *testing.T) {
	// Тело ошибочного ответа не обязано быть конвертом: статус
	// не должен теряться за ошибкой разбора JSON.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`"too many requests"`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/api/v1", "sometoken")
	_, err := c.UnreadCount(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestClient_Entitlement(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/entitlement", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"OK","data":{"has_paid_plan":false,"tier":"free","is_on_trial":true,"days_remaining":5,"days_used":10}}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/api/v1", "sometoken")
	state, err := c.Entitlement(context.Background())
	require.NoError(t, err)
	assert.True(t, state.IsOnTrial)
	assert.Equal(t, 5, state.DaysRemaining)
}
