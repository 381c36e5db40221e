package login

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/eventlens/entitlement-engine/internal/session"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Login(ctx context.Context, username, password string) (string, string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.String(1), args.Error(2)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestLoginHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешная авторизация",
			body: `{"username":"testuser","password":"secret123"}`,
			setupMock: func(m *MockService) {
				m.On("Login", mock.Anything, "testuser", "secret123").Return("sometoken", "user", nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"token":"sometoken"`,
		},
		{
			name:           "некорректный JSON",
			body:           `{not a json`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid request body"`,
		},
		{
			name:           "короткий пароль не проходит валидацию",
			body:           `{"username":"testuser","password":"123"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"status":"Error"`,
		},
		{
			name: "неверные учетные данные",
			body: `{"username":"testuser","password":"wrongpass"}`,
			setupMock: func(m *MockService) {
				m.On("Login", mock.Anything, "testuser", "wrongpass").
					Return("", "", errors.New("invalid credentials"))
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"error":"invalid credentials"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			sessions := session.NewStore()
			handler := New(newNoopLogger(), mockService, sessions)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/login", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}

func TestLoginHandler_ResetsSession(t *testing.T) {
	mockService := new(MockService)
	mockService.On("Login", mock.Anything, "testuser", "secret123").Return("sometoken", "user", nil)

	sessions := session.NewStore()
	stale := sessions.Obtain("testuser")
	stale.MarkFired("trial-expiry-7", time.Now())

	handler := New(newNoopLogger(), mockService, sessions)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/login",
		bytes.NewBufferString(`{"username":"testuser","password":"secret123"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	fresh, ok := sessions.Get("testuser")
	assert.True(t, ok)
	assert.NotSame(t, stale, fresh)
	assert.False(t, fresh.HasFired("trial-expiry-7"))
}
