// Package client реализует REST-клиент движка прав: счётчик
// непрочитанных, последние уведомления и состояние обслуживания.
// Используется поллером клиентского ядра.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/eventlens/entitlement-engine/internal/models"
)

// Client — HTTP-клиент API движка прав.
type Client struct {
	apiURL     string
	token      string
	httpClient *http.Client
}

// New создаёт новый клиент API. apiURL — базовый адрес сервера
// вместе с префиксом версии, например "http://localhost:8080/api/v1".
func New(apiURL, token string) *Client {
	return &Client{
		apiURL:     apiURL,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SetToken заменяет bearer-токен после повторного логина.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// envelope повторяет формат ответов сервера.
type envelope struct {
	Status string          `json:"status"`
	Error  string          `json:"error"`
	Data   json.RawMessage `json:"data"`
}

// decodeEnvelope проверяет статус ответа и разбирает конверт сервера.
// На ошибочном статусе тело может и не быть конвертом, например ответ
// ограничителя частоты: ошибка разбора тогда не скрывает сам статус.
func decodeEnvelope(resp *http.Response) (*envelope, error) {
	var env envelope
	if resp.StatusCode != http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&env); err == nil && env.Error != "" {
			return nil, errors.New(env.Error)
		}
		return nil, errors.New("unexpected status: " + resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	env, err := decodeEnvelope(resp)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// Login аутентифицирует пользователя и запоминает полученный токен
// для последующих запросов.
func (c *Client) Login(ctx context.Context, username, password string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	env, err := decodeEnvelope(resp)
	if err != nil {
		return err
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return err
	}
	c.token = data.Token
	return nil
}

// UnreadCount возвращает число непрочитанных уведомлений пользователя.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var data struct {
		UnreadCount int `json:"unread_count"`
	}
	if err := c.get(ctx, "/notifications/unread-count", &data); err != nil {
		return 0, err
	}
	return data.UnreadCount, nil
}

// LatestUnread возвращает самое свежее непрочитанное уведомление
// либо nil, если непрочитанных нет.
func (c *Client) LatestUnread(ctx context.Context) (*models.Notification, error) {
	var data struct {
		Notifications []*models.Notification `json:"notifications"`
	}
	if err := c.get(ctx, "/notifications?limit=1&unread_only=true", &data); err != nil {
		return nil, err
	}
	if len(data.Notifications) == 0 {
		return nil, nil
	}
	return data.Notifications[0], nil
}

// MaintenanceStatus возвращает публичное состояние окна обслуживания.
func (c *Client) MaintenanceStatus(ctx context.Context) (*models.MaintenanceStatus, error) {
	var status models.MaintenanceStatus
	if err := c.get(ctx, "/maintenance/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// MaintenanceCheck сообщает, затронут ли текущий пользователь окном
// обслуживания.
func (c *Client) MaintenanceCheck(ctx context.Context) (bool, *models.MaintenanceStatus, error) {
	var data struct {
		IsAffected  bool                     `json:"is_affected"`
		Maintenance models.MaintenanceStatus `json:"maintenance"`
	}
	if err := c.get(ctx, "/maintenance/check", &data); err != nil {
		return false, nil, err
	}
	return data.IsAffected, &data.Maintenance, nil
}

// Entitlement возвращает состояние прав текущего пользователя.
func (c *Client) Entitlement(ctx context.Context) (*models.EntitlementState, error) {
	var state models.EntitlementState
	if err := c.get(ctx, "/entitlement", &state); err != nil {
		return nil, err
	}
	return &state, nil
}
