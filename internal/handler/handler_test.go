package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/config"
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/domain"
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/repository"
)

type fakePublisher struct {
	messages []*domain.NotificationMessage
}

func (p *fakePublisher) Publish(msg *domain.NotificationMessage) error {
	p.messages = append(p.messages, msg)
	return nil
}

type fakeTokenStore struct {
	revoked map[string]bool
}

func (s *fakeTokenStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if s.revoked == nil {
		s.revoked = make(map[string]bool)
	}
	s.revoked[token] = true
	return nil
}

func (s *fakeTokenStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	return s.revoked[token], nil
}

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock, *fakePublisher) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 3600
	cfg.Database.QueryTimeout = 5
	cfg.Redis.OperationExpiration = 5
	cfg.RateLimit.Burst = 1000
	cfg.RateLimit.PerSecond = 1000

	publisher := &fakePublisher{}

	h, err := NewHandler(cfg, repository.NewRepository(cfg, db), publisher, &fakeTokenStore{})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	h.RegisterRoutes()

	return h, mock, publisher
}

func testToken(t *testing.T, h *Handler, id int64, role domain.Role) string {
	t.Helper()

	ss, err := h.signToken(&domain.Member{ID: id, Role: role})
	if err != nil {
		t.Fatalf("signToken: %v", err)
	}
	return ss
}

func doRequest(t *testing.T, h *Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}
