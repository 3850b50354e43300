package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	notificationsvc "github.com/greenbasket/greenbasket-backend/internal/notifications"
	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	"github.com/greenbasket/greenbasket-backend/pkg/pagination"
)

type stubNotificationService struct {
	list    *notificationsvc.NotificationList
	updated int64
	err     error

	sawUnreadOnly bool
	markedID      uuid.UUID
}

func (s *stubNotificationService) NotifyTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, kind enums.NotificationType, title, body string) error {
	return s.err
}

func (s *stubNotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, params pagination.Params) (*notificationsvc.NotificationList, error) {
	s.sawUnreadOnly = unreadOnly
	return s.list, s.err
}

func (s *stubNotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	s.markedID = id
	return s.err
}

func (s *stubNotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.updated, s.err
}

func TestListNotificationsParsesUnreadOnly(t *testing.T) {
	svc := &stubNotificationService{list: &notificationsvc.NotificationList{
		Notifications: []models.Notification{{ID: uuid.New(), Title: "order update"}},
		Total:         1,
		Unread:        1,
	}}
	handler := ListNotifications(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications?unread_only=true", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(req, uuid.New(), enums.UserRoleCustomer))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !svc.sawUnreadOnly {
		t.Fatal("expected unread_only filter forwarded to service")
	}
}

func TestListNotificationsRejectsBadBool(t *testing.T) {
	handler := ListNotifications(&stubNotificationService{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications?unread_only=maybe", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(req, uuid.New(), enums.UserRoleCustomer))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMarkNotificationRead(t *testing.T) {
	svc := &stubNotificationService{}
	handler := MarkNotificationRead(svc, testLogger())

	notificationID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/"+notificationID.String()+"/read", nil)
	req = withPathParam(req, "notificationId", notificationID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(req, uuid.New(), enums.UserRoleCustomer))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.markedID != notificationID {
		t.Fatalf("expected %s marked got %s", notificationID, svc.markedID)
	}
}

func TestMarkAllNotificationsReadReportsCount(t *testing.T) {
	handler := MarkAllNotificationsRead(&stubNotificationService{updated: 4}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/read-all", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(req, uuid.New(), enums.UserRoleCustomer))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data struct {
			Updated int64 `json:"updated"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Updated != 4 {
		t.Fatalf("expected 4 updated got %d", envelope.Data.Updated)
	}
}
