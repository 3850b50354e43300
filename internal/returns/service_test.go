package returns

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
	"github.com/greenbasket/greenbasket-backend/pkg/pagination"
)

type stubReturnsRepo struct {
	returns map[uuid.UUID]*models.Return
}

func newStubReturnsRepo() *stubReturnsRepo {
	return &stubReturnsRepo{returns: map[uuid.UUID]*models.Return{}}
}

func (s *stubReturnsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubReturnsRepo) Create(ctx context.Context, ret *models.Return) (*models.Return, error) {
	if ret.ID == uuid.Nil {
		ret.ID = uuid.New()
	}
	s.returns[ret.ID] = ret
	return ret, nil
}

func (s *stubReturnsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Return, error) {
	ret, ok := s.returns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *ret
	return &copied, nil
}

func (s *stubReturnsRepo) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Return, int64, error) {
	var out []models.Return
	for _, ret := range s.returns {
		if filters.CustomerID != nil && ret.CustomerID != *filters.CustomerID {
			continue
		}
		if filters.Status != nil && ret.Status != *filters.Status {
			continue
		}
		out = append(out, *ret)
	}
	return out, int64(len(out)), nil
}

func (s *stubReturnsRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ReturnStatus) error {
	s.returns[id].Status = status
	return nil
}

type stubReturnsOrderReader struct {
	orders map[uuid.UUID]*models.Order
}

func (s *stubReturnsOrderReader) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

type returnsNotifyCall struct {
	userID uuid.UUID
	kind   enums.NotificationType
	title  string
}

type stubReturnsNotifier struct {
	calls []returnsNotifyCall
}

func (s *stubReturnsNotifier) NotifyTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, kind enums.NotificationType, title, body string) error {
	s.calls = append(s.calls, returnsNotifyCall{userID, kind, title})
	return nil
}

type stubReturnsTxRunner struct{}

func (stubReturnsTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type returnsFixture struct {
	repo     *stubReturnsRepo
	notifier *stubReturnsNotifier
	svc      Service
	order    *models.Order
	customer Actor
	admin    Actor
}

func newReturnsFixture(t *testing.T) *returnsFixture {
	t.Helper()

	customerID := uuid.New()
	order := &models.Order{
		ID:          uuid.New(),
		CustomerID:  customerID,
		Status:      enums.OrderStatusDelivered,
		TotalAmount: decimal.RequireFromString("12.98"),
		Items: []models.OrderItem{
			{
				ID:          uuid.New(),
				ProductName: "Basmati Rice 1kg",
				Quantity:    2,
				UnitPrice:   decimal.RequireFromString("3.99"),
				LineTotal:   decimal.RequireFromString("7.98"),
			},
			{
				ID:          uuid.New(),
				ProductName: "Olive Oil 500ml",
				Quantity:    1,
				UnitPrice:   decimal.RequireFromString("5.00"),
				LineTotal:   decimal.RequireFromString("5.00"),
			},
		},
	}

	repo := newStubReturnsRepo()
	notifier := &stubReturnsNotifier{}
	orders := &stubReturnsOrderReader{orders: map[uuid.UUID]*models.Order{order.ID: order}}

	svc, err := NewService(repo, orders, notifier, stubReturnsTxRunner{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &returnsFixture{
		repo:     repo,
		notifier: notifier,
		svc:      svc,
		order:    order,
		customer: Actor{UserID: customerID, Role: enums.UserRoleCustomer},
		admin:    Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin},
	}
}

func TestCreateComputesRefundFromSnapshots(t *testing.T) {
	f := newReturnsFixture(t)
	ctx := context.Background()

	ret, err := f.svc.Create(ctx, f.customer, CreateInput{
		OrderID: f.order.ID,
		Reason:  "damaged packaging",
		Lines: []LineInput{
			{OrderItemID: f.order.Items[0].ID, Quantity: 1},
			{OrderItemID: f.order.Items[1].ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	want := decimal.RequireFromString("8.99")
	if !ret.RefundAmount.Equal(want) {
		t.Fatalf("expected refund %s, got %s", want, ret.RefundAmount)
	}
	if ret.Status != enums.ReturnStatusRequested {
		t.Fatalf("expected requested, got %s", ret.Status)
	}
	if len(f.notifier.calls) != 1 || f.notifier.calls[0].kind != enums.NotificationTypeReturnStatus {
		t.Fatalf("expected a return notification, got %v", f.notifier.calls)
	}
}

func TestCreateRequiresDeliveredOrder(t *testing.T) {
	f := newReturnsFixture(t)
	f.order.Status = enums.OrderStatusOutForDelivery

	_, err := f.svc.Create(context.Background(), f.customer, CreateInput{
		OrderID: f.order.ID,
		Reason:  "damaged packaging",
		Lines:   []LineInput{{OrderItemID: f.order.Items[0].ID, Quantity: 1}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCreateRejectsExcessQuantity(t *testing.T) {
	f := newReturnsFixture(t)

	_, err := f.svc.Create(context.Background(), f.customer, CreateInput{
		OrderID: f.order.ID,
		Reason:  "damaged packaging",
		Lines:   []LineInput{{OrderItemID: f.order.Items[1].ID, Quantity: 2}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateRejectsForeignOrderItems(t *testing.T) {
	f := newReturnsFixture(t)

	_, err := f.svc.Create(context.Background(), f.customer, CreateInput{
		OrderID: f.order.ID,
		Reason:  "damaged packaging",
		Lines:   []LineInput{{OrderItemID: uuid.New(), Quantity: 1}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateStatusLifecycle(t *testing.T) {
	f := newReturnsFixture(t)
	ctx := context.Background()

	ret, err := f.svc.Create(ctx, f.customer, CreateInput{
		OrderID: f.order.ID,
		Reason:  "damaged packaging",
		Lines:   []LineInput{{OrderItemID: f.order.Items[0].ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.svc.UpdateStatus(ctx, f.customer, ret.ID, enums.ReturnStatusApproved); err == nil {
		t.Fatal("expected customers to be forbidden from triage")
	}

	for _, status := range []enums.ReturnStatus{
		enums.ReturnStatusApproved,
		enums.ReturnStatusPickedUp,
		enums.ReturnStatusRefunded,
	} {
		updated, err := f.svc.UpdateStatus(ctx, f.admin, ret.ID, status)
		if err != nil {
			t.Fatalf("move to %s: %v", status, err)
		}
		if updated.Status != status {
			t.Fatalf("expected %s, got %s", status, updated.Status)
		}
	}

	_, err = f.svc.UpdateStatus(ctx, f.admin, ret.ID, enums.ReturnStatusApproved)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict after refund, got %v", err)
	}

	// create + three status changes
	if len(f.notifier.calls) != 4 {
		t.Fatalf("expected 4 notifications, got %d", len(f.notifier.calls))
	}
}

func TestRejectedReturnIsTerminal(t *testing.T) {
	f := newReturnsFixture(t)
	ctx := context.Background()

	ret, err := f.svc.Create(ctx, f.customer, CreateInput{
		OrderID: f.order.ID,
		Reason:  "damaged packaging",
		Lines:   []LineInput{{OrderItemID: f.order.Items[0].ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.svc.UpdateStatus(ctx, f.admin, ret.ID, enums.ReturnStatusRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}

	_, err = f.svc.UpdateStatus(ctx, f.admin, ret.ID, enums.ReturnStatusApproved)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestListScopesByRole(t *testing.T) {
	f := newReturnsFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, f.customer, CreateInput{
		OrderID: f.order.ID,
		Reason:  "damaged packaging",
		Lines:   []LineInput{{OrderItemID: f.order.Items[0].ID, Quantity: 1}},
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	mine, err := f.svc.List(ctx, f.customer, ListFilters{}, pagination.Params{})
	if err != nil {
		t.Fatalf("list as customer: %v", err)
	}
	if len(mine.Returns) != 1 {
		t.Fatalf("expected 1 return, got %d", len(mine.Returns))
	}

	stranger := Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer}
	others, err := f.svc.List(ctx, stranger, ListFilters{}, pagination.Params{})
	if err != nil {
		t.Fatalf("list as stranger: %v", err)
	}
	if len(others.Returns) != 0 {
		t.Fatalf("expected no returns for stranger, got %d", len(others.Returns))
	}

	agent := Actor{UserID: uuid.New(), Role: enums.UserRoleDelivery}
	_, err = f.svc.List(ctx, agent, ListFilters{}, pagination.Params{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for delivery role, got %v", err)
	}
}
