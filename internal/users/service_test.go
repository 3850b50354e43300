package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/pkg/auth"
	"github.com/greenbasket/greenbasket-backend/pkg/config"
	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
	"github.com/greenbasket/greenbasket-backend/pkg/pagination"
)

var (
	testJWTConfig = config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "greenbasket-test",
		ExpirationMinutes: 15,
	}
	// minimal argon cost so the suite stays fast
	testPasswordConfig = config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
)

type stubUsersRepo struct {
	users   map[uuid.UUID]*models.User
	byEmail map[string]uuid.UUID
	updates map[uuid.UUID]map[string]any
}

func newStubUsersRepo() *stubUsersRepo {
	return &stubUsersRepo{
		users:   map[uuid.UUID]*models.User{},
		byEmail: map[string]uuid.UUID{},
		updates: map[uuid.UUID]map[string]any{},
	}
}

func (s *stubUsersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.users[user.ID] = user
	s.byEmail[user.Email] = user.ID
	return user, nil
}

func (s *stubUsersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *stubUsersRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	id, ok := s.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *stubUsersRepo) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.User, int64, error) {
	var out []models.User
	for _, user := range s.users {
		if filters.Role != nil && user.Role != *filters.Role {
			continue
		}
		if filters.ActiveOnly && !user.IsActive {
			continue
		}
		out = append(out, *user)
	}
	return out, int64(len(out)), nil
}

func (s *stubUsersRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	s.updates[id] = updates
	user := s.users[id]
	if role, ok := updates["role"].(enums.UserRole); ok {
		user.Role = role
	}
	if active, ok := updates["is_active"].(bool); ok {
		user.IsActive = active
	}
	if hash, ok := updates["password_hash"].(string); ok {
		user.PasswordHash = hash
	}
	return nil
}

func (s *stubUsersRepo) IsDeliveryAgent(ctx context.Context, id uuid.UUID) (bool, error) {
	user, ok := s.users[id]
	return ok && user.Role == enums.UserRoleDelivery && user.IsActive, nil
}

func newTestUserService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, testJWTConfig, testPasswordConfig)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newStubUsersRepo()
	svc := newTestUserService(t, repo)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Name:     "Asha Rao",
		Email:    "Asha@Example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "asha@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.Role != enums.UserRoleCustomer {
		t.Fatalf("expected customer role, got %s", user.Role)
	}

	result, err := svc.Login(ctx, "asha@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := auth.ParseAccessToken(testJWTConfig, result.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enums.UserRoleCustomer {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newStubUsersRepo()
	svc := newTestUserService(t, repo)
	ctx := context.Background()

	input := RegisterInput{Name: "Asha Rao", Email: "asha@example.com", Password: "correct-horse"}
	if _, err := svc.Register(ctx, input); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Register(ctx, input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	repo := newStubUsersRepo()
	svc := newTestUserService(t, repo)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{
		Name:     "Asha Rao",
		Email:    "asha@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	cases := map[string]func() error{
		"unknown email": func() error {
			_, err := svc.Login(ctx, "nobody@example.com", "correct-horse")
			return err
		},
		"wrong password": func() error {
			_, err := svc.Login(ctx, "asha@example.com", "wrong")
			return err
		},
		"deactivated account": func() error {
			repo.users[registered.ID].IsActive = false
			_, err := svc.Login(ctx, "asha@example.com", "correct-horse")
			return err
		},
	}

	var messages []string
	for name, attempt := range cases {
		err := attempt()
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("%s: expected unauthorized, got %v", name, err)
		}
		messages = append(messages, typed.Message())
	}
	for _, msg := range messages {
		if msg != messages[0] {
			t.Fatalf("login failure messages differ: %v", messages)
		}
	}
}

func TestProvisionDeliveryAgentGeneratesTempPassword(t *testing.T) {
	repo := newStubUsersRepo()
	svc := newTestUserService(t, repo)
	ctx := context.Background()

	result, err := svc.Provision(ctx, ProvisionInput{
		Name:  "Dev Kumar",
		Email: "dev@example.com",
		Role:  enums.UserRoleDelivery,
	})
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if result.TempPassword == "" {
		t.Fatal("expected a generated temp password")
	}
	if result.User.Role != enums.UserRoleDelivery {
		t.Fatalf("expected delivery role, got %s", result.User.Role)
	}

	if _, err := svc.Login(ctx, "dev@example.com", result.TempPassword); err != nil {
		t.Fatalf("login with temp password: %v", err)
	}

	isAgent, err := svc.IsDeliveryAgent(ctx, result.User.ID)
	if err != nil {
		t.Fatalf("IsDeliveryAgent: %v", err)
	}
	if !isAgent {
		t.Fatal("expected provisioned account to count as delivery agent")
	}
}

func TestProvisionWithExplicitPasswordReturnsNoTemp(t *testing.T) {
	repo := newStubUsersRepo()
	svc := newTestUserService(t, repo)
	password := "chosen-password"

	result, err := svc.Provision(context.Background(), ProvisionInput{
		Name:     "Dev Kumar",
		Email:    "dev@example.com",
		Role:     enums.UserRoleDelivery,
		Password: &password,
	})
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if result.TempPassword != "" {
		t.Fatalf("expected no temp password, got %q", result.TempPassword)
	}
}

func TestUpdateRejectsUnknownRole(t *testing.T) {
	repo := newStubUsersRepo()
	svc := newTestUserService(t, repo)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Name:     "Asha Rao",
		Email:    "asha@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	badRole := enums.UserRole("superuser")
	_, err = svc.Update(ctx, user.ID, UpdateInput{Role: &badRole})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeactivatedAgentIsNotDeliveryAgent(t *testing.T) {
	repo := newStubUsersRepo()
	svc := newTestUserService(t, repo)
	ctx := context.Background()

	result, err := svc.Provision(ctx, ProvisionInput{
		Name:  "Dev Kumar",
		Email: "dev@example.com",
		Role:  enums.UserRoleDelivery,
	})
	if err != nil {
		t.Fatalf("provision: %v", err)
	}

	inactive := false
	if _, err := svc.Update(ctx, result.User.ID, UpdateInput{IsActive: &inactive}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	isAgent, err := svc.IsDeliveryAgent(ctx, result.User.ID)
	if err != nil {
		t.Fatalf("IsDeliveryAgent: %v", err)
	}
	if isAgent {
		t.Fatal("deactivated account should not count as delivery agent")
	}
}

func TestDeactivate(t *testing.T) {
	repo := newStubUsersRepo()
	svc := newTestUserService(t, repo)
	ctx := context.Background()

	admin, err := svc.Provision(ctx, ProvisionInput{
		Name:  "Ops Admin",
		Email: "ops@example.com",
		Role:  enums.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("provision admin: %v", err)
	}
	customer, err := svc.Register(ctx, RegisterInput{
		Name:     "Asha Rao",
		Email:    "asha@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	err = svc.Deactivate(ctx, admin.User.ID, admin.User.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for self-deactivation, got %v", err)
	}

	if err := svc.Deactivate(ctx, admin.User.ID, customer.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if repo.users[customer.ID].IsActive {
		t.Fatal("expected account to be inactive")
	}

	err = svc.Deactivate(ctx, admin.User.ID, customer.ID)
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on repeat deactivation, got %v", err)
	}
}

// the service clock is injectable so token expiry can be pinned in tests
func TestLoginTokenCarriesConfiguredExpiry(t *testing.T) {
	repo := newStubUsersRepo()
	svc := newTestUserService(t, repo).(*service)
	fixed := time.Now().UTC().Truncate(time.Second)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{
		Name:     "Asha Rao",
		Email:    "asha@example.com",
		Password: "correct-horse",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	result, err := svc.Login(ctx, "asha@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := auth.ParseAccessToken(testJWTConfig, result.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	wantExpiry := fixed.Add(15 * time.Minute)
	if !claims.ExpiresAt.Time.Equal(wantExpiry) {
		t.Fatalf("expected expiry %v, got %v", wantExpiry, claims.ExpiresAt.Time)
	}
}
