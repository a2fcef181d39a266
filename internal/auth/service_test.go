package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procureline/procureline-backend/internal/users"
	pkgauth "github.com/procureline/procureline-backend/pkg/auth"
	"github.com/procureline/procureline-backend/pkg/config"
	"github.com/procureline/procureline-backend/pkg/db/models"
	"github.com/procureline/procureline-backend/pkg/enums"
	pkgerrors "github.com/procureline/procureline-backend/pkg/errors"
)

var (
	testJWTCfg = config.JWTConfig{Secret: "test-secret", Issuer: "procureline-test", ExpirationMinutes: 15}
	testPwCfg  = config.PasswordConfig{}
)

func TestRegisterIssuesConfirmationToken(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	tokens := newFakeTokenRepo()
	notify := &captureNotify{}
	svc := newTestService(t, store, tokens, notify)

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:     "Buyer@Example.com",
		Password:  "correct horse",
		FirstName: "Ann",
		LastName:  "Lee",
		Role:      enums.UserRoleBuyer,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "buyer@example.com" {
		t.Fatalf("email must be normalized, got %q", user.Email)
	}
	if len(tokens.rows) != 1 {
		t.Fatalf("expected one confirmation token, got %d", len(tokens.rows))
	}
	if notify.token == "" {
		t.Fatal("token must reach the user through the notifier")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	svc := newTestService(t, store, newFakeTokenRepo(), &captureNotify{})

	input := RegisterInput{Email: "a@b.com", Password: "long enough", Role: enums.UserRoleShop}
	if _, err := svc.Register(context.Background(), input); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	_, err := svc.Register(context.Background(), input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newFakeUserStore(), newFakeTokenRepo(), &captureNotify{})

	cases := []struct {
		name  string
		input RegisterInput
	}{
		{"short password", RegisterInput{Email: "a@b.com", Password: "short"}},
		{"admin role", RegisterInput{Email: "a@b.com", Password: "long enough", Role: enums.UserRoleAdmin}},
		{"missing email", RegisterInput{Password: "long enough"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfirmEmailConsumesTokenOnce(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	tokens := newFakeTokenRepo()
	notify := &captureNotify{}
	svc := newTestService(t, store, tokens, notify)

	if _, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "long enough"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.ConfirmEmail(context.Background(), "a@b.com", notify.token); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !store.byEmail["a@b.com"].EmailVerified {
		t.Fatal("user must be verified")
	}

	err := svc.ConfirmEmail(context.Background(), "a@b.com", notify.token)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("second use must fail, got %v", err)
	}
}

func TestConfirmEmailExpiredToken(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	tokens := newFakeTokenRepo()
	notify := &captureNotify{}
	svc := newTestService(t, store, tokens, notify)

	if _, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "long enough"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	svc.(*service).now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	err := svc.ConfirmEmail(context.Background(), "a@b.com", notify.token)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoginMintsParseableToken(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	svc := newTestService(t, store, newFakeTokenRepo(), &captureNotify{})

	if _, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "long enough", Role: enums.UserRoleShop}); err != nil {
		t.Fatalf("register: %v", err)
	}

	result, err := svc.Login(context.Background(), "a@b.com", "long enough")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgauth.ParseAccessToken(testJWTCfg, result.Token)
	if err != nil {
		t.Fatalf("token must parse: %v", err)
	}
	if claims.UserID != result.User.ID || claims.Role != enums.UserRoleShop {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	svc := newTestService(t, store, newFakeTokenRepo(), &captureNotify{})

	if _, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "long enough"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Login(context.Background(), "a@b.com", "wrong password")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.Login(context.Background(), "nobody@b.com", "whatever")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("unknown email must look like bad credentials: %v", err)
	}
}

func newTestService(t *testing.T, store *fakeUserStore, tokens *fakeTokenRepo, notify *captureNotify) Service {
	t.Helper()
	svc, err := NewService(store, tokens, stubTxRunner{}, notify, testJWTCfg, testPwCfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeUserStore struct {
	byEmail map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: map[string]*models.User{}}
}

func (f *fakeUserStore) WithTx(tx *gorm.DB) users.Store { return f }

func (f *fakeUserStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if _, ok := f.byEmail[user.Email]; ok {
		return nil, gorm.ErrDuplicatedKey
	}
	user.ID = uuid.New()
	f.byEmail[user.Email] = user
	return user, nil
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := f.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, user := range f.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserStore) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	for _, user := range f.byEmail {
		if user.ID == id {
			user.EmailVerified = true
		}
	}
	return nil
}

type fakeTokenRepo struct {
	rows map[string]*models.EmailConfirmationToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{rows: map[string]*models.EmailConfirmationToken{}}
}

func (f *fakeTokenRepo) WithTx(tx *gorm.DB) TokenRepository { return f }

func (f *fakeTokenRepo) Create(ctx context.Context, token *models.EmailConfirmationToken) error {
	token.ID = uuid.New()
	f.rows[token.Token] = token
	return nil
}

func (f *fakeTokenRepo) FindByToken(ctx context.Context, token string) (*models.EmailConfirmationToken, error) {
	if row, ok := f.rows[token]; ok {
		return row, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTokenRepo) MarkUsed(ctx context.Context, id uuid.UUID) error {
	for _, row := range f.rows {
		if row.ID == id {
			row.IsUsed = true
		}
	}
	return nil
}

type captureNotify struct {
	token string
}

func (c *captureNotify) RegistrationToken(ctx context.Context, user *models.User, token string) {
	c.token = token
}
func (c *captureNotify) OrderPlaced(ctx context.Context, order *models.Order, buyer *models.User) {}
func (c *captureNotify) OrderStatusChanged(ctx context.Context, order *models.Order, buyer *models.User) {
}
