package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/limbsorthopaedic/clinic-backend/internal/docstore"
)

func newTestProvider(t *testing.T) (*LocalProvider, *time.Time) {
	t.Helper()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	p := NewLocalProvider(docstore.NewMemoryStore(), "test-secret", 15*time.Minute, time.Hour)
	p.now = func() time.Time { return now }
	return p, &now
}

func TestLocalCreateAndLogin(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t)

	uid, err := p.CreateAccount(ctx, " Achieng@Example.com ", "correct-horse", "Achieng Otieno")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	if _, err := p.CreateAccount(ctx, "achieng@example.com", "another-pass", ""); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate CreateAccount: got %v, want ErrEmailTaken", err)
	}

	if _, err := p.Login(ctx, "achieng@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login with wrong password: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := p.Login(ctx, "nobody@example.com", "correct-horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login unknown email: got %v, want ErrInvalidCredentials", err)
	}

	pair, err := p.Login(ctx, "ACHIENG@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	got, err := p.VerifyToken(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	want := &Identity{UID: uid, Email: "achieng@example.com", DisplayName: "Achieng Otieno"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("identity mismatch (-want +got):\n%s", diff)
	}
}

func TestLocalCreateAccountValidation(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t)

	if _, err := p.CreateAccount(ctx, "", "long-enough", ""); !errors.Is(err, ErrEmailRequired) {
		t.Errorf("empty email: got %v, want ErrEmailRequired", err)
	}
	if _, err := p.CreateAccount(ctx, "a@b.c", "short", ""); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("short password: got %v, want ErrWeakPassword", err)
	}
}

func TestLocalVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	ctx := context.Background()
	p, now := newTestProvider(t)

	if _, err := p.CreateAccount(ctx, "kamau@example.com", "password123", "Kamau"); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	pair, err := p.Login(ctx, "kamau@example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	other := NewLocalProvider(docstore.NewMemoryStore(), "other-secret", time.Minute, time.Hour)
	other.now = p.now
	if _, err := other.VerifyToken(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign secret: got %v, want ErrInvalidToken", err)
	}

	*now = now.Add(16 * time.Minute)
	if _, err := p.VerifyToken(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: got %v, want ErrInvalidToken", err)
	}
}

func TestLocalRefreshRotatesAndLogoutRevokes(t *testing.T) {
	ctx := context.Background()
	p, now := newTestProvider(t)

	if _, err := p.CreateAccount(ctx, "njeri@example.com", "password123", "Njeri"); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	first, err := p.Login(ctx, "njeri@example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	second, err := p.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, err := p.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("reused refresh token: got %v, want ErrInvalidToken", err)
	}

	if err := p.Logout(ctx, second.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := p.Refresh(ctx, second.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("refresh after logout: got %v, want ErrInvalidToken", err)
	}
	if err := p.Logout(ctx, "never-issued"); err != nil {
		t.Errorf("Logout unknown token: %v", err)
	}

	third, err := p.Login(ctx, "njeri@example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	*now = now.Add(2 * time.Hour)
	if _, err := p.Refresh(ctx, third.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired refresh token: got %v, want ErrInvalidToken", err)
	}
}
