package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func authService(store *fakeStore) *AuthService {
	return &AuthService{
		Store:       store,
		TokenTTL:    time.Hour,
		BcryptCost:  4, // MinCost keeps the test fast
		MinPassword: 8,
	}
}

func TestAuthFlow(t *testing.T) {
	store := newFakeStore()
	auth := authService(store)
	ctx := context.Background()

	user, err := auth.Register(ctx, "alice", "correct horse battery")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("registered user has no id")
	}
	if user.PasswordHash == "correct horse battery" {
		t.Fatal("password stored in the clear")
	}

	token, loggedIn, err := auth.Login(ctx, "alice", "correct horse battery")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" || loggedIn.ID != user.ID {
		t.Fatalf("login result = %q / %+v", token, loggedIn)
	}

	resolved, err := auth.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if resolved.Username != "alice" {
		t.Fatalf("resolved user = %+v", resolved)
	}

	if err := auth.Logout(ctx, token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := auth.Authenticate(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Authenticate after logout = %v, want ErrInvalidToken", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	store := newFakeStore()
	auth := authService(store)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "", "long enough password"); err == nil {
		t.Fatal("expected error for empty username")
	}
	if _, err := auth.Register(ctx, "bob", "short"); err == nil {
		t.Fatal("expected error for short password")
	}

	if _, err := auth.Register(ctx, "bob", "long enough password"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := auth.Register(ctx, "bob", "another password!"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate register = %v, want ErrUsernameTaken", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	store := newFakeStore()
	auth := authService(store)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "carol", "a fine password"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, err := auth.Login(ctx, "carol", "not the password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := auth.Login(ctx, "nobody", "a fine password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthenticate_ExpiredTokenIsDeleted(t *testing.T) {
	store := newFakeStore()
	auth := authService(store)
	auth.TokenTTL = -time.Hour // issue already-expired tokens
	ctx := context.Background()

	if _, err := auth.Register(ctx, "dave", "a fine password"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, _, err := auth.Login(ctx, "dave", "a fine password")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := auth.Authenticate(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token = %v, want ErrInvalidToken", err)
	}
	if _, ok := store.tokens[token]; ok {
		t.Fatal("expired token not deleted on use")
	}
}
