package admin

import (
	"errors"
	"testing"
	"time"

	"github.com/3Eeeecho/go-datahub/internal/config"
	"github.com/3Eeeecho/go-datahub/internal/pkg/utils"
	"github.com/3Eeeecho/go-datahub/internal/pkg/xerr"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuth(t *testing.T) AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return NewAuthService(
		config.AdminConfig{Username: "admin", PasswordHash: string(hash)},
		config.JWTConfig{SecretKey: "test-secret", ExpiresIn: time.Hour, Issuer: "go-datahub"},
	)
}

func TestLogin(t *testing.T) {
	svc := newTestAuth(t)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"ok", "admin", "s3cret", nil},
		{"wrong password", "admin", "nope", xerr.ErrInvalidCredentials},
		{"wrong user", "root", "s3cret", xerr.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := svc.Login(tt.username, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			if sess.Token == "" || time.Until(sess.ExpiresAt) <= 0 {
				t.Fatalf("session = %+v", sess)
			}
			user, err := svc.Verify(sess.Token)
			if err != nil || user != "admin" {
				t.Fatalf("Verify = %q, %v", user, err)
			}
		})
	}
}

func TestLoginWithoutConfiguredHash(t *testing.T) {
	svc := NewAuthService(config.AdminConfig{Username: "admin"}, config.JWTConfig{SecretKey: "k", ExpiresIn: time.Hour})
	if _, err := svc.Login("admin", ""); !errors.Is(err, xerr.ErrInvalidCredentials) {
		t.Fatalf("err = %v", err)
	}
}

func TestVerifyRejects(t *testing.T) {
	svc := newTestAuth(t)

	otherSecret, _, _ := utils.GenerateToken("admin", "other-secret", "go-datahub", time.Hour)
	otherUser, _, _ := utils.GenerateToken("mallory", "test-secret", "go-datahub", time.Hour)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", xerr.ErrUnauthorized},
		{"garbage", "not-a-jwt", xerr.ErrTokenInvalid},
		{"wrong secret", otherSecret, xerr.ErrTokenInvalid},
		{"wrong subject", otherUser, xerr.ErrTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Verify(tt.token); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
