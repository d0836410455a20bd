package service_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/news-aggregator-api/internal/config"
	"github.com/news-aggregator-api/internal/mocks"
	"github.com/news-aggregator-api/internal/service"
)

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

func TestIdentity_OTPLoginScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	challenge, err := env.svc.Identity.RequestLogin(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("RequestLogin failed: %v", err)
	}
	if challenge.DevCode != "" {
		t.Errorf("Expected no dev code when dispatch succeeds, got %q", challenge.DevCode)
	}
	if !challenge.ExpiresAt.Equal(baseTime.Add(5 * time.Minute)) {
		t.Errorf("Expected expiry %v, got %v", baseTime.Add(5*time.Minute), challenge.ExpiresAt)
	}

	code, ok := env.sender.LastCode("a@b.com")
	if !ok {
		t.Fatal("Expected a code to be sent")
	}
	if !sixDigits.MatchString(code) {
		t.Errorf("Expected 6-digit code, got %q", code)
	}

	result, err := env.svc.Identity.CompleteLogin(ctx, "a@b.com", code, "test-agent")
	if err != nil {
		t.Fatalf("CompleteLogin failed: %v", err)
	}
	if !result.IsNewUser {
		t.Error("Expected a new user")
	}
	if result.User.Name != "a" {
		t.Errorf("Expected name 'a', got %q", result.User.Name)
	}
	if result.Token == "" {
		t.Error("Expected a token")
	}

	claims, err := env.svc.Identity.Authenticate(result.Token)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if claims.UserID != result.User.ID || claims.Name != "a" {
		t.Errorf("Unexpected claims: %+v", claims)
	}

	_, err = env.svc.Identity.CompleteLogin(ctx, "a@b.com", code, "test-agent")
	if !errors.Is(err, service.ErrOTPNotRequested) {
		t.Errorf("Expected ErrOTPNotRequested on reuse, got %v", err)
	}
	if env.users.Count() != 1 {
		t.Errorf("Expected 1 user, got %d", env.users.Count())
	}
}

func TestIdentity_CompleteLoginExistingUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	login := func() *service.LoginResult {
		t.Helper()
		if _, err := env.svc.Identity.RequestLogin(ctx, "Reader@Example.com "); err != nil {
			t.Fatalf("RequestLogin failed: %v", err)
		}
		code, _ := env.sender.LastCode("reader@example.com")
		res, err := env.svc.Identity.CompleteLogin(ctx, "reader@example.com", code, "device-1")
		if err != nil {
			t.Fatalf("CompleteLogin failed: %v", err)
		}
		return res
	}

	first := login()
	second := login()

	if !first.IsNewUser || second.IsNewUser {
		t.Errorf("Expected new then existing, got %v then %v", first.IsNewUser, second.IsNewUser)
	}
	if first.User.ID != second.User.ID {
		t.Errorf("Expected same user, got %s and %s", first.User.ID, second.User.ID)
	}

	entries, err := env.svc.Identity.ListUserEmails(ctx)
	if err != nil {
		t.Fatalf("ListUserEmails failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Email != "reader@example.com" ||
		entries[0].Device != "device-1" || entries[0].UserID != first.User.ID {
		t.Errorf("Expected one device audit record, got %+v", entries)
	}
	if env.emails.UpsertCalls != 2 {
		t.Errorf("Expected 2 upserts, got %d", env.emails.UpsertCalls)
	}
}

func TestIdentity_ReissueInvalidatesPreviousCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.svc.Identity.RequestLogin(ctx, "user@example.com")
	first, _ := env.sender.LastCode("user@example.com")

	// Retry until the codes differ; equal codes are a 1 in a million event.
	var second string
	for i := 0; i < 5; i++ {
		env.svc.Identity.RequestLogin(ctx, "user@example.com")
		second, _ = env.sender.LastCode("user@example.com")
		if second != first {
			break
		}
	}
	if second == first {
		t.Skip("random codes collided repeatedly")
	}

	_, err := env.svc.Identity.CompleteLogin(ctx, "user@example.com", first, "")
	if !errors.Is(err, service.ErrOTPMismatch) {
		t.Errorf("Expected ErrOTPMismatch for superseded code, got %v", err)
	}

	if _, err := env.svc.Identity.CompleteLogin(ctx, "user@example.com", second, ""); err != nil {
		t.Errorf("Expected latest code to verify after a mismatch, got %v", err)
	}
}

func TestIdentity_ExpiredCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.svc.Identity.RequestLogin(ctx, "late@example.com")
	code, _ := env.sender.LastCode("late@example.com")

	env.clock.Advance(5 * time.Minute)

	_, err := env.svc.Identity.CompleteLogin(ctx, "late@example.com", code, "")
	if !errors.Is(err, service.ErrOTPExpired) {
		t.Errorf("Expected ErrOTPExpired, got %v", err)
	}
	_, err = env.svc.Identity.CompleteLogin(ctx, "late@example.com", code, "")
	if !errors.Is(err, service.ErrOTPNotRequested) {
		t.Errorf("Expected ErrOTPNotRequested after expiry, got %v", err)
	}
	if env.users.Count() != 0 {
		t.Errorf("Expected no users created, got %d", env.users.Count())
	}
}

func TestIdentity_InvalidEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, addr := range []string{"", "not-an-email", "@example.com", "a@"} {
		if _, err := env.svc.Identity.RequestLogin(ctx, addr); !errors.Is(err, service.ErrInvalidEmail) {
			t.Errorf("RequestLogin(%q): expected ErrInvalidEmail, got %v", addr, err)
		}
		if _, err := env.svc.Identity.CompleteLogin(ctx, addr, "123456", ""); !errors.Is(err, service.ErrInvalidEmail) {
			t.Errorf("CompleteLogin(%q): expected ErrInvalidEmail, got %v", addr, err)
		}
	}
	if env.otp.Len() != 0 {
		t.Errorf("Expected no codes issued, got %d", env.otp.Len())
	}
}

func TestIdentity_DispatchFailure(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		expose      bool
		wantErr     error
		wantDevCode bool
	}{
		{name: "hidden by default", env: "development", wantErr: service.ErrDispatchFailed},
		{name: "exposed outside production", env: "development", expose: true, wantDevCode: true},
		{name: "never exposed in production", env: "production", expose: true, wantErr: service.ErrDispatchFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, withConfig(func(c *config.Config) {
				c.Env = tt.env
				c.Auth.ExposeCodeOnDispatchFailure = tt.expose
			}))
			env.sender.Err = mocks.ErrProviderDown
			ctx := context.Background()

			challenge, err := env.svc.Identity.RequestLogin(ctx, "x@example.com")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				if env.otp.Len() != 1 {
					t.Errorf("Expected the issued code to remain outstanding, got %d entries", env.otp.Len())
				}
				return
			}
			if err != nil {
				t.Fatalf("RequestLogin failed: %v", err)
			}
			if !tt.wantDevCode || !sixDigits.MatchString(challenge.DevCode) {
				t.Fatalf("Expected dev code, got %q", challenge.DevCode)
			}
			if _, err := env.svc.Identity.CompleteLogin(ctx, "x@example.com", challenge.DevCode, ""); err != nil {
				t.Errorf("Expected dev code to verify, got %v", err)
			}
		})
	}
}

func TestIdentity_RequestLoginRateLimited(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := env.svc.Identity.RequestLogin(ctx, "spam@example.com"); err != nil {
			t.Fatalf("Request %d failed: %v", i+1, err)
		}
	}
	if _, err := env.svc.Identity.RequestLogin(ctx, "SPAM@example.com"); !errors.Is(err, service.ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited, got %v", err)
	}

	env.clock.Advance(15 * time.Minute)
	if _, err := env.svc.Identity.RequestLogin(ctx, "spam@example.com"); err != nil {
		t.Errorf("Expected requests to resume after the window, got %v", err)
	}
}

func TestIdentity_CompleteLoginRateLimited(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.Identity.RequestLogin(ctx, "guess@example.com"); err != nil {
		t.Fatalf("RequestLogin failed: %v", err)
	}
	code, _ := env.sender.LastCode("guess@example.com")
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 0; i < 5; i++ {
		if _, err := env.svc.Identity.CompleteLogin(ctx, "guess@example.com", wrong, ""); !errors.Is(err, service.ErrOTPMismatch) {
			t.Fatalf("Guess %d: expected ErrOTPMismatch, got %v", i+1, err)
		}
	}

	if _, err := env.svc.Identity.CompleteLogin(ctx, "GUESS@example.com", code, ""); !errors.Is(err, service.ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited once attempts are spent, got %v", err)
	}
	if env.otp.Len() != 1 {
		t.Errorf("Expected the outstanding code to be kept, got %d entries", env.otp.Len())
	}
	if env.users.Count() != 0 {
		t.Errorf("Expected no user created, got %d", env.users.Count())
	}

	env.clock.Advance(15 * time.Minute)
	if _, err := env.svc.Identity.RequestLogin(ctx, "guess@example.com"); err != nil {
		t.Fatalf("RequestLogin failed: %v", err)
	}
	code, _ = env.sender.LastCode("guess@example.com")
	if _, err := env.svc.Identity.CompleteLogin(ctx, "guess@example.com", code, ""); err != nil {
		t.Errorf("Expected login after the window, got %v", err)
	}
}

func TestIdentity_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.svc.Identity.Register(ctx, "Jane", "Jane@Example.com", "secret123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if reg.User.Email != "jane@example.com" || !reg.IsNewUser {
		t.Errorf("Unexpected registration result: %+v", reg.User)
	}
	if reg.User.PasswordHash == "secret123" {
		t.Error("Password must be stored hashed")
	}

	if _, err := env.svc.Identity.Register(ctx, "Jane", "jane@example.com", "secret123"); !errors.Is(err, service.ErrEmailTaken) {
		t.Errorf("Expected ErrEmailTaken, got %v", err)
	}

	var verr *service.ValidationErrors
	if _, err := env.svc.Identity.Register(ctx, "", "bad", "123"); !errors.As(err, &verr) {
		t.Errorf("Expected ValidationErrors, got %v", err)
	} else if len(verr.Errors) != 3 {
		t.Errorf("Expected 3 field errors, got %d", len(verr.Errors))
	}

	if _, err := env.svc.Identity.Login(ctx, "jane@example.com", "wrong"); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := env.svc.Identity.Login(ctx, "nobody@example.com", "secret123"); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for unknown user, got %v", err)
	}

	res, err := env.svc.Identity.Login(ctx, "JANE@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if res.User.ID != reg.User.ID || res.IsNewUser {
		t.Errorf("Unexpected login result: %+v", res)
	}
}

func TestIdentity_OTPUserCannotUsePasswordLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.svc.Identity.RequestLogin(ctx, "otp@example.com")
	code, _ := env.sender.LastCode("otp@example.com")
	if _, err := env.svc.Identity.CompleteLogin(ctx, "otp@example.com", code, ""); err != nil {
		t.Fatalf("CompleteLogin failed: %v", err)
	}

	for _, pw := range []string{"", "otp", "password"} {
		if _, err := env.svc.Identity.Login(ctx, "otp@example.com", pw); !errors.Is(err, service.ErrInvalidCredentials) {
			t.Errorf("Login(%q): expected ErrInvalidCredentials, got %v", pw, err)
		}
	}
}

func TestIdentity_Authenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.svc.Identity.Register(ctx, "Tok", "tok@example.com", "secret123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := env.svc.Identity.Authenticate("garbage"); !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized for garbage, got %v", err)
	}

	env.clock.Advance(7*24*time.Hour + time.Second)
	if _, err := env.svc.Identity.Authenticate(reg.Token); !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized after expiry, got %v", err)
	}
}

func TestIdentity_GetUserAndIsAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin, _ := env.svc.Identity.Register(ctx, "Admin", "admin@example.com", "secret123")
	user, _ := env.svc.Identity.Register(ctx, "User", "user@example.com", "secret123")

	got, err := env.svc.Identity.GetUser(ctx, user.User.ID)
	if err != nil || got.Email != "user@example.com" {
		t.Errorf("GetUser: got %+v, %v", got, err)
	}
	if _, err := env.svc.Identity.GetUser(ctx, "not-a-uuid"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if ok, _ := env.svc.Identity.IsAdmin(ctx, admin.User.ID); !ok {
		t.Error("Expected admin to be admin")
	}
	if ok, _ := env.svc.Identity.IsAdmin(ctx, user.User.ID); ok {
		t.Error("Expected user not to be admin")
	}
	if ok, err := env.svc.Identity.IsAdmin(ctx, "00000000-0000-0000-0000-000000000000"); ok || err != nil {
		t.Errorf("Expected unknown user not to be admin, got %v, %v", ok, err)
	}
}
