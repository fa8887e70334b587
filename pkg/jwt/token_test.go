package jwtPkg

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"StudySanctuary/internal/entity"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

func verifyApp() *fiber.App {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		token, err := VerifyTokenHeader(c, AccessTokenSecret)
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		claims := token.Claims.(jwt.MapClaims)
		return c.SendString(claims["id"].(string))
	})
	return app
}

func TestSignAndVerify(t *testing.T) {
	t.Setenv(AccessTokenSecret, "test-secret")

	token, exp, err := Sign(map[string]interface{}{"id": "user-1", "username": "alice", "email": ""}, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if exp <= time.Now().Unix() {
		t.Errorf("expiry %d is not in the future", exp)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"short header", "abc", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"tampered", "Bearer " + token + "x", http.StatusUnauthorized},
	}

	app := verifyApp()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tc.want {
				t.Errorf("status: got %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}

func TestSign_MissingSecret(t *testing.T) {
	t.Setenv(AccessTokenSecret, "")
	if _, _, err := Sign(nil, time.Hour); !errors.Is(err, ErrSecretNotSet) {
		t.Errorf("got %v, want ErrSecretNotSet", err)
	}
}

func TestSignUser_RoundTrip(t *testing.T) {
	t.Setenv(AccessTokenSecret, "test-secret")

	want := entity.UserLoginData{ID: "u1", Username: "alice"}
	token, _, err := SignUser(want, MethodFace, time.Hour)
	if err != nil {
		t.Fatalf("SignUser: %v", err)
	}

	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)

	got, err := UserFromClaims(claims)
	if err != nil {
		t.Fatalf("UserFromClaims: %v", err)
	}
	if got != want {
		t.Errorf("user: got %+v, want %+v", got, want)
	}
	if claims["method"] != MethodFace || claims["sub"] != "u1" {
		t.Errorf("claims: method %v sub %v", claims["method"], claims["sub"])
	}
}

func TestUserFromClaims(t *testing.T) {
	tests := []struct {
		name    string
		claims  jwt.MapClaims
		wantErr bool
	}{
		{"complete", jwt.MapClaims{"id": "u1", "username": "a", "email": "a@x.io"}, false},
		{"empty email", jwt.MapClaims{"id": "u1", "username": "a", "email": ""}, false},
		{"empty id", jwt.MapClaims{"id": "", "username": "a", "email": ""}, true},
		{"missing email", jwt.MapClaims{"id": "u1", "username": "a"}, true},
		{"numeric id", jwt.MapClaims{"id": 7, "username": "a", "email": ""}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := UserFromClaims(tc.claims)
			if (err != nil) != tc.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, ErrIncompleteClaims) {
				t.Errorf("got %v, want ErrIncompleteClaims", err)
			}
		})
	}
}

func TestGetUserLoginData(t *testing.T) {
	app := fiber.New()
	app.Get("/with", func(c *fiber.Ctx) error {
		c.Locals("user", entity.UserLoginData{ID: "u1"})
		user, err := GetUserLoginData(c)
		if err != nil || user.ID != "u1" {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/without", func(c *fiber.Ctx) error {
		if _, err := GetUserLoginData(c); err == nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendStatus(fiber.StatusOK)
	})

	for _, path := range []string{"/with", "/without"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: status %d", path, resp.StatusCode)
		}
	}
}
