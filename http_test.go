package accounts_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPAuthenticator(t *testing.T) {
	mockAuth := new(MockAuthenticator)

	httpAuth, err := accounts.NewHTTPAuthenticator(mockAuth, newTestConfig())
	require.NoError(t, err)
	require.NotNil(t, httpAuth)

	assert.Equal(t, time.Hour, httpAuth.GetTokenTTL())
	assert.Equal(t, time.Hour, httpAuth.GetExtendedTokenTTL())
}

func TestRouteAuthenticator_Login(t *testing.T) {
	mockAuth := new(MockAuthenticator)
	mockCtx := new(MockContext)

	mockAuth.On("Login", mock.Anything, "ann@example.com", "Sup3r-Secret-Pass!").
		Return("signed.session.token", nil)

	mockCtx.On("Context").Return(context.Background())
	mockCtx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
		return c.Name == "jwt" &&
			c.Value == "signed.session.token" &&
			c.HTTPOnly &&
			c.Secure &&
			c.SameSite == "Lax" &&
			c.Expires.After(time.Now())
	})).Return()

	httpAuth, err := accounts.NewHTTPAuthenticator(mockAuth, newTestConfig())
	require.NoError(t, err)
	httpAuth.Logger = silentLogger{}

	err = httpAuth.Login(mockCtx, MockLoginPayload{
		Identifier: "ann@example.com",
		Password:   "Sup3r-Secret-Pass!",
	})
	require.NoError(t, err)

	mockAuth.AssertExpectations(t)
	mockCtx.AssertExpectations(t)
}

func TestRouteAuthenticator_LoginExtendedSession(t *testing.T) {
	mockAuth := new(MockAuthenticator)
	mockCtx := new(MockContext)

	cfg := newTestConfig()
	cfg.ExtendedTokenTTL = 72 * time.Hour

	mockAuth.On("Login", mock.Anything, "ann@example.com", "Sup3r-Secret-Pass!").
		Return("signed.session.token", nil)

	mockCtx.On("Context").Return(context.Background())
	mockCtx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
		// remember me pushes expiry well past the standard hour
		return c.Name == "jwt" && c.Expires.After(time.Now().Add(48*time.Hour))
	})).Return()

	httpAuth, err := accounts.NewHTTPAuthenticator(mockAuth, cfg)
	require.NoError(t, err)
	httpAuth.Logger = silentLogger{}

	err = httpAuth.Login(mockCtx, MockLoginPayload{
		Identifier:      "ann@example.com",
		Password:        "Sup3r-Secret-Pass!",
		ExtendedSession: true,
	})
	require.NoError(t, err)

	mockCtx.AssertExpectations(t)
}

func TestRouteAuthenticator_LoginError(t *testing.T) {
	mockAuth := new(MockAuthenticator)
	mockCtx := new(MockContext)

	mockAuth.On("Login", mock.Anything, "ann@example.com", "wrongpass").
		Return("", accounts.ErrInvalidCredentials)

	mockCtx.On("Context").Return(context.Background())

	httpAuth, err := accounts.NewHTTPAuthenticator(mockAuth, newTestConfig())
	require.NoError(t, err)
	httpAuth.Logger = silentLogger{}

	err = httpAuth.Login(mockCtx, MockLoginPayload{
		Identifier: "ann@example.com",
		Password:   "wrongpass",
	})
	require.Error(t, err)
	assert.True(t, accounts.IsInvalidCredentials(err))

	mockAuth.AssertExpectations(t)
	mockCtx.AssertNotCalled(t, "Cookie", mock.Anything)
}

func TestRouteAuthenticator_Logout(t *testing.T) {
	mockAuth := new(MockAuthenticator)
	mockCtx := new(MockContext)

	mockCtx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
		return c.Name == "jwt" && c.Value == "" && c.HTTPOnly && c.Expires.Before(time.Now())
	})).Return()

	httpAuth, err := accounts.NewHTTPAuthenticator(mockAuth, newTestConfig())
	require.NoError(t, err)
	httpAuth.Logger = silentLogger{}

	httpAuth.Logout(mockCtx)

	mockCtx.AssertExpectations(t)
}

func TestRouteAuthenticator_InsecureCookies(t *testing.T) {
	mockAuth := new(MockAuthenticator)
	mockCtx := new(MockContext)

	cfg := newTestConfig()
	cfg.InsecureCookies = true

	mockCtx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
		return c.Name == "jwt" && !c.Secure
	})).Return()

	httpAuth, err := accounts.NewHTTPAuthenticator(mockAuth, cfg)
	require.NoError(t, err)
	httpAuth.Logger = silentLogger{}

	httpAuth.SetSessionToken(mockCtx, "token", time.Hour)

	mockCtx.AssertExpectations(t)
}

func TestRouteAuthenticator_RedirectFunctions(t *testing.T) {
	mockAuth := new(MockAuthenticator)

	cfg := newTestConfig()
	cfg.RejectedRouteDefault = "/account/login"

	httpAuth, err := accounts.NewHTTPAuthenticator(mockAuth, cfg)
	require.NoError(t, err)
	httpAuth.Logger = silentLogger{}

	t.Run("SetRedirect", func(t *testing.T) {
		mockCtx := new(MockContext)

		mockCtx.On("OriginalURL").Return("/account/profile")
		mockCtx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
			return c.Name == "rejected_route" && c.Value == "/account/profile" && c.HTTPOnly
		})).Return()

		httpAuth.SetRedirect(mockCtx)

		mockCtx.AssertExpectations(t)
	})

	t.Run("GetRedirect", func(t *testing.T) {
		mockCtx := new(MockContext)

		mockCtx.On("Cookies", "rejected_route").Return("/account/profile")
		mockCtx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
			return c.Name == "rejected_route" && c.Value == "" && c.Expires.Before(time.Now())
		})).Return()

		redirect := httpAuth.GetRedirect(mockCtx, "/")
		assert.Equal(t, "/account/profile", redirect)

		mockCtx.AssertExpectations(t)
	})

	t.Run("GetRedirect falls back to default", func(t *testing.T) {
		mockCtx := new(MockContext)

		mockCtx.On("Cookies", "rejected_route").Return("")

		redirect := httpAuth.GetRedirect(mockCtx, "/")
		assert.Equal(t, "/", redirect)

		mockCtx.AssertNotCalled(t, "Cookie", mock.Anything)
	})

	t.Run("GetRedirectOrDefault", func(t *testing.T) {
		mockCtx := new(MockContext)

		mockCtx.On("Referer").Return("/some-referer")
		mockCtx.On("Cookies", "rejected_route", "/some-referer").Return("")
		mockCtx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
			return c.Name == "rejected_route" && c.Value == "" && c.Expires.Before(time.Now())
		})).Return()

		redirect := httpAuth.GetRedirectOrDefault(mockCtx)
		assert.Equal(t, "/account/login", redirect)

		mockCtx.AssertExpectations(t)
	})
}

func TestRouteAuthenticator_AuthErrorHandlerRedirects(t *testing.T) {
	mockAuth := new(MockAuthenticator)
	mockCtx := new(MockContext)

	httpAuth, err := accounts.NewHTTPAuthenticator(mockAuth, newTestConfig())
	require.NoError(t, err)
	httpAuth.Logger = silentLogger{}

	mockCtx.On("Method").Return("GET")
	mockCtx.On("OriginalURL").Return("/account/profile")
	mockCtx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
		return c.Name == "rejected_route" && c.Value == "/account/profile"
	})).Return()
	mockCtx.On("Redirect", "/account/login", []int{http.StatusFound}).Return(nil)

	err = httpAuth.AuthErrorHandler(mockCtx, accounts.ErrNotAuthenticated)
	require.NoError(t, err)

	mockCtx.AssertExpectations(t)
}
