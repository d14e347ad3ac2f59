package accounts_test

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockCredentialStore implements accounts.CredentialStore
type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) FindByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	args := m.Called(ctx, email)
	account, _ := args.Get(0).(*accounts.Account)
	return account, args.Error(1)
}

func (m *MockCredentialStore) FindByID(ctx context.Context, id string) (*accounts.Account, error) {
	args := m.Called(ctx, id)
	account, _ := args.Get(0).(*accounts.Account)
	return account, args.Error(1)
}

func (m *MockCredentialStore) Insert(ctx context.Context, account *accounts.Account) (*accounts.Account, error) {
	args := m.Called(ctx, account)
	record, _ := args.Get(0).(*accounts.Account)
	return record, args.Error(1)
}

func (m *MockCredentialStore) UpdateProfile(ctx context.Context, id string, fields accounts.ProfileFields) (*accounts.Account, error) {
	args := m.Called(ctx, id, fields)
	record, _ := args.Get(0).(*accounts.Account)
	return record, args.Error(1)
}

func (m *MockCredentialStore) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

// MockAccounts stubs the repository methods the command handlers touch. The
// embedded interface covers the rest of the method set; calling an
// unstubbed method panics, which is what we want in tests.
type MockAccounts struct {
	mock.Mock
	accounts.Accounts
}

func (m *MockAccounts) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*accounts.Account, error) {
	args := m.Called(ctx, tx, email)
	account, _ := args.Get(0).(*accounts.Account)
	return account, args.Error(1)
}

func (m *MockAccounts) FindByID(ctx context.Context, id string) (*accounts.Account, error) {
	args := m.Called(ctx, id)
	account, _ := args.Get(0).(*accounts.Account)
	return account, args.Error(1)
}

func (m *MockAccounts) InsertTx(ctx context.Context, tx bun.IDB, account *accounts.Account) (*accounts.Account, error) {
	args := m.Called(ctx, tx, account)
	record, _ := args.Get(0).(*accounts.Account)
	return record, args.Error(1)
}

func (m *MockAccounts) UpdateProfileTx(ctx context.Context, tx bun.IDB, id string, fields accounts.ProfileFields) (*accounts.Account, error) {
	args := m.Called(ctx, tx, id, fields)
	record, _ := args.Get(0).(*accounts.Account)
	return record, args.Error(1)
}

func (m *MockAccounts) UpdatePasswordHashTx(ctx context.Context, tx bun.IDB, id, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

func (m *MockAccounts) UpdateStatus(ctx context.Context, id string, status accounts.AccountStatus, opts ...accounts.StatusUpdateOption) (*accounts.Account, error) {
	args := m.Called(ctx, id, status, opts)
	record, _ := args.Get(0).(*accounts.Account)
	return record, args.Error(1)
}

// stubRepoManager runs transaction bodies inline against the mock repo.
type stubRepoManager struct {
	accounts *MockAccounts
}

func (s *stubRepoManager) Validate() error { return nil }

func (s *stubRepoManager) MustValidate() {}

func (s *stubRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (s *stubRepoManager) Accounts() accounts.Accounts {
	return s.accounts
}

// MockActivitySink implements accounts.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event accounts.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// capturingSink records every event in order.
type capturingSink struct {
	events []accounts.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, evt accounts.ActivityEvent) error {
	c.events = append(c.events, evt)
	return nil
}

// MockLoginPayload implements accounts.LoginPayload
type MockLoginPayload struct {
	Identifier      string
	Password        string
	ExtendedSession bool
}

func (m MockLoginPayload) GetIdentifier() string { return m.Identifier }

func (m MockLoginPayload) GetPassword() string { return m.Password }

func (m MockLoginPayload) GetExtendedSession() bool { return m.ExtendedSession }

type silentLogger struct{}

func (silentLogger) Debug(format string, args ...any) {}
func (silentLogger) Info(format string, args ...any)  {}
func (silentLogger) Warn(format string, args ...any)  {}
func (silentLogger) Error(format string, args ...any) {}

// recordingLogger renders each call the way defLogger would, so tests can
// assert on the final log line.
type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) log(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Debug(format string, args ...any) { l.log(format, args...) }
func (l *recordingLogger) Info(format string, args ...any)  { l.log(format, args...) }
func (l *recordingLogger) Warn(format string, args ...any)  { l.log(format, args...) }
func (l *recordingLogger) Error(format string, args ...any) { l.log(format, args...) }

// MockAuthenticator implements accounts.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticator) SessionFromToken(token string) (*accounts.SessionClaims, error) {
	args := m.Called(token)
	claims, _ := args.Get(0).(*accounts.SessionClaims)
	return claims, args.Error(1)
}

func (m *MockAuthenticator) AccountFromClaims(ctx context.Context, claims *accounts.SessionClaims) (*accounts.Account, error) {
	args := m.Called(ctx, claims)
	account, _ := args.Get(0).(*accounts.Account)
	return account, args.Error(1)
}

// MockContext mocks router.Context for transport-level tests.
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}

// MockHTTPAuthenticator implements accounts.HTTPAuthenticator
type MockHTTPAuthenticator struct {
	mock.Mock
}

func (m *MockHTTPAuthenticator) Login(c router.Context, payload accounts.LoginPayload) error {
	args := m.Called(c, payload)
	return args.Error(0)
}

func (m *MockHTTPAuthenticator) Logout(c router.Context) {
	m.Called(c)
}

func (m *MockHTTPAuthenticator) SetSessionToken(c router.Context, token string, ttl time.Duration) {
	m.Called(c, token, ttl)
}

func (m *MockHTTPAuthenticator) ClearSessionToken(c router.Context) {
	m.Called(c)
}

func (m *MockHTTPAuthenticator) SetRedirect(c router.Context) {
	m.Called(c)
}

func (m *MockHTTPAuthenticator) GetRedirect(c router.Context, def ...string) string {
	args := m.Called(c, def)
	return args.String(0)
}

func (m *MockHTTPAuthenticator) GetRedirectOrDefault(c router.Context) string {
	args := m.Called(c)
	return args.String(0)
}

// MockTokenService implements accounts.TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Validate(tokenString string) (*accounts.SessionClaims, error) {
	args := m.Called(tokenString)
	claims, _ := args.Get(0).(*accounts.SessionClaims)
	return claims, args.Error(1)
}

func (m *MockTokenService) Issue(claims *accounts.SessionClaims, ttl time.Duration) (string, error) {
	args := m.Called(claims, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) IssueForAccount(account *accounts.Account, ttl time.Duration) (string, error) {
	args := m.Called(account, ttl)
	return args.String(0), args.Error(1)
}
