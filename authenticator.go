package accounts

import (
	"context"
	"time"
)

// Auther resolves credentials against the store and issues session tokens.
// Registration and mutation flows live in the command handlers; Auther owns
// the read side: verify a password, mint a token, recover a session.
type Auther struct {
	store          CredentialStore
	signingKey     []byte
	tokenTTL       time.Duration
	issuer         string
	audience       []string
	logger         Logger
	activity       ActivitySink
	tokenService   TokenService
	tokenValidator TokenValidator
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(store CredentialStore, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenTTL(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		store:        store,
		signingKey:   []byte(opts.GetSigningKey()),
		tokenTTL:     opts.GetTokenTTL(),
		audience:     opts.GetAudience(),
		issuer:       opts.GetIssuer(),
		logger:       defLogger{},
		activity:     noopActivitySink{},
		tokenService: tokenService,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	s.tokenService = NewTokenService(
		s.signingKey,
		s.tokenTTL,
		s.issuer,
		s.audience,
		logger,
	)
	return s
}

// WithActivitySink routes login audit events to the given sink.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activity = normalizeActivitySink(sink)
	return s
}

// WithTokenService overrides the token service, e.g. to inject a test clock.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// WithTokenValidator sets a custom token validator for externally issued tokens.
func (s *Auther) WithTokenValidator(validator TokenValidator) *Auther {
	s.tokenValidator = validator
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the email/password pair and returns a signed session token.
// A missing account and a wrong password both come back as
// ErrInvalidCredentials so callers cannot enumerate accounts.
func (s *Auther) Login(ctx context.Context, email, password string) (string, error) {
	normalized := NormalizeEmail(email)

	account, err := s.store.FindByEmail(ctx, normalized)
	if err != nil {
		if IsAccountNotFound(err) {
			s.logger.Debug("Login unknown email")
			s.recordLogin(ctx, ActivityEventLoginFailure, "", normalized, "unknown_email")
			return "", ErrInvalidCredentials
		}
		s.logger.Error("Login store lookup failed: %v", err)
		return "", storageError(err)
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		s.logger.Debug("Login password mismatch for account %s", account.ID.String())
		s.recordLogin(ctx, ActivityEventLoginFailure, account.ID.String(), normalized, "password_mismatch")
		return "", ErrInvalidCredentials
	}

	// non active accounts fail exactly like bad credentials so lifecycle
	// state is not observable from the login form
	if !account.CanLogin() {
		s.logger.Debug("Login rejected for account %s with status %s", account.ID.String(), account.Status)
		s.recordLogin(ctx, ActivityEventLoginFailure, account.ID.String(), normalized, "inactive_account")
		return "", ErrInvalidCredentials
	}

	token, err := s.tokenService.IssueForAccount(account, s.tokenTTL)
	if err != nil {
		s.logger.Error("Login token issue failed: %v", err)
		return "", err
	}

	s.recordLogin(ctx, ActivityEventLoginSuccess, account.ID.String(), normalized, "")

	return token, nil
}

func (s *Auther) recordLogin(ctx context.Context, eventType ActivityEventType, accountID, email, reason string) {
	evt := ActivityEvent{
		EventType:  eventType,
		Actor:      ActorRef{ID: accountID, Type: "account"},
		AccountID:  accountID,
		Email:      email,
		OccurredAt: time.Now().UTC(),
	}
	if reason != "" {
		evt.Metadata = map[string]any{"reason": reason}
	}
	if err := s.activity.Record(ctx, evt); err != nil {
		s.logger.Warn("activity sink rejected %s event: %v", string(eventType), err)
	}
}

// SessionFromToken validates a raw token and returns its claims.
func (s *Auther) SessionFromToken(raw string) (*SessionClaims, error) {
	validator := s.tokenValidator
	if validator == nil {
		validator = s.tokenService
	}

	claims, err := validator.Validate(raw)
	if err != nil {
		s.logger.Debug("SessionFromToken validation failed: %v", err)
		return nil, err
	}

	return claims, nil
}

// AccountFromClaims loads the backing account for validated claims.
func (s *Auther) AccountFromClaims(ctx context.Context, claims *SessionClaims) (*Account, error) {
	if claims == nil {
		return nil, ErrNotAuthenticated
	}

	account, err := s.store.FindByID(ctx, claims.AccountID())
	if err != nil {
		s.logger.Error("AccountFromClaims lookup failed: %s", err)
		return nil, err
	}

	return account, nil
}

var _ Authenticator = (*Auther)(nil)
