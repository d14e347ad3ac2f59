package accounts

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
)

// RegisterAccountRoutes mounts the credential flows on the given router.
// Profile and password routes are wrapped by the authenticated guard; the
// session middleware itself is expected to be mounted app wide by the
// embedding application.
func RegisterAccountRoutes[T any](app router.Router[T], opts ...AccountControllerOption) {
	controller := NewAccountController(opts...)
	guard := AuthenticatedGuard(GuardConfig{LoginRoute: controller.Routes.Login})

	app.
		Get(controller.Routes.Login, controller.LoginShow).
		SetName("account-login.get")
	app.
		Post(controller.Routes.Login, controller.LoginPost).
		SetName("account-login.post")

	app.Get(controller.Routes.Logout, controller.Logout).SetName("account-logout.get")

	app.Get(controller.Routes.Register, controller.RegistrationShow).
		SetName("account-register.get")
	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("account-register.post")

	app.Get(controller.Routes.Profile, guard(controller.ProfileShow)).
		SetName("account-profile.get")
	app.Post(controller.Routes.Profile, guard(controller.ProfileUpdate)).
		SetName("account-profile.post")

	app.Get(controller.Routes.Password, guard(controller.PasswordShow)).
		SetName("account-password.get")
	app.Post(controller.Routes.Password, guard(controller.PasswordUpdate)).
		SetName("account-password.post")
}

type AccountControllerRoutes struct {
	Login    string
	Logout   string
	Register string
	Profile  string
	Password string
}

type AccountControllerViews struct {
	Login    string
	Register string
	Profile  string
	Password string
}

type AccountController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Routes       *AccountControllerRoutes
	Views        *AccountControllerViews
	Auther       HTTPAuthenticator
	Tokens       TokenService
	Activity     ActivitySink
	ErrorHandler router.ErrorHandler
}

type AccountControllerOption func(*AccountController) *AccountController

func WithControllerRepo(repo RepositoryManager) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther HTTPAuthenticator) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Auther = auther
		return c
	}
}

func WithControllerTokenService(tokens TokenService) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Tokens = tokens
		return c
	}
}

func WithControllerLogger(logger Logger) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerActivitySink(sink ActivitySink) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Activity = normalizeActivitySink(sink)
		return c
	}
}

func NewAccountController(opts ...AccountControllerOption) *AccountController {
	c := &AccountController{
		Logger:       defLogger{},
		Activity:     noopActivitySink{},
		ErrorHandler: defaultErrHandler,
		Routes: &AccountControllerRoutes{
			Login:    "/account/login",
			Logout:   "/account/logout",
			Register: "/account/register",
			Profile:  "/account/profile",
			Password: "/account/password",
		},
		Views: &AccountControllerViews{
			Login:    "account/login",
			Register: "account/register",
			Profile:  "account/profile",
			Password: "account/password",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in account controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in account controller...")
	}

	if c.Tokens == nil {
		panic("Missing TokenService in account controller...")
	}

	return c
}

func (a *AccountController) LoginShow(ctx router.Context) error {
	return ctx.Render(a.Views.Login, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
	RememberMe bool   `form:"remember_me" json:"remember_me"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// GetExtendedSession will return the remember me flag
func (r LoginRequest) GetExtendedSession() bool {
	return r.RememberMe
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AccountController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.Login, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		a.Logger.Debug("login attempt %s", print.MaybePrettyJSON(payload))
	}

	if err := a.Auther.Login(ctx, payload); err != nil {
		// unknown email and wrong password render identically
		return flash.WithError(ctx, router.ViewContext{
			"error_message": "Invalid email or password.",
		}).Render(a.Views.Login, router.ViewContext{
			"errors": map[string]string{"authentication": "Invalid email or password."},
			"record": payload,
		})
	}

	redirect := a.Auther.GetRedirect(ctx, "/")
	return ctx.Redirect(redirect, router.StatusSeeOther)
}

func (a *AccountController) Logout(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return ctx.Redirect("/", router.StatusSeeOther)
}

func (a *AccountController) RegistrationShow(ctx router.Context) error {
	return ctx.Render(a.Views.Register, router.ViewContext{
		"errors": map[string]string{},
		"record": RegisterAccountMessage{},
	})
}

// RegistrationCreatePayload is the form payload
type RegistrationCreatePayload struct {
	FirstName       string `form:"first_name" json:"first_name"`
	LastName        string `form:"last_name" json:"last_name"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, NameRules()...),
		validation.Field(&r.LastName, NameRules()...),
		validation.Field(&r.Email, EmailRules()...),
		validation.Field(&r.Password, PasswordPolicyRules()...),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AccountController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register account parse payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.Register, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register account validate payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.Register, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	req := RegisterAccountMessage{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Password:  payload.Password,
	}

	registerAccount := NewRegisterAccountHandler(a.Repo).
		WithActivitySink(a.Activity).
		WithLogger(a.Logger)
	if _, err := registerAccount.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register account error: %v", err)

		message := "Registration failed"
		if IsDuplicateEmail(err) {
			message = "That email is already registered."
		}

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  message,
			"system_message": message,
		}).Render(a.Views.Register, router.ViewContext{
			"record": payload,
			"errors": map[string]string{"email": message},
		})
	}

	// registration never starts a session; the account holder logs in
	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Registration successful. Please log in.",
	}).Redirect(a.Routes.Login, fiber.StatusSeeOther)
}

func (a *AccountController) ProfileShow(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, "")
	if !ok {
		return a.ErrorHandler(ctx, ErrNotAuthenticated)
	}

	account, err := a.Repo.Accounts().FindByID(ctx.Context(), claims.AccountID())
	if err != nil {
		a.Logger.Error("profile load error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Render(a.Views.Profile, router.ViewContext{
		"errors": map[string]string{},
		"record": account,
	})
}

// ProfileUpdatePayload is the form payload
type ProfileUpdatePayload struct {
	FirstName string `form:"first_name" json:"first_name"`
	LastName  string `form:"last_name" json:"last_name"`
	Email     string `form:"email" json:"email"`
}

// Validate will validate the payload
func (r ProfileUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, NameRules()...),
		validation.Field(&r.LastName, NameRules()...),
		validation.Field(&r.Email, EmailRules()...),
	)
}

func (a *AccountController) ProfileUpdate(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, "")
	if !ok {
		return a.ErrorHandler(ctx, ErrNotAuthenticated)
	}

	payload := new(ProfileUpdatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("profile update parse payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.Profile, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.Profile, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	req := UpdateProfileMessage{
		AccountID: claims.AccountID(),
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
	}

	updateProfile := NewUpdateProfileHandler(a.Repo).
		WithActivitySink(a.Activity).
		WithLogger(a.Logger)
	account, err := updateProfile.Execute(ctx.Context(), req)
	if err != nil {
		a.Logger.Error("profile update error: %v", err)

		message := "Profile update failed"
		if IsDuplicateEmail(err) {
			message = "That email is already registered."
		}

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  message,
			"system_message": message,
		}).Render(a.Views.Profile, router.ViewContext{
			"record": payload,
			"errors": map[string]string{"email": message},
		})
	}

	// the session claims mirror the profile, so a stale token would keep
	// rendering the old name and email until expiry
	if err := a.reissueSession(ctx, account); err != nil {
		a.Logger.Error("profile update token reissue: %v", err)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Profile updated.",
	}).Redirect(a.Routes.Profile, fiber.StatusSeeOther)
}

func (a *AccountController) PasswordShow(ctx router.Context) error {
	return ctx.Render(a.Views.Password, router.ViewContext{
		"errors": map[string]string{},
	})
}

// PasswordUpdatePayload is the form payload
type PasswordUpdatePayload struct {
	CurrentPassword string `form:"current_password" json:"current_password"`
	NewPassword     string `form:"new_password" json:"new_password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r PasswordUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, PasswordPolicyRules()...),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.NewPassword)),
		),
	)
}

func (a *AccountController) PasswordUpdate(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, "")
	if !ok {
		return a.ErrorHandler(ctx, ErrNotAuthenticated)
	}

	payload := new(PasswordUpdatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("password update parse payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.Password, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
		})
	}

	if err := payload.Validate(); err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.Password, router.ViewContext{
			"validation": FormatValidationErrorToMap(err),
		})
	}

	req := ChangePasswordMessage{
		AccountID:       claims.AccountID(),
		CurrentPassword: payload.CurrentPassword,
		NewPassword:     payload.NewPassword,
	}

	changePassword := NewChangePasswordHandler(a.Repo).
		WithActivitySink(a.Activity).
		WithLogger(a.Logger)
	account, err := changePassword.Execute(ctx.Context(), req)
	if err != nil {
		a.Logger.Error("password update error: %v", err)

		message := "Password change failed"
		if IsInvalidCredentials(err) {
			message = "Current password is incorrect."
		}

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  message,
			"system_message": message,
		}).Render(a.Views.Password, router.ViewContext{
			"errors": map[string]string{"current_password": message},
		})
	}

	if err := a.reissueSession(ctx, account); err != nil {
		a.Logger.Error("password update token reissue: %v", err)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Password updated.",
	}).Redirect(a.Routes.Profile, fiber.StatusSeeOther)
}

// reissueSession replaces the session cookie with a token minted from the
// account's current state.
func (a *AccountController) reissueSession(ctx router.Context, account *Account) error {
	token, err := a.Tokens.IssueForAccount(account, 0)
	if err != nil {
		return err
	}

	ttl := DefaultTokenTTL
	if auther, ok := a.Auther.(interface{ GetTokenTTL() time.Duration }); ok {
		ttl = auther.GetTokenTTL()
	}

	a.Auther.SetSessionToken(ctx, token, ttl)
	return nil
}

func defaultErrHandler(c router.Context, err error) error {
	return c.Render("errors/500", router.ViewContext{
		"message": err.Error(),
	})
}
