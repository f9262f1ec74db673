package server

import (
	"errors"
	"net/http"
	"net/mail"
	"slices"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/verificapessoa/verificapessoa/internal/runtime"
	"github.com/verificapessoa/verificapessoa/internal/store"
)

// MinPasswordLen is enforced on registration.
const MinPasswordLen = 8

type AuthHandler struct {
	Store        *store.Store
	Secret       []byte
	TokenTTL     time.Duration
	CookieSecure bool
	// AdminEmails are granted the admin scope at login regardless of the
	// is_admin column.
	AdminEmails []string
}

func (a *AuthHandler) Register(g *echo.Group) {
	g.POST("/register", a.register)
	g.POST("/login", a.login)
	g.POST("/logout", a.logout)
}

func (a *AuthHandler) RegisterProfile(g *echo.Group) {
	g.GET("/profile", a.profile)
}

// register creates an account with zero credits.
//
//	@Router	/api/auth/register [post]
func (a *AuthHandler) register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	email := store.NormalizeEmail(req.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	if len(req.Password) < MinPasswordLen {
		return echo.NewHTTPError(http.StatusBadRequest, "password too short")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	u, err := a.Store.CreateUser(c.Request().Context(), email, string(hash))
	if errors.Is(err, store.ErrDuplicateEmail) {
		return echo.NewHTTPError(http.StatusConflict, "email already registered")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, RegisterResponse{Message: "account created", User: toUserResponse(u)})
}

// login returns the JWT in a cookie and in the body for Bearer flows.
//
//	@Router	/api/auth/login [post]
func (a *AuthHandler) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, err := a.Store.GetUserByEmail(c.Request().Context(), req.Email)
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	var scopes []string
	if u.IsAdmin || slices.Contains(a.AdminEmails, u.Email) {
		scopes = append(scopes, runtime.ScopeAdmin)
		u.IsAdmin = true
	}
	signed, err := runtime.SignJWT(u.ID, a.Secret, a.TokenTTL, scopes...)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	cookie := new(http.Cookie)
	cookie.Name = runtime.CookieName
	cookie.Value = signed
	cookie.Path = "/"
	cookie.HttpOnly = true
	cookie.SameSite = http.SameSiteLaxMode
	cookie.Secure = a.CookieSecure
	cookie.MaxAge = int(a.TokenTTL / time.Second)
	c.SetCookie(cookie)
	c.Response().Header().Set("Authorization", "Bearer "+signed)
	return c.JSON(http.StatusOK, TokenResponse{Token: signed, User: toUserResponse(u)})
}

func (a *AuthHandler) logout(c echo.Context) error {
	cookie := new(http.Cookie)
	cookie.Name = runtime.CookieName
	cookie.Value = ""
	cookie.Path = "/"
	cookie.MaxAge = -1
	c.SetCookie(cookie)
	return c.NoContent(http.StatusOK)
}

// profile returns the caller's account and balance.
//
//	@Router	/api/user/profile [get]
func (a *AuthHandler) profile(c echo.Context) error {
	u, err := currentUser(c, a.Store)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

// currentUser loads the account behind the token. A token whose account no
// longer exists is treated as unauthenticated.
// subjectOf is the account id the auth middleware put on the request.
func subjectOf(c echo.Context) string {
	id, _ := runtime.SubjectFromContext(c.Request().Context())
	return id
}

func currentUser(c echo.Context, st *store.Store) (store.User, error) {
	id := subjectOf(c)
	if id == "" {
		return store.User{}, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	u, err := st.GetUser(c.Request().Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, echo.NewHTTPError(http.StatusUnauthorized, "account not found")
	}
	if err != nil {
		return store.User{}, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return u, nil
}
