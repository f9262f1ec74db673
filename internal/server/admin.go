package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/verificapessoa/verificapessoa/internal/logging"
	"github.com/verificapessoa/verificapessoa/internal/store"
)

// AdminHandler serves the back office. Routes are mounted behind the admin
// scope.
type AdminHandler struct {
	Store  *store.Store
	Logger *zap.Logger
}

func (h *AdminHandler) Register(g *echo.Group) {
	g.GET("/stats", h.stats)
	g.GET("/users", h.users)
	g.GET("/transactions", h.transactions)
	g.POST("/transactions/:id/confirm", h.confirm)
	g.GET("/searches", h.searches)
	g.POST("/add-credits", h.addCredits)
}

// stats
//
//	@Router	/api/admin/stats [get]
func (h *AdminHandler) stats(c echo.Context) error {
	st, err := h.Store.Stats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, st)
}

// users lists accounts without password hashes.
//
//	@Router	/api/admin/users [get]
func (h *AdminHandler) users(c echo.Context) error {
	us, err := h.Store.ListUsers(c.Request().Context(), queryLimit(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]UserResponse, 0, len(us))
	for _, u := range us {
		out = append(out, toUserResponse(u))
	}
	return c.JSON(http.StatusOK, listOf(out))
}

func (h *AdminHandler) transactions(c echo.Context) error {
	txs, err := h.Store.ListTransactions(c.Request().Context(), queryLimit(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, listOf(txs))
}

func (h *AdminHandler) searches(c echo.Context) error {
	recs, err := h.Store.ListSearches(c.Request().Context(), "", queryLimit(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, listOf(recs))
}

// addCredits tops up an account by email.
//
//	@Router	/api/admin/add-credits [post]
func (h *AdminHandler) addCredits(c echo.Context) error {
	var req AddCreditsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" || req.Credits <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "email and positive credits required")
	}
	u, err := h.Store.AddCredits(c.Request().Context(), req.Email, req.Credits)
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	logging.OrNop(h.Logger).Info("credits added",
		zap.String("admin_id", subjectOf(c)),
		zap.String("user_id", u.ID),
		zap.Int("credits", req.Credits))
	return c.JSON(http.StatusOK, map[string]any{"success": true, "user": toUserResponse(u)})
}

// confirm marks a pending PIX transaction paid and credits its purchaser.
//
//	@Router	/api/admin/transactions/{id}/confirm [post]
func (h *AdminHandler) confirm(c echo.Context) error {
	tx, err := h.Store.ConfirmTransaction(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "pending transaction not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	logging.OrNop(h.Logger).Info("transaction confirmed",
		zap.String("admin_id", subjectOf(c)),
		zap.String("transaction_id", tx.ID),
		zap.Int("credits", tx.Credits))
	return c.JSON(http.StatusOK, tx)
}
