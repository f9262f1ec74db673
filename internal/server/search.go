package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/verificapessoa/verificapessoa/internal/lock"
	"github.com/verificapessoa/verificapessoa/internal/logging"
	"github.com/verificapessoa/verificapessoa/internal/report"
	"github.com/verificapessoa/verificapessoa/internal/search"
	"github.com/verificapessoa/verificapessoa/internal/store"
)

// Searcher runs one background check. *search.Service implements it.
type Searcher interface {
	PerformSearch(ctx context.Context, subject report.Subject) (report.Report, error)
}

type SearchHandler struct {
	Store    *store.Store
	Searcher Searcher
	Locker   lock.Locker
	// LockTTL must exceed the search timeout.
	LockTTL time.Duration
	Logger  *zap.Logger
}

func (h *SearchHandler) Register(g *echo.Group, mw ...echo.MiddlewareFunc) {
	g.POST("/search", h.search, mw...)
	g.GET("/searches", h.list, mw...)
	g.GET("/searches/:id", h.get, mw...)
	g.GET("/searches/:id/report.html", h.reportHTML, mw...)
}

// search runs the pipeline for the caller and debits one credit when it
// completes. Failed searches cost nothing.
//
//	@Router	/api/search [post]
func (h *SearchHandler) search(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	subject := report.Subject{Name: req.Name, NationalID: req.NationalID}.Normalize()
	if subject.Empty() {
		return echo.NewHTTPError(http.StatusBadRequest, "name or national_id required")
	}
	u, err := currentUser(c, h.Store)
	if err != nil {
		return err
	}
	if u.Credits < store.CreditsPerSearch {
		return echo.NewHTTPError(http.StatusPaymentRequired, "insufficient credits")
	}

	ctx := c.Request().Context()
	log := logging.OrNop(h.Logger).With(zap.String("user_id", u.ID))
	name := lock.SearchLockName(u.ID)
	ok, err := h.Locker.Acquire(ctx, name, h.LockTTL)
	if err != nil {
		log.Error("search lock unavailable", zap.Error(err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search lock unavailable")
	}
	if !ok {
		return echo.NewHTTPError(http.StatusConflict, "a search is already running for this account")
	}
	defer func() {
		if err := h.Locker.Release(context.WithoutCancel(ctx), name); err != nil && !errors.Is(err, lock.ErrNotHeld) {
			log.Warn("release search lock", zap.Error(err))
		}
	}()

	rep, err := h.Searcher.PerformSearch(logging.ContextWithLogger(ctx, log), subject)
	switch {
	case errors.Is(err, search.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "search timed out")
	case err != nil:
		return echo.NewHTTPError(http.StatusBadGateway, "search failed")
	}

	rec, err := h.Store.RecordSearch(ctx, u.ID, subject, rep)
	if errors.Is(err, store.ErrInsufficientCredits) {
		return echo.NewHTTPError(http.StatusPaymentRequired, "insufficient credits")
	}
	if err != nil {
		log.Error("record search", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "could not store search")
	}
	c.Response().Header().Set(echo.HeaderLocation, "/api/searches/"+rec.ID)
	return c.JSON(http.StatusOK, rep)
}

// list returns the caller's history newest first.
//
//	@Router	/api/searches [get]
func (h *SearchHandler) list(c echo.Context) error {
	userID := subjectOf(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	recs, err := h.Store.ListSearches(c.Request().Context(), userID, queryLimit(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]SearchSummary, 0, len(recs))
	for _, r := range recs {
		out = append(out, toSearchSummary(r))
	}
	return c.JSON(http.StatusOK, listOf(out))
}

// get returns one stored search with its full report.
//
//	@Router	/api/searches/{id} [get]
func (h *SearchHandler) get(c echo.Context) error {
	rec, err := h.owned(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

// reportHTML serves the stored report as a downloadable HTML document.
//
//	@Router	/api/searches/{id}/report.html [get]
func (h *SearchHandler) reportHTML(c echo.Context) error {
	rec, err := h.owned(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := report.RenderHTML(&buf, rec.Report); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="relatorio-`+rec.ID+`.html"`)
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (h *SearchHandler) owned(c echo.Context) (store.SearchRecord, error) {
	userID := subjectOf(c)
	if userID == "" {
		return store.SearchRecord{}, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	rec, err := h.Store.GetSearch(c.Request().Context(), c.Param("id"), userID)
	if errors.Is(err, store.ErrNotFound) {
		return store.SearchRecord{}, echo.NewHTTPError(http.StatusNotFound, "search not found")
	}
	if err != nil {
		return store.SearchRecord{}, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return rec, nil
}

func queryLimit(c echo.Context) int {
	n, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil {
		return 0
	}
	return n
}
