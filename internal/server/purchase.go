package server

import (
	"math"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/verificapessoa/verificapessoa/config"
	"github.com/verificapessoa/verificapessoa/internal/store"
)

type PurchaseHandler struct {
	Store   *store.Store
	Payment config.PaymentConfig
}

func (h *PurchaseHandler) Register(g *echo.Group, mw ...echo.MiddlewareFunc) {
	g.GET("/packages", h.packages)
	g.POST("/purchase", h.purchase, mw...)
}

// packages lists the credit catalogue keyed by package type.
//
//	@Router	/api/packages [get]
func (h *PurchaseHandler) packages(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Payment.Packages)
}

// purchase opens a pending PIX transaction for a catalogue package. Amount and
// credits always come from the catalogue; when the client sends them they
// must agree with it.
//
//	@Router	/api/purchase [post]
func (h *PurchaseHandler) purchase(c echo.Context) error {
	var req PurchaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pkg, ok := h.Payment.Packages[req.PackageType]
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown package_type")
	}
	if req.Credits != 0 && req.Credits != pkg.Credits {
		return echo.NewHTTPError(http.StatusBadRequest, "credits do not match package")
	}
	if req.Amount != 0 && math.Abs(req.Amount-pkg.Amount) >= 0.005 {
		return echo.NewHTTPError(http.StatusBadRequest, "amount does not match package")
	}
	u, err := currentUser(c, h.Store)
	if err != nil {
		return err
	}
	tx, err := h.Store.CreateTransaction(c.Request().Context(), store.Transaction{
		UserID:      u.ID,
		UserEmail:   u.Email,
		PackageType: req.PackageType,
		PackageName: pkg.Name,
		Amount:      pkg.Amount,
		Credits:     pkg.Credits,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, PurchaseResponse{
		TransactionID: tx.ID,
		PackageName:   tx.PackageName,
		Credits:       tx.Credits,
		Status:        tx.Status,
		PIXInfo:       PIXInfo{Key: h.Payment.PIXKey, Name: h.Payment.PIXName, Amount: tx.Amount},
	})
}
