package handler

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/service"
)

// HistoryReader returns a customer's purchase history.
type HistoryReader interface {
    History(ctx context.Context, email string) ([]model.HistoryEntry, error)
}

// LoyaltyUpgrader raises loyalty tiers.
type LoyaltyUpgrader interface {
    Upgrade(ctx context.Context, minPurchases int, targetTier string) (service.LoyaltyResult, error)
}

type CustomerHandler struct {
    History HistoryReader
    Loyalty LoyaltyUpgrader
    Notifier
}

func NewCustomerHandler(history HistoryReader, loyalty LoyaltyUpgrader, n Notifier) *CustomerHandler {
    return &CustomerHandler{History: history, Loyalty: loyalty, Notifier: n}
}

// GetHistory handles GET /api/history/:email.
func (h *CustomerHandler) GetHistory(c echo.Context) error {
    email := strings.TrimSpace(c.Param("email"))
    if email == "" {
        return fail(c, http.StatusBadRequest, "email is required")
    }
    entries, err := h.History.History(c.Request().Context(), email)
    if err != nil {
        return writeError(c, err, "database error")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "history": entries})
}

// UpdateLoyalty handles POST /api/loyalty/update with
// {min_purchases, target_tier}.
func (h *CustomerHandler) UpdateLoyalty(c echo.Context) error {
    var body struct {
        MinPurchases text   `json:"min_purchases"`
        TargetTier   string `json:"target_tier"`
    }
    if err := c.Bind(&body); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    minPurchases, err := intParam(string(body.MinPurchases), 0)
    if err != nil {
        return fail(c, http.StatusBadRequest, "min_purchases must be a non-negative integer")
    }

    res, err := h.Loyalty.Upgrade(c.Request().Context(), minPurchases, strings.TrimSpace(body.TargetTier))
    if err != nil {
        return writeError(c, err, "loyalty update failed")
    }
    if len(res.Updated) > 0 && h.Cache != nil {
        h.Cache.Purge(c.Request().Context())
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success": true,
        "message": res.Message,
        "updated": res.Updated,
    })
}
