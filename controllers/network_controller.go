package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/HSouheill/barrim_network/models"
	"github.com/HSouheill/barrim_network/services"
)

const requestTimeout = 10 * time.Second

// NetworkController serves member activation, sale ingestion and the
// read-only views of an account's network
type NetworkController struct {
	engine *services.Engine
}

func NewNetworkController(engine *services.Engine) *NetworkController {
	return &NetworkController{engine: engine}
}

// saleRequest is the sale event posted by the order service.
type saleRequest struct {
	Reference string          `json:"reference"`
	AccountID string          `json:"accountId"`
	Amount    decimal.Decimal `json:"amount"`
	Type      string          `json:"type"`
	At        time.Time       `json:"at"`
	// RecordVolume defaults to true; false pays commissions for a sale
	// whose volume was recorded elsewhere.
	RecordVolume *bool `json:"recordVolume,omitempty"`
}

// AddMember places an activated account in the referral tree
func (nc *NetworkController) AddMember(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	var req models.AddMemberRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := models.Validator().Struct(req); err != nil {
		return badRequest(c, "Validation failed", err)
	}

	if err := nc.engine.AddMember(ctx, req.AccountID, req.ReferrerID); err != nil {
		return respondError(c, err, "Failed to add network member")
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Member added to network",
		Data:    req,
	})
}

// RecordSale ingests a completed sale and pays the upline commissions
func (nc *NetworkController) RecordSale(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	var req saleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	sale := models.Sale{
		Reference: req.Reference,
		AccountID: req.AccountID,
		Amount:    req.Amount,
		Type:      req.Type,
		At:        req.At,
	}

	var (
		records []models.CommissionRecord
		err     error
	)
	if req.RecordVolume == nil || *req.RecordVolume {
		records, err = nc.engine.OnSaleCompleted(ctx, sale)
	} else {
		records, err = nc.engine.ComputeCommission(ctx, sale)
	}
	if err != nil {
		return respondError(c, err, "Failed to process sale")
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Sale processed",
		Data: map[string]interface{}{
			"commissions": records,
			"total":       services.TotalAmount(records),
		},
	})
}

// GetRank returns the account's live rank for the current period
func (nc *NetworkController) GetRank(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	rank, err := nc.engine.GetRank(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err, "Failed to resolve rank")
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Rank resolved",
		Data:    rank,
	})
}

// GetUplines returns the full upline chain, nearest first
func (nc *NetworkController) GetUplines(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	uplines, err := nc.engine.GetUplineChain(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err, "Failed to load uplines")
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Uplines retrieved",
		Data:    uplines,
	})
}

// GetDownlines returns descendants down to ?depth= (default 5)
func (nc *NetworkController) GetDownlines(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	depth, err := intParam(c, "depth", models.MaxCommissionLevel)
	if err != nil || depth < 1 {
		return badRequest(c, "depth must be a positive integer", err)
	}

	downlines, err := nc.engine.GetDownlines(ctx, c.Param("id"), depth)
	if err != nil {
		return respondError(c, err, "Failed to load downlines")
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Downlines retrieved",
		Data:    downlines,
	})
}

// GetTeamVolume returns PV, leg volumes and GV for ?period=YYYY-MM, or all time
func (nc *NetworkController) GetTeamVolume(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	var period models.Period
	if raw := c.QueryParam("period"); raw != "" {
		p, err := models.ParsePeriod(raw)
		if err != nil {
			return badRequest(c, "period must be YYYY-MM", err)
		}
		period = p
	}

	volume, err := nc.engine.GetTeamVolume(ctx, c.Param("id"), period)
	if err != nil {
		return respondError(c, err, "Failed to load team volume")
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Team volume retrieved",
		Data:    volume,
	})
}

// GetCommissions lists the account's commissions, newest first
func (nc *NetworkController) GetCommissions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	status := c.QueryParam("status")
	switch status {
	case "", models.CommissionOnHold, models.CommissionReleased, models.CommissionVoid:
	default:
		return badRequest(c, "Unknown commission status", nil)
	}
	limit, err := intParam(c, "limit", 50)
	if err != nil {
		return badRequest(c, "limit must be an integer", err)
	}

	records, err := nc.engine.ListCommissions(ctx, c.Param("id"), status, int64(limit))
	if err != nil {
		return respondError(c, err, "Failed to load commissions")
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commissions retrieved",
		Data:    records,
	})
}

// GetWallet returns the balance and recent ledger entries
func (nc *NetworkController) GetWallet(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	limit, err := intParam(c, "limit", 20)
	if err != nil {
		return badRequest(c, "limit must be an integer", err)
	}

	wallet, entries, err := nc.engine.Wallet(ctx, c.Param("id"), int64(limit))
	if err != nil {
		return respondError(c, err, "Failed to load wallet")
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Wallet retrieved",
		Data: map[string]interface{}{
			"wallet":  wallet,
			"entries": entries,
		},
	})
}

func intParam(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
