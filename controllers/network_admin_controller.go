package controllers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/barrim_network/jobs"
	"github.com/HSouheill/barrim_network/models"
	"github.com/HSouheill/barrim_network/services"
)

// jobRoutes maps the path names of the job triggers to job types.
var jobRoutes = map[string]string{
	"rank-snapshot": services.JobRankSnapshot,
	"release":       services.JobReleaseOnHold,
	"void":          services.JobVoidExpired,
	"bonus":         services.JobBonusDistribution,
}

// NetworkAdminController manages the compensation plan and the batch jobs
type NetworkAdminController struct {
	engine    *services.Engine
	scheduler *jobs.Scheduler
	queue     jobs.Queue
}

func NewNetworkAdminController(engine *services.Engine, scheduler *jobs.Scheduler, queue jobs.Queue) *NetworkAdminController {
	return &NetworkAdminController{engine: engine, scheduler: scheduler, queue: queue}
}

// GetPlan returns the rank table and level rates
func (ac *NetworkAdminController) GetPlan(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	plan, err := ac.engine.Plan.Export(ctx)
	if err != nil {
		return respondError(c, err, "Failed to load compensation plan")
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Compensation plan retrieved",
		Data:    plan,
	})
}

// UpdatePlan validates and replaces the whole compensation plan
func (ac *NetworkAdminController) UpdatePlan(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	var plan models.Plan
	if err := c.Bind(&plan); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	if _, err := ac.engine.Plan.Replace(ctx, plan); err != nil {
		return respondError(c, err, "Compensation plan rejected")
	}

	c.Logger().Infof("Compensation plan replaced by %v: %d ranks, %d level rates",
		c.Get("userId"), len(plan.Ranks), len(plan.LevelRates))
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Compensation plan updated",
		Data:    plan,
	})
}

// TriggerJob enqueues one batch for ?period=YYYY-MM. The special type
// monthly-cycle enqueues the full settlement chain.
func (ac *NetworkAdminController) TriggerJob(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	period, err := models.ParsePeriod(c.QueryParam("period"))
	if err != nil {
		return badRequest(c, "period must be YYYY-MM", err)
	}

	name := c.Param("type")
	if name == "monthly-cycle" {
		if err := ac.scheduler.EnqueueCycle(ctx, period); err != nil {
			return respondError(c, err, "Failed to enqueue monthly cycle")
		}
		return c.JSON(http.StatusAccepted, models.Response{
			Status:  http.StatusAccepted,
			Message: "Monthly cycle enqueued",
			Data:    map[string]interface{}{"period": period.String(), "jobs": jobs.MonthlyCycle},
		})
	}

	jobType, ok := jobRoutes[name]
	if !ok {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Unknown job type",
		})
	}
	job, err := ac.scheduler.Enqueue(ctx, jobType, period)
	if err != nil {
		return respondError(c, err, "Failed to enqueue job")
	}
	return c.JSON(http.StatusAccepted, models.Response{
		Status:  http.StatusAccepted,
		Message: "Job enqueued",
		Data:    job,
	})
}

// GetDeadJobs lists jobs that exhausted their retries
func (ac *NetworkAdminController) GetDeadJobs(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	limit, err := intParam(c, "limit", 100)
	if err != nil {
		return badRequest(c, "limit must be an integer", err)
	}
	dead, err := ac.queue.Dead(ctx, int64(limit))
	if err != nil {
		return respondError(c, err, "Failed to load dead-lettered jobs")
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Dead-lettered jobs retrieved",
		Data:    dead,
	})
}

// GetBonusPayouts lists the bonuses paid for ?period=YYYY-MM
func (ac *NetworkAdminController) GetBonusPayouts(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	period, err := models.ParsePeriod(c.QueryParam("period"))
	if err != nil {
		return badRequest(c, "period must be YYYY-MM", err)
	}
	payouts, err := ac.engine.BonusPayouts(ctx, period)
	if err != nil {
		return respondError(c, err, "Failed to load bonus payouts")
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Bonus payouts retrieved",
		Data:    payouts,
	})
}
