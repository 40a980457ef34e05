package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/HSouheill/barrim_network/config"
	"github.com/HSouheill/barrim_network/controllers"
	"github.com/HSouheill/barrim_network/jobs"
	"github.com/HSouheill/barrim_network/middleware"
	"github.com/HSouheill/barrim_network/routes"
	"github.com/HSouheill/barrim_network/services"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "barrim-network",
		Short:         "Referral network, commission and rank engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newJobsCommand())
	return root
}

func newServeCommand() *cobra.Command {
	var noWorker, noScheduler bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the job worker and the scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := config.LoadSettings()
			if settings.JWTSecret == "" {
				return errors.New("JWT_SECRET environment variable is required")
			}
			a := newApp(settings)
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e := newServer(a)
			g, ctx := errgroup.WithContext(ctx)

			go a.hub.Run()
			g.Go(func() error {
				if err := e.Start(":" + settings.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				return e.Shutdown(shutdownCtx)
			})
			if !noWorker {
				g.Go(func() error { return a.worker().Run(ctx) })
			}
			if !noScheduler {
				g.Go(func() error { return a.scheduler().Run(ctx) })
			}
			return g.Wait()
		},
	}
	cmd.Flags().BoolVar(&noWorker, "no-worker", false, "do not consume the job queue")
	cmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "do not enqueue periodic jobs")
	return cmd
}

func newServer(a *app) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = newEchoValidator()

	rateLimiter := middleware.NewRateLimiter(a.settings.RateLimitPerMinute)
	e.Server.RegisterOnShutdown(rateLimiter.Stop)

	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.GlobalCORS(a.settings.AllowedOrigins))
	e.Use(echoMiddleware.Secure())
	e.Use(middleware.SecurityHeaders())
	e.Use(rateLimiter.RateLimit())

	networkController := controllers.NewNetworkController(a.engine)
	adminController := controllers.NewNetworkAdminController(a.engine, a.scheduler(), a.queue)
	routes.SetupRoutes(e, a.settings.JWTSecret, a.hub, networkController, adminController)
	return e
}

func newJobsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Run or inspect the periodic network batches",
	}

	var period string
	run := &cobra.Command{
		Use:       "run <" + services.JobRankSnapshot + "|" + services.JobVoidExpired + "|" + services.JobReleaseOnHold + "|" + services.JobBonusDistribution + ">",
		Short:     "Run one batch now for --period, bypassing the queue",
		Args:      cobra.ExactArgs(1),
		ValidArgs: jobs.MonthlyCycle,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !jobs.KnownType(args[0]) {
				return fmt.Errorf("unknown job type %q", args[0])
			}
			a := newApp(config.LoadSettings())
			defer a.close()

			results, err := a.worker().Execute(cmd.Context(), args[0], period)
			printJSON(results)
			return err
		},
	}
	run.Flags().StringVar(&period, "period", "", "period to process, YYYY-MM")
	run.MarkFlagRequired("period")

	var limit int64
	dead := &cobra.Command{
		Use:   "dead",
		Short: "List dead-lettered jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp(config.LoadSettings())
			defer a.close()

			list, err := a.queue.Dead(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printJSON(list)
			return nil
		},
	}
	dead.Flags().Int64Var(&limit, "limit", 50, "maximum number of jobs to list")

	cmd.AddCommand(run, dead)
	return cmd
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Printf("Error encoding output: %v", err)
	}
}
