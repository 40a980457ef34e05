package main

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/HSouheill/barrim_network/config"
	"github.com/HSouheill/barrim_network/jobs"
	"github.com/HSouheill/barrim_network/models"
	"github.com/HSouheill/barrim_network/repositories"
	"github.com/HSouheill/barrim_network/repositories/memory"
	"github.com/HSouheill/barrim_network/services"
	"github.com/HSouheill/barrim_network/utils"
	"github.com/HSouheill/barrim_network/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// app holds everything the commands share.
type app struct {
	settings   config.Settings
	engine     *services.Engine
	queue      jobs.Queue
	hub        *websocket.Hub
	dispatcher *utils.NotificationDispatcher
	closers    []func()
}

func newApp(settings config.Settings) *app {
	a := &app{settings: settings}

	var repos *repositories.Repositories
	switch settings.Storage {
	case config.StorageMemory:
		log.Println("Warning: using in-memory storage, data is lost on exit")
		repos = memory.NewStore().Repositories()
	default:
		client, db := config.ConnectDB(settings)
		repos = repositories.NewMongoRepositories(client, db)
		a.closers = append(a.closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				log.Printf("Error disconnecting MongoDB: %v", err)
			}
		})
	}

	if redisClient := config.ConnectRedis(settings); redisClient != nil {
		a.queue = jobs.NewRedisQueue(redisClient, "")
		a.closers = append(a.closers, func() { redisClient.Close() })
	} else {
		log.Println("Warning: Redis unavailable, jobs are queued in memory and lost on restart")
		a.queue = jobs.NewMemoryQueue()
	}

	a.hub = websocket.NewHub()
	a.dispatcher = utils.NewNotificationDispatcher(repos.Accounts, a.hub, config.InitFirebase(settings), utils.MailSettings{
		Host:       settings.SMTPHost,
		Port:       settings.SMTPPort,
		User:       settings.SMTPUser,
		Password:   settings.SMTPPassword,
		From:       settings.SMTPFrom,
		AdminEmail: settings.AdminEmail,
	})
	a.engine = services.NewEngine(repos, a.dispatcher)
	return a
}

func (a *app) retryPolicy() jobs.RetryPolicy {
	policy := jobs.DefaultRetryPolicy()
	policy.MaxAttempts = a.settings.JobMaxAttempts
	policy.InitialBackoff = a.settings.JobBackoffInitial
	policy.MaxBackoff = a.settings.JobBackoffMax
	return policy
}

func (a *app) worker() *jobs.Worker {
	return jobs.NewWorker(a.queue, a.engine, a.retryPolicy(), a.settings.WorkerConcurrency, a.dispatcher)
}

func (a *app) scheduler() *jobs.Scheduler {
	return jobs.NewScheduler(a.queue, a.settings.SchedulerInterval, a.settings.JobMaxAttempts)
}

// close waits for pending notifications and releases connections.
func (a *app) close() {
	a.dispatcher.Wait()
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newEchoValidator() *CustomValidator {
	return &CustomValidator{validator: models.Validator()}
}
