package background

import (
	"context"
	"log"
	"sync"
	"time"

	"taskhive/internal/services"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler manages the recurring maintenance jobs: the monthly AI
// counter reset, the daily subscription sweep and the plan cache refresh.
type JobScheduler struct {
	scheduler       gocron.Scheduler
	usageSvc        services.UsageService
	subscriptionSvc services.SubscriptionService
	planSvc         services.PlanService
	jobJobs         map[string]gocron.Job
	mu              sync.RWMutex
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(usageSvc services.UsageService, subscriptionSvc services.SubscriptionService, planSvc services.PlanService) *JobScheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler:       scheduler,
		usageSvc:        usageSvc,
		subscriptionSvc: subscriptionSvc,
		planSvc:         planSvc,
		jobJobs:         make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js
}

// Start starts the job scheduler
func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// registerJobs registers all background jobs
func (js *JobScheduler) registerJobs() {
	// Monthly AI counter reset - midnight on the first of each month
	resetJob, err := js.scheduler.NewJob(
		gocron.CronJob("0 0 1 * *", false),
		gocron.NewTask(js.resetMonthlyUsage),
		gocron.WithName("monthly-usage-reset"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create monthly reset job: %v", err)
	} else {
		js.jobJobs["monthly-usage-reset"] = resetJob
	}

	// Subscription sweep - daily at 02:00
	sweepJob, err := js.scheduler.NewJob(
		gocron.CronJob("0 2 * * *", false),
		gocron.NewTask(js.sweepSubscriptions),
		gocron.WithName("subscription-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create subscription sweep job: %v", err)
	} else {
		js.jobJobs["subscription-sweep"] = sweepJob
	}

	// Plan cache refresh - every hour
	planJob, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(js.refreshPlanCache),
		gocron.WithName("plan-cache-refresh"),
	)
	if err != nil {
		log.Printf("Failed to create plan cache job: %v", err)
	} else {
		js.jobJobs["plan-cache-refresh"] = planJob
	}

	log.Printf("Registered %d background jobs", len(js.jobJobs))
}

// resetMonthlyUsage zeroes the AI usage counters on active subscriptions
func (js *JobScheduler) resetMonthlyUsage() error {
	log.Printf("Starting monthly usage reset")

	count, err := js.usageSvc.ResetMonthlyCounters(context.Background())
	if err != nil {
		log.Printf("Monthly usage reset failed: %v", err)
		return err
	}

	log.Printf("Monthly usage reset completed for %d subscriptions", count)
	return nil
}

// sweepSubscriptions expires lapsed subscriptions and renews auto-renewing
// ones past their end date
func (js *JobScheduler) sweepSubscriptions() error {
	ctx := context.Background()
	log.Printf("Starting subscription sweep")

	expired, err := js.subscriptionSvc.ExpireOverdue(ctx)
	if err != nil {
		log.Printf("Subscription expiry sweep failed: %v", err)
	}

	renewed, err := js.subscriptionSvc.RenewDue(ctx)
	if err != nil {
		log.Printf("Subscription renewal sweep failed: %v", err)
		return err
	}

	log.Printf("Subscription sweep completed: %d expired, %d renewed", expired, renewed)
	return nil
}

// refreshPlanCache re-primes the plan cache from the database
func (js *JobScheduler) refreshPlanCache() error {
	if err := js.planSvc.RefreshCache(context.Background()); err != nil {
		log.Printf("Plan cache refresh failed: %v", err)
		return err
	}
	return nil
}

// AddJob adds a custom job to the scheduler
func (js *JobScheduler) AddJob(name string, interval time.Duration, taskFn interface{}, params ...interface{}) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(taskFn, params...),
		gocron.WithName(name),
	)

	if err != nil {
		return err
	}

	js.jobJobs[name] = job
	log.Printf("Added custom job: %s", name)
	return nil
}

// RemoveJob removes a job from the scheduler
func (js *JobScheduler) RemoveJob(name string) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobJobs[name]; exists {
		err := js.scheduler.RemoveJob(job.ID())
		delete(js.jobJobs, name)
		return err
	}

	return nil
}

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	status := make(map[string]interface{})
	status["total_jobs"] = len(js.jobJobs)
	jobs := make([]string, 0, len(js.jobJobs))

	for name := range js.jobJobs {
		jobs = append(jobs, name)
	}

	status["jobs"] = jobs

	return status
}
