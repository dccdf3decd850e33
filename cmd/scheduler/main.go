package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segyhp/bike-rental-engine/internal/config"
	"github.com/segyhp/bike-rental-engine/internal/repository"
	"github.com/segyhp/bike-rental-engine/internal/service"
	"github.com/segyhp/bike-rental-engine/pkg/logger"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const jobTimeout = 2 * time.Minute

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting rental scheduler")

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer db.Close()

	reports := service.NewReportService(repository.NewRepositories(db), cfg, log)

	// Initialize cron scheduler
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(cfg.Location()),
		cron.WithChain(cron.Recover(cronLogger{log}), cron.SkipIfStillRunning(cronLogger{log})),
	)

	if err := setupCronJobs(c, cfg, reports, log); err != nil {
		log.WithError(err).Fatal("failed to schedule jobs")
	}

	// Start the scheduler
	c.Start()
	log.Info("scheduler started")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down scheduler")
	<-c.Stop().Done()
	log.Info("scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, reports *service.ReportService, log *logrus.Logger) error {
	// Overdue sweep. Rentals are never mutated; overdue is derived on read.
	if _, err := c.AddFunc(cfg.Scheduler.OverdueSpec, func() {
		reportOverdue(reports, log)
	}); err != nil {
		return err
	}

	// Daily revenue summary for the previous business day
	if _, err := c.AddFunc(cfg.Scheduler.SummarySpec, func() {
		reportDailySummary(reports, log)
	}); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"overdue_spec": cfg.Scheduler.OverdueSpec,
		"summary_spec": cfg.Scheduler.SummarySpec,
	}).Info("cron jobs scheduled")
	return nil
}

func reportOverdue(reports *service.ReportService, log *logrus.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	overdue, err := reports.OverdueRentals(ctx)
	if err != nil {
		log.WithError(err).Error("overdue sweep failed")
		return
	}

	for _, o := range overdue {
		log.WithFields(logrus.Fields{
			"rental_id":      o.RentalID,
			"member_id":      o.MemberID,
			"bike_id":        o.BikeID,
			"planned_return": o.PlannedReturn,
			"overdue_hours":  o.OverdueHours,
		}).Warn("rental overdue")
	}
	log.WithField("count", len(overdue)).Info("overdue sweep finished")
}

func reportDailySummary(reports *service.ReportService, log *logrus.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	summary, err := reports.DailySummary(ctx)
	if err != nil {
		log.WithError(err).Error("daily summary failed")
		return
	}

	log.WithFields(logrus.Fields{
		"from":              summary.From,
		"to":                summary.To,
		"total_rentals":     summary.TotalRentals,
		"by_status":         summary.ByStatus,
		"billed_hours":      summary.BilledHours,
		"expected_revenue":  summary.ExpectedRevenue.StringFixed(2),
		"collected_revenue": summary.CollectedRevenue.StringFixed(2),
		"outstanding":       summary.Outstanding.StringFixed(2),
	}).Info("daily rental summary")
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	log *logrus.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(pairs(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithError(err).WithFields(pairs(keysAndValues)).Error(msg)
}

func pairs(keysAndValues []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			fields[key] = keysAndValues[i+1]
		}
	}
	return fields
}
