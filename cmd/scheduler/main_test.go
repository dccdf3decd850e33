package main

import (
	"testing"

	"github.com/segyhp/bike-rental-engine/internal/config"
	"github.com/segyhp/bike-rental-engine/pkg/logger"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairs(t *testing.T) {
	fields := pairs([]interface{}{"entry", 3, "now", "x", 42, "dangling"})

	assert.Equal(t, logrus.Fields{"entry": 3, "now": "x"}, fields)
}

func TestSetupCronJobs(t *testing.T) {
	cfg := &config.Config{}
	cfg.Scheduler.OverdueSpec = "0 */15 * * * *"
	cfg.Scheduler.SummarySpec = "0 0 0 * * *"

	c := cron.New(cron.WithSeconds())
	require.NoError(t, setupCronJobs(c, cfg, nil, logger.Discard()))
	assert.Len(t, c.Entries(), 2)

	cfg.Scheduler.SummarySpec = "every day"
	assert.Error(t, setupCronJobs(cron.New(cron.WithSeconds()), cfg, nil, logger.Discard()))
}
