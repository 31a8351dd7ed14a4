package database

import (
	"time"

	"example.com/restaurant-pos/internal/metrics"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const startTimeKey = "metrics:start_time"

// RegisterMetricsHooks times every create, query, update and delete into collector
func RegisterMetricsHooks(db *gorm.DB, collector *metrics.Metrics) error {
	cb := db.Callback()

	hooks := []struct {
		name   string
		before error
		after  error
	}{
		{
			name:   "insert",
			before: cb.Create().Before("gorm:create").Register("metrics:before_create", markStart),
			after:  cb.Create().After("gorm:create").Register("metrics:after_create", record(collector, "insert")),
		},
		{
			name:   "select",
			before: cb.Query().Before("gorm:query").Register("metrics:before_query", markStart),
			after:  cb.Query().After("gorm:query").Register("metrics:after_query", record(collector, "select")),
		},
		{
			name:   "update",
			before: cb.Update().Before("gorm:update").Register("metrics:before_update", markStart),
			after:  cb.Update().After("gorm:update").Register("metrics:after_update", record(collector, "update")),
		},
		{
			name:   "delete",
			before: cb.Delete().Before("gorm:delete").Register("metrics:before_delete", markStart),
			after:  cb.Delete().After("gorm:delete").Register("metrics:after_delete", record(collector, "delete")),
		},
	}

	for _, h := range hooks {
		if h.before != nil {
			return errors.Wrapf(h.before, "failed to register %s start hook", h.name)
		}
		if h.after != nil {
			return errors.Wrapf(h.after, "failed to register %s metrics hook", h.name)
		}
	}
	return nil
}

func markStart(db *gorm.DB) {
	db.InstanceSet(startTimeKey, time.Now())
}

func record(collector *metrics.Metrics, op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		success := db.Error == nil || errors.Is(db.Error, gorm.ErrRecordNotFound)
		collector.RecordDatabaseQuery(op, success, elapsed(db))
	}
}

func elapsed(db *gorm.DB) time.Duration {
	if start, ok := db.InstanceGet(startTimeKey); ok {
		if t, ok := start.(time.Time); ok {
			return time.Since(t)
		}
	}
	return 0
}
