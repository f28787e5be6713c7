package database

import (
	"time"

	"gorm.io/gorm"
)

// MetricsRecorder receives query timings and pool stats from the GORM hooks
type MetricsRecorder interface {
	RecordDBQuery(operation, table string, duration time.Duration, err error)
	UpdateDBStats(stats interface{})
}

const statsInterval = 15 * time.Second

// RegisterMetricsCallbacks hooks query timing into every GORM operation
func RegisterMetricsCallbacks(db *gorm.DB, recorder MetricsRecorder) {
	query := timedHooks(recorder, "select")
	db.Callback().Query().Before("gorm:query").Register("field_metrics:query_before", query.before)
	db.Callback().Query().After("gorm:query").Register("field_metrics:query_after", query.after)

	create := timedHooks(recorder, "insert")
	db.Callback().Create().Before("gorm:create").Register("field_metrics:create_before", create.before)
	db.Callback().Create().After("gorm:create").Register("field_metrics:create_after", create.after)

	update := timedHooks(recorder, "update")
	db.Callback().Update().Before("gorm:update").Register("field_metrics:update_before", update.before)
	db.Callback().Update().After("gorm:update").Register("field_metrics:update_after", update.after)

	del := timedHooks(recorder, "delete")
	db.Callback().Delete().Before("gorm:delete").Register("field_metrics:delete_before", del.before)
	db.Callback().Delete().After("gorm:delete").Register("field_metrics:delete_after", del.after)
}

type hookPair struct {
	before func(*gorm.DB)
	after  func(*gorm.DB)
}

// timedHooks builds the before/after pair for one operation: the before hook
// stamps the start time on the statement instance, the after hook reports the
// elapsed time and any error.
func timedHooks(recorder MetricsRecorder, operation string) hookPair {
	return hookPair{
		before: func(db *gorm.DB) {
			db.InstanceSet("field_metrics:start", time.Now())
		},
		after: func(db *gorm.DB) {
			start, ok := db.InstanceGet("field_metrics:start")
			if !ok {
				return
			}
			table := db.Statement.Table
			if table == "" {
				table = "unknown"
			}
			recorder.RecordDBQuery(operation, table, time.Since(start.(time.Time)), db.Error)
		},
	}
}

// StartDBStatsCollector periodically reports connection pool stats until the
// returned channel is closed
func StartDBStatsCollector(db *gorm.DB, recorder MetricsRecorder) chan struct{} {
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					continue
				}
				recorder.UpdateDBStats(sqlDB.Stats())
			case <-done:
				return
			}
		}
	}()

	return done
}
