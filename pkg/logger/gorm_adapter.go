package logger

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var sqlTable = regexp.MustCompile("(?i)\\b(?:into|from|update|table)\\s+[`\"]?(\\w+)")

// GormLogger routes gorm statements into the engine log under the [Store] prefix.
// Every query line carries the statement kind and table so round, bet and
// sequence traffic can be filtered apart.
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormlogger.LogLevel
}

// NewGormLogger warns on failures and on statements slower than 200ms
func NewGormLogger() *GormLogger {
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      gormlogger.Warn,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.LogLevel = level
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormlogger.Info {
		Info(ctx).Msgf("[Store] "+msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormlogger.Warn {
		Warn(ctx).Msgf("[Store] "+msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormlogger.Error {
		Error(ctx).Msgf("[Store] "+msg, data...)
	}
}

// Trace logs one executed statement. Missing rows are normal for the round-id
// floor lookup and are never reported as errors.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	slow := l.SlowThreshold != 0 && elapsed > l.SlowThreshold
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)

	var event *zerolog.Event
	var msg string
	switch {
	case failed && l.LogLevel >= gormlogger.Error:
		event, msg = Error(ctx).Err(err), "❌ [Store] 语句执行失败"
	case !failed && slow && l.LogLevel >= gormlogger.Warn:
		event, msg = Warn(ctx), "🐢 [Store] 慢查询"
	case !failed && l.LogLevel >= gormlogger.Info:
		event, msg = Info(ctx), "[Store] 语句"
	default:
		return
	}

	sql, rows := fc()
	op, table := statementTags(sql)
	event.
		Str("op", op).
		Str("table", table).
		Bool("slow", slow).
		Str("sql", sql).
		Int64("rows", rows).
		Float64("elapsed_ms", float64(elapsed.Nanoseconds())/1e6).
		Msg(msg)
}

// statementTags returns the lower-cased leading verb and the first table named
func statementTags(sql string) (op, table string) {
	trimmed := strings.TrimSpace(sql)
	if i := strings.IndexAny(trimmed, " \t\n"); i > 0 {
		op = strings.ToLower(trimmed[:i])
	} else {
		op = strings.ToLower(trimmed)
	}
	if m := sqlTable.FindStringSubmatch(trimmed); m != nil {
		table = m[1]
	}
	return op, table
}
