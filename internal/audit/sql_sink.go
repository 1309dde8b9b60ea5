package audit

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// Schema is the PostgreSQL DDL for the login log table written by SQLSink.
const Schema = `
CREATE TABLE IF NOT EXISTS sys_logininfor (
    info_id        BIGSERIAL PRIMARY KEY,
    event_id       VARCHAR(26)  NOT NULL UNIQUE,
    user_name      VARCHAR(50)  DEFAULT '',
    ipaddr         VARCHAR(128) DEFAULT '',
    login_location VARCHAR(255) DEFAULT '',
    browser        VARCHAR(50)  DEFAULT '',
    os             VARCHAR(50)  DEFAULT '',
    status         CHAR(1)      DEFAULT '0',
    msg            VARCHAR(255) DEFAULT '',
    login_time     TIMESTAMPTZ  NOT NULL
)`

const insertLoginInfo = `
INSERT INTO sys_logininfor (event_id, user_name, ipaddr, login_location, browser, os, status, msg, login_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// SQLSink inserts events into sys_logininfor.
type SQLSink struct {
	db      *sql.DB
	logger  *zap.Logger
	timeout time.Duration
}

func NewSQLSink(db *sql.DB, logger *zap.Logger) *SQLSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLSink{db: db, logger: logger, timeout: 5 * time.Second}
}

func (s *SQLSink) Emit(ctx context.Context, e Event) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// status column: 0 success, 1 failure
	status := "0"
	if !e.Success() {
		status = "1"
	}
	_, err := s.db.ExecContext(ctx, insertLoginInfo,
		e.ID, e.Username, e.IP, e.Location, e.Browser, e.OS, status, truncate(e.Message, 255), e.Timestamp)
	if err != nil {
		s.logger.Error("failed to insert login log", zap.String("event_id", e.ID), zap.Error(err))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
