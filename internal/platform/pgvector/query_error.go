package pgvector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

type QueryErrorCode string

const (
	QueryErrorInvalidRequest QueryErrorCode = "invalid_request"
	QueryErrorUnavailable    QueryErrorCode = "unavailable"
	QueryErrorCanceled       QueryErrorCode = "canceled"
	QueryErrorSchema         QueryErrorCode = "schema"
	QueryErrorUnknown        QueryErrorCode = "unknown"
)

type QueryError struct {
	Code      QueryErrorCode
	Operation string
	SQLState  string
	Message   string
	Cause     error
}

func (e *QueryError) Error() string {
	if e == nil {
		return ""
	}
	base := fmt.Sprintf("pgvector %s failed", e.Operation)
	if e.Code != "" {
		base += fmt.Sprintf(" (%s)", e.Code)
	}
	if e.SQLState != "" {
		base += fmt.Sprintf(" sqlstate=%s", e.SQLState)
	}
	if e.Message != "" {
		base += ": " + e.Message
	}
	if e.Cause != nil {
		base += ": " + e.Cause.Error()
	}
	return base
}

func (e *QueryError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Retryable reports whether the failure is worth counting against the store's health.
func (e *QueryError) Retryable() bool {
	return e != nil && e.Code == QueryErrorUnavailable
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	qe := &QueryError{Code: QueryErrorUnknown, Operation: op, Cause: err}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		qe.Code = QueryErrorCanceled
		return qe
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		qe.SQLState = strings.TrimSpace(pgErr.Code)
		switch {
		case qe.SQLState == "42P01", qe.SQLState == "42703", qe.SQLState == "42704", qe.SQLState == "42883":
			qe.Code = QueryErrorSchema // missing table/column/type/operator (vector extension absent)
		case qe.SQLState == "22P02", qe.SQLState == "22000":
			qe.Code = QueryErrorInvalidRequest // malformed vector or dimension mismatch
		case strings.HasPrefix(qe.SQLState, "08"), strings.HasPrefix(qe.SQLState, "53"), strings.HasPrefix(qe.SQLState, "57"):
			qe.Code = QueryErrorUnavailable
		}
		return qe
	}

	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		qe.Code = QueryErrorUnavailable
		return qe
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "closed pool") {
		qe.Code = QueryErrorUnavailable
	}
	return qe
}
