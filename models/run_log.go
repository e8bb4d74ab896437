// models/run_log.go
package models

import "time"

// RunState is a step of one collection invocation.
type RunState string

const (
	RunStarted     RunState = "STARTED"
	RunFetching    RunState = "FETCHING"
	RunNormalizing RunState = "NORMALIZING"
	RunUpserting   RunState = "UPSERTING"
	RunSucceeded   RunState = "SUCCEEDED"
	RunFailed      RunState = "FAILED"
)

// Terminal reports whether the state ends an invocation.
func (s RunState) Terminal() bool {
	return s == RunSucceeded || s == RunFailed
}

// TriggerSource says what started an invocation.
type TriggerSource string

const (
	TriggerTimer TriggerSource = "timer"
	TriggerHTTP  TriggerSource = "http"
	TriggerCLI   TriggerSource = "cli"
)

// ErrorKind classifies the failure carried by a run log.
type ErrorKind string

const (
	ErrorKindNone       ErrorKind = ""
	ErrorKindNetwork    ErrorKind = "NetworkError"
	ErrorKindUpstream   ErrorKind = "UpstreamError"
	ErrorKindValidation ErrorKind = "ValidationError"
	ErrorKindStorage    ErrorKind = "StorageError"
	ErrorKindInternal   ErrorKind = "InternalError"
)

// RunLog is the append-only audit row of one invocation.
type RunLog struct {
	ID                string        `db:"id" json:"id"`
	TriggerSource     TriggerSource `db:"trigger_source" json:"trigger_source"`
	Status            RunState      `db:"status" json:"status"`
	StartedAt         time.Time     `db:"started_at" json:"started_at"`
	FinishedAt        time.Time     `db:"finished_at" json:"finished_at"`
	DurationMS        int64         `db:"duration_ms" json:"duration_ms"`
	StationsRequested int           `db:"stations_requested" json:"stations_requested"`
	StationsFailed    int           `db:"stations_failed" json:"stations_failed"`
	RowsFetched       int           `db:"rows_fetched" json:"rows_fetched"`
	RowsWritten       int           `db:"rows_written" json:"rows_written"`
	RowsSkipped       int           `db:"rows_skipped" json:"rows_skipped"`
	RowsFailed        int           `db:"rows_failed" json:"rows_failed"`
	ErrorKind         ErrorKind     `db:"error_kind" json:"error_kind,omitempty"`
	ErrorText         string        `db:"error_text" json:"error_text,omitempty"`
}

// Succeeded is shorthand for Status == RunSucceeded.
func (r RunLog) Succeeded() bool {
	return r.Status == RunSucceeded
}
