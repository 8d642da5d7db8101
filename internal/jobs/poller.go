package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sandeepmv/herdwatch/internal/engine"
)

// poll drives one job from processing to a terminal state. Runs in its own
// goroutine; one poller per job, queries strictly ordered (the next tick is
// not scheduled until the previous query resolved).
//
// A transient query failure never fails the job by itself: job failure must
// come from the engine, not from polling noise. Instead the poller switches
// to exponential backoff and only gives up once RetryCeiling of consecutive
// failures has elapsed.
func (s *Service) poll(ctx context.Context, localID uuid.UUID, analysisID string) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	var retry *backoff.ExponentialBackOff

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		st, err := s.engine.AnalysisStatus(ctx, analysisID)
		// Cancellation check on resumption: apply nothing after Remove.
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if retry == nil {
				retry = backoff.NewExponentialBackOff()
				retry.InitialInterval = s.opts.PollInterval
				retry.MaxElapsedTime = s.opts.RetryCeiling
			}
			wait := retry.NextBackOff()
			if wait == backoff.Stop {
				s.failJob(localID, fmt.Sprintf("engine status unavailable: %v", err))
				return
			}
			slog.Warn("status query failed, retrying",
				"job_id", localID, "analysis_id", analysisID, "retry_in", wait, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}
		retry = nil

		switch st.Status {
		case engine.StatusCompleted:
			s.finish(ctx, localID, analysisID, st)
			return
		case engine.StatusFailed:
			msg := st.ErrorMessage
			if msg == "" {
				msg = "analysis failed"
			}
			s.failJob(localID, msg)
			return
		default:
			s.applyProgress(localID, st.Progress)
		}
	}
}

// finish fetches the job's alerts and aggregates the terminal payload. The
// engine already reported the analysis as completed, so a failing alerts
// fetch is transport noise and gets the same bounded retry as status
// queries; only a payload that cannot be interpreted fails the job.
func (s *Service) finish(ctx context.Context, localID uuid.UUID, analysisID string, st *engine.StatusResponse) {
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = s.opts.PollInterval
	retry.MaxElapsedTime = s.opts.RetryCeiling

	var alerts []engine.Alert
	for {
		var err error
		alerts, err = s.engine.AnalysisAlerts(ctx, analysisID)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			break
		}
		wait := retry.NextBackOff()
		if wait == backoff.Stop {
			s.failJob(localID, fmt.Sprintf("fetching alerts: %v", err))
			return
		}
		slog.Warn("alerts fetch failed, retrying",
			"job_id", localID, "analysis_id", analysisID, "retry_in", wait, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}

	result, err := Aggregate(analysisID, st.Result, alerts)
	if err != nil {
		slog.Error("aggregating result failed",
			"job_id", localID, "analysis_id", analysisID, "error", err)
		s.failJob(localID, err.Error())
		return
	}

	s.completeJob(localID, result)
}
