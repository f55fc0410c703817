// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package reporter

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthcheckStatus represents an healthcheck status.
type HealthcheckStatus int

const (
	// HealthcheckOK says "OK"
	HealthcheckOK HealthcheckStatus = iota
	// HealthcheckWarning says there is a non-fatal condition
	HealthcheckWarning
	// HealthcheckError says the component is not working
	HealthcheckError
)

// HealthcheckResult combines a status and a reason.
type HealthcheckResult struct {
	Status HealthcheckStatus `json:"status"`
	Reason string            `json:"reason"`
}

// MultipleHealthcheckResults aggregates the results of all healthchecks.
type MultipleHealthcheckResults struct {
	Status  HealthcheckStatus            `json:"status"`
	Details map[string]HealthcheckResult `json:"details,omitempty"`
}

func (hs HealthcheckStatus) String() string {
	switch hs {
	case HealthcheckOK:
		return "ok"
	case HealthcheckWarning:
		return "warning"
	case HealthcheckError:
		return "error"
	}
	return "unknown"
}

// MarshalText turns a status into text.
func (hs HealthcheckStatus) MarshalText() ([]byte, error) {
	return []byte(hs.String()), nil
}

// HealthcheckFunc is a function returning the health of a component.
type HealthcheckFunc func(context.Context) HealthcheckResult

// RegisterHealthcheck registers a new healthcheck under the given name.
func (r *Reporter) RegisterHealthcheck(name string, hf HealthcheckFunc) {
	r.healthchecksLock.Lock()
	defer r.healthchecksLock.Unlock()
	r.healthchecks[name] = hf
}

// RunHealthchecks runs all healthchecks in parallel. A healthcheck not
// answering before the context is done is reported as an error. The
// global status is the worst of all statuses.
func (r *Reporter) RunHealthchecks(ctx context.Context) MultipleHealthcheckResults {
	r.healthchecksLock.Lock()
	defer r.healthchecksLock.Unlock()

	results := MultipleHealthcheckResults{
		Status:  HealthcheckOK,
		Details: make(map[string]HealthcheckResult, len(r.healthchecks)),
	}
	var (
		wg   sync.WaitGroup
		lock sync.Mutex
	)
	for name, hf := range r.healthchecks {
		wg.Add(1)
		go func(name string, hf HealthcheckFunc) {
			defer wg.Done()
			done := make(chan HealthcheckResult, 1)
			go func() { done <- hf(ctx) }()
			var result HealthcheckResult
			select {
			case result = <-done:
			case <-ctx.Done():
				result = HealthcheckResult{HealthcheckError, "timeout during check"}
			}
			lock.Lock()
			results.Details[name] = result
			lock.Unlock()
		}(name, hf)
	}
	wg.Wait()

	for _, result := range results.Details {
		if result.Status > results.Status {
			results.Status = result.Status
		}
	}
	return results
}

// HealthcheckHTTPHandler is a gin handler returning healthcheck results
// as JSON. The HTTP status is 503 when the global status is an error.
func (r *Reporter) HealthcheckHTTPHandler(gc *gin.Context) {
	ctx, cancel := context.WithTimeout(gc.Request.Context(), 5*time.Second)
	defer cancel()
	results := r.RunHealthchecks(ctx)
	status := http.StatusOK
	if results.Status == HealthcheckError {
		status = http.StatusServiceUnavailable
	}
	gc.JSON(status, results)
}

// ChannelHealthcheckFunc is the function a worker calls to report its
// status.
type ChannelHealthcheckFunc func(HealthcheckStatus, string)

// ChannelHealthcheck returns an healthcheck asking a worker for its
// status through a channel. The worker receives a function from contact
// and calls it. ctx is the lifetime of the worker: once done, the
// worker is reported as dead.
func ChannelHealthcheck(ctx context.Context, contact chan<- ChannelHealthcheckFunc) HealthcheckFunc {
	return func(hcCtx context.Context) HealthcheckResult {
		answer := make(chan HealthcheckResult, 1)
		signal := func(status HealthcheckStatus, reason string) {
			select {
			case answer <- HealthcheckResult{status, reason}:
			default:
			}
		}

		select {
		case <-ctx.Done():
			return HealthcheckResult{HealthcheckError, "dead"}
		case <-hcCtx.Done():
			return HealthcheckResult{HealthcheckError, "timeout"}
		case contact <- signal:
		}

		select {
		case <-ctx.Done():
			return HealthcheckResult{HealthcheckError, "dead"}
		case <-hcCtx.Done():
			return HealthcheckResult{HealthcheckError, "timeout"}
		case result := <-answer:
			return result
		}
	}
}
