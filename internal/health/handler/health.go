// Package handler reports readiness over HTTP (/healthz) and the standard gRPC health service.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const checkTimeout = 2 * time.Second

// Pinger is used to check database connectivity (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker is used to check that the policy engine evaluates.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Checker runs the readiness checks. Nil dependencies are skipped.
type Checker struct {
	pinger Pinger
	policy PolicyChecker
	logger *slog.Logger
}

// NewChecker returns a readiness checker.
func NewChecker(pinger Pinger, policy PolicyChecker, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{pinger: pinger, policy: policy, logger: logger}
}

// Check returns a map of failed component -> error message; empty when ready.
func (c *Checker) Check(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	failed := map[string]string{}
	if c.pinger != nil {
		if err := c.pinger.PingContext(ctx); err != nil {
			failed["database"] = err.Error()
		}
	}
	if c.policy != nil {
		if err := c.policy.HealthCheck(ctx); err != nil {
			failed["policy"] = err.Error()
		}
	}
	return failed
}

type healthResponse struct {
	Status string            `json:"status"`
	Failed map[string]string `json:"failed,omitempty"`
}

// ServeHTTP answers 200 {"status":"SERVING"} when ready, 503 otherwise.
func (c *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	failed := c.Check(r.Context())
	resp := healthResponse{Status: "SERVING"}
	code := http.StatusOK
	if len(failed) > 0 {
		resp = healthResponse{Status: "NOT_SERVING", Failed: failed}
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// Sync runs the checks once and sets the overall status of srv.
func (c *Checker) Sync(ctx context.Context, srv *health.Server) {
	failed := c.Check(ctx)
	st := healthpb.HealthCheckResponse_SERVING
	if len(failed) > 0 {
		st = healthpb.HealthCheckResponse_NOT_SERVING
		c.logger.Warn("health: not ready", "failed", failed)
	}
	srv.SetServingStatus("", st)
}

// Run calls Sync every interval until ctx is done.
func (c *Checker) Run(ctx context.Context, srv *health.Server, interval time.Duration) {
	c.Sync(ctx, srv)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Sync(ctx, srv)
		}
	}
}
