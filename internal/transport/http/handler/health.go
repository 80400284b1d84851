package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Probe checks one backing service. A nil Probe marks the service as not
// configured.
type Probe func(ctx context.Context) error

type HealthHandler struct {
	appName   string
	env       string
	startedAt time.Time
	probes    map[string]Probe
}

type dependencyStatus struct {
	OK         bool   `json:"ok"`
	Configured bool   `json:"configured"`
	Message    string `json:"message,omitempty"`
}

func NewHealthHandler(appName, env string, startedAt time.Time, probes map[string]Probe) *HealthHandler {
	return &HealthHandler{appName: appName, env: env, startedAt: startedAt, probes: probes}
}

func (h *HealthHandler) Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello World"})
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	allOK := true
	deps := make(gin.H, len(h.probes))
	for name, probe := range h.probes {
		status := check(ctx, probe)
		if status.Configured && !status.OK {
			allOK = false
		}
		deps[name] = status
	}

	statusCode := http.StatusOK
	if !allOK {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, gin.H{
		"app":          h.appName,
		"env":          h.env,
		"uptime_sec":   int(time.Since(h.startedAt).Seconds()),
		"dependencies": deps,
	})
}

func check(ctx context.Context, probe Probe) dependencyStatus {
	if probe == nil {
		return dependencyStatus{OK: true}
	}
	if err := probe(ctx); err != nil {
		return dependencyStatus{OK: false, Configured: true, Message: err.Error()}
	}
	return dependencyStatus{OK: true, Configured: true}
}
