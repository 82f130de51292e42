package service

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

const (
	StateOnline   = "online"
	StateOffline  = "offline"
	StateDisabled = "disabled"
	StateRunning  = "running"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HostProbe interface {
	CPUPercent(ctx context.Context) (float64, error)
	MemoryPercent(ctx context.Context) (float64, error)
}

type ClientCounter interface {
	Count() int
}

type InFlightCounter interface {
	InFlight() int64
}

type Health struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Metrics   HealthMetrics     `json:"metrics"`
}

type HealthMetrics struct {
	CPUUsage         float64 `json:"cpuUsage"`
	MemoryUsage      float64 `json:"memoryUsage"`
	ConnectedClients int     `json:"connectedClients"`
	InFlightAnalyses int64   `json:"inFlightAnalyses"`
}

type HealthService struct {
	database Pinger
	redis    Pinger
	clients  ClientCounter
	pipeline InFlightCounter
	host     HostProbe
}

// NewHealthService builds the health snapshot source. redis may be nil when the
// stats store is not Redis-backed.
func NewHealthService(database, redis Pinger, clients ClientCounter, pipeline InFlightCounter, host HostProbe) *HealthService {
	if host == nil {
		host = HostMetrics{}
	}
	return &HealthService{database: database, redis: redis, clients: clients, pipeline: pipeline, host: host}
}

func (s *HealthService) Check(ctx context.Context) Health {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	h := Health{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Services: map[string]string{
			"api":              StateOnline,
			"websocket":        StateOnline,
			"database":         pingState(ctx, s.database),
			"redis":            StateDisabled,
			"analysisPipeline": StateRunning,
		},
		Metrics: HealthMetrics{
			ConnectedClients: s.clients.Count(),
			InFlightAnalyses: s.pipeline.InFlight(),
		},
	}
	if s.redis != nil {
		h.Services["redis"] = pingState(ctx, s.redis)
	}
	for _, state := range h.Services {
		if state == StateOffline {
			h.Status = "degraded"
		}
	}

	if v, err := s.host.CPUPercent(ctx); err == nil {
		h.Metrics.CPUUsage = round1(v)
	} else {
		log.Printf("[health] cpu probe error=%v", err)
	}
	if v, err := s.host.MemoryPercent(ctx); err == nil {
		h.Metrics.MemoryUsage = round1(v)
	} else {
		log.Printf("[health] memory probe error=%v", err)
	}
	return h
}

func pingState(ctx context.Context, p Pinger) string {
	if err := p.Ping(ctx); err != nil {
		log.Printf("[health] ping error=%v", err)
		return StateOffline
	}
	return StateOnline
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// HostMetrics reads host CPU and memory utilisation through gopsutil.
type HostMetrics struct{}

// CPUPercent reports utilisation since the previous call (0 on the first call).
func (HostMetrics) CPUPercent(ctx context.Context) (float64, error) {
	pct, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(pct) == 0 {
		return 0, nil
	}
	return pct[0], nil
}

func (HostMetrics) MemoryPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}
