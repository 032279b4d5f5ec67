package types

import (
	"time"

	"github.com/oxygene76/ballistics-client/pkg/astronomy/ballistic"
)

// RunStatus represents the status of a run
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusImpact    RunStatus = "impact"
	StatusStepLimit RunStatus = "step_limit"
	StatusStopped   RunStatus = "stopped"
)

// Terminal reports whether a run in this status will never publish again.
func (s RunStatus) Terminal() bool {
	return s != StatusRunning
}

// RunSnapshot is an immutable view of a run after a batch.
type RunSnapshot struct {
	ID         string                 `json:"id"`
	Generation uint64                 `json:"generation"`
	Status     RunStatus              `json:"status"`
	Config     ballistic.LaunchConfig `json:"config"`
	Info       ballistic.Info         `json:"info"`
	LogLen     int                    `json:"log_len"`
	StartedAt  time.Time              `json:"started_at"`
	UpdatedAt  time.Time              `json:"updated_at"`

	// Samples shares storage with the run's log; it is never written to.
	Samples []ballistic.Sample `json:"-"`
}

// StreamUpdate is one message on the progress stream: the snapshot plus the
// samples recorded since the previous message to the same client.
type StreamUpdate struct {
	Run     RunSnapshot        `json:"run"`
	Offset  int                `json:"offset"` // index of Samples[0] in the run's log
	Samples []ballistic.Sample `json:"samples"`
}

// RunRequest starts a run. Every field is a number with an optional unit;
// empty fields take the server's configured value.
type RunRequest struct {
	Preset         string `json:"preset,omitempty"`
	Lat            string `json:"lat,omitempty"`
	Lon            string `json:"lon,omitempty"`
	Height         string `json:"height,omitempty"`
	Azm            string `json:"azm,omitempty"`
	Alt            string `json:"alt,omitempty"`
	Speed          string `json:"speed,omitempty"`
	Radius         string `json:"radius,omitempty"`
	RotationPeriod string `json:"rotation_period,omitempty"`
	DeltaTime      string `json:"delta_time,omitempty"`
	LogInterval    string `json:"log_interval,omitempty"`
	GSurfaceAcc    string `json:"g_surface_acc,omitempty"`
}

// RunResponse is returned when a run is accepted
type RunResponse struct {
	ID         string                 `json:"id"`
	Generation uint64                 `json:"generation"`
	Config     ballistic.LaunchConfig `json:"config"`
}

// ErrorResponse is the body of every non-2xx API reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	Codespace string `json:"codespace,omitempty"`
	Code      uint32 `json:"code,omitempty"`
}

// SweepRequest runs one launch per value of Axis between From and To. The
// embedded RunRequest is the base launch.
type SweepRequest struct {
	RunRequest
	Axis     string `json:"axis"`
	From     string `json:"from"`
	To       string `json:"to"`
	Points   int    `json:"points"`
	MaxSteps int    `json:"max_steps,omitempty"`
}
