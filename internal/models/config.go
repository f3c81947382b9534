package models

import "time"

// Remote drivers
const (
	DriverAPI    = "api"
	DriverGH     = "gh"
	DriverMemory = "memory"
)

// ReconcileConfig contains configuration for a reconcile run
type ReconcileConfig struct {
	// Input
	DescriptorPath string
	Identifier     string   // Overrides the identifier derived from the descriptor
	Fields         []string // Restricts the managed fields; empty means all

	// Run mode
	DryRun      bool
	GracePeriod time.Duration // Verify delay budget
	Timeout     time.Duration // Overall process timeout; 0 disables

	// Remote platform
	Driver string // api, gh or memory
	APIURL string // For the api driver (GitHub Enterprise, tests)
	GHPath string // For the gh driver
	Token  string

	// Apply tuning
	Workers        int
	MaxAttempts    int
	InitialBackoff time.Duration

	// Output
	Output         string // table, json or yaml
	ReportFile     string // Optional on-disk run report; .gz compresses
	SignKeyPath    string // Optional OpenPGP key for a detached report signature
	SignPassphrase string
}
