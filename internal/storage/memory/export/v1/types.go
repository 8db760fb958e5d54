// Package v1 contains the v1 export format for recorded runs.
package v1

import "time"

// FormatVersion is written into every export.
const FormatVersion = 1

// Export is the root JSON structure for v1 format
type Export struct {
	FormatVersion int       `json:"formatVersion"`
	Run           RunHeader `json:"run"`
	Summary       Summary   `json:"summary"`
	// Samples: [tick, elapsed, speed, driveForce, turnForce, yaw, [x, y, z], resetPending]
	Samples [][]any `json:"samples"`
	Resets  []Reset `json:"resets"`

	Track    string `json:"track,omitempty"`    // WKT, local X/Z metres
	GeoTrack string `json:"geoTrack,omitempty"` // WKT, WGS84 lon/lat
}

// RunHeader identifies the run and the car it was driven with
type RunHeader struct {
	Name      string             `json:"name"`
	VehicleID string             `json:"vehicleId"`
	Tag       string             `json:"tag,omitempty"`
	StartTime time.Time          `json:"startTime"`
	TickRate  float64            `json:"tickRate"`
	Tuning    map[string]float64 `json:"tuning"`
	Origin    []float64          `json:"origin,omitempty"` // [long, lat]
}

// Summary holds whole-run figures
type Summary struct {
	Ticks    int     `json:"ticks"`
	Resets   int     `json:"resets"`
	Duration float64 `json:"duration"` // seconds
	MaxSpeed float64 `json:"maxSpeed"`
	Distance float64 `json:"distance"` // metres along the ground track
}

// Reset is one reset transition
type Reset struct {
	Tick     uint       `json:"tick"`
	Phase    string     `json:"phase"`
	Category string     `json:"category,omitempty"`
	Speed    float64    `json:"speed"`
	Position [3]float64 `json:"position"`
}
