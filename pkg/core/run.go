// pkg/core/run.go
package core

import "time"

// Run describes one recorded drive session of a single vehicle.
type Run struct {
	ID        uint               `json:"id"`
	Name      string             `json:"name"`
	VehicleID string             `json:"vehicleId"`
	Tag       string             `json:"tag"`
	StartTime time.Time          `json:"startTime"`
	TickRate  float64            `json:"tickRate"`         // ticks per second, 0 when variable
	Tuning    map[string]float64 `json:"tuning"`           // snapshot of the controller tuning
	Origin    *GeoOrigin         `json:"origin,omitempty"` // optional georeference for exports
}

// GeoOrigin anchors the local X/Z plane to a WGS84 coordinate.
type GeoOrigin struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// UploadMetadata describes an exported run file for the recording archive.
type UploadMetadata struct {
	RunName   string
	VehicleID string
	Tag       string
	Duration  float64 // seconds of simulated time
}
