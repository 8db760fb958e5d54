package model

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []any{
	&Run{},
	&TickSample{},
	&ResetEvent{},
}

////////////////////////
// RECORDING MODELS
////////////////////////

// Run is one recorded drive session
type Run struct {
	gorm.Model
	Name            string          `json:"name" gorm:"size:127"`
	VehicleID       string          `json:"vehicleId" gorm:"size:64;index:idx_run_vehicle_id"`
	Tag             string          `json:"tag" gorm:"size:64"`
	StartTime       time.Time       `json:"startTime"`
	EndTime         sql.NullTime    `json:"endTime"`
	TickRate        float64         `json:"tickRate"`
	Tuning          datatypes.JSON  `json:"tuning"`
	OriginLongitude sql.NullFloat64 `json:"originLongitude"`
	OriginLatitude  sql.NullFloat64 `json:"originLatitude"`
	TickCount       uint            `json:"tickCount"`
	ResetCount      uint            `json:"resetCount"`
	TrackWKT        string          `json:"trackWkt" gorm:"type:text"`
}

func (*Run) TableName() string {
	return "runs"
}

// Intent is the control request stored alongside each sample
type Intent struct {
	Drive          float64 `json:"drive"`
	Turn           float64 `json:"turn"`
	Brake          bool    `json:"brake"`
	BrakeIntensity float64 `json:"brakeIntensity"`
}

// TickSample is the model for the vehicle state after one tick
type TickSample struct {
	ID              uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	RunID           uint      `json:"runId" gorm:"index:idx_ticksample_run_tick,priority:1"`
	Run             Run       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	Tick            uint      `json:"tick" gorm:"index:idx_ticksample_run_tick,priority:2"`
	Time            time.Time `json:"time"`
	Elapsed         float64   `json:"elapsed"`
	DeltaTime       float64   `json:"deltaTime"`
	Speed           float64   `json:"speed"`
	NormalizedSpeed float64   `json:"normalizedSpeed"`
	DriveForce      float64   `json:"driveForce"`
	TurnForce       float64   `json:"turnForce"`
	Yaw             float64   `json:"yaw"`
	PosX            float64   `json:"posX"`
	PosY            float64   `json:"posY"`
	PosZ            float64   `json:"posZ"`
	ResetPending    bool      `json:"resetPending"`
	Intent          Intent    `json:"intent" gorm:"embedded;embeddedPrefix:intent_"`
}

func (*TickSample) TableName() string {
	return "tick_samples"
}

// ResetEvent is the model for a reset sequence transition
type ResetEvent struct {
	ID       uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	RunID    uint      `json:"runId" gorm:"index:idx_resetevent_run_id"`
	Run      Run       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	Tick     uint      `json:"tick"`
	Time     time.Time `json:"time"`
	Phase    string    `json:"phase" gorm:"size:16"`
	Category string    `json:"category" gorm:"size:16"`
	Speed    float64   `json:"speed"`
	PosX     float64   `json:"posX"`
	PosY     float64   `json:"posY"`
	PosZ     float64   `json:"posZ"`
}

func (*ResetEvent) TableName() string {
	return "reset_events"
}
