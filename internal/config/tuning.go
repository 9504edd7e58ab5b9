package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ironsheep/building-recon-mcp/internal/reconstruct"
	"github.com/ironsheep/building-recon-mcp/internal/units"
)

const maxTuningFileSize = 1 * 1024 * 1024 // 1MB

// Tuning is a partial override of the defaults, read from JSON. Fields left
// out of the file keep their current value.
type Tuning struct {
	// Runtime
	Backend     *string `json:"backend,omitempty"`
	Workers     *int    `json:"workers,omitempty"`
	CacheSize   *int    `json:"cache_size,omitempty"`
	OutputUnit  *string `json:"output_unit,omitempty"`
	OCRLanguage *string `json:"ocr_language,omitempty"`

	// Detection
	CannyLow      *float64 `json:"canny_low,omitempty"`
	CannyHigh     *float64 `json:"canny_high,omitempty"`
	WallMinLength *float64 `json:"wall_min_length,omitempty"`
	WindowMinSide *float64 `json:"window_min_side,omitempty"`
	WindowMaxSide *float64 `json:"window_max_side,omitempty"`
	DoorMinRadius *int     `json:"door_min_radius,omitempty"`
	DoorMaxRadius *int     `json:"door_max_radius,omitempty"`
	MaxDimension  *int     `json:"max_dimension,omitempty"`

	// Features
	ThicknessSamples       *int     `json:"thickness_samples,omitempty"`
	DefaultThickness       *float64 `json:"default_thickness,omitempty"`
	PictureWindowArea      *float64 `json:"picture_window_area,omitempty"`
	DoubleDoorLength       *float64 `json:"double_door_length,omitempty"`
	MinRoomArea            *float64 `json:"min_room_area,omitempty"`
	DropBorderRegions      *bool    `json:"drop_border_regions,omitempty"`
	RoomConnectionDistance *float64 `json:"room_connection_distance,omitempty"`
	FloorLevelMaxTilt      *float64 `json:"floor_level_max_tilt,omitempty"`

	// Reconstruction
	StoryHeight          *float64 `json:"story_height,omitempty"`
	DefaultWallThickness *float64 `json:"default_wall_thickness,omitempty"`
	LevelTolerance       *float64 `json:"level_tolerance,omitempty"`
	SillHeight           *float64 `json:"sill_height,omitempty"`
	WindowHeight         *float64 `json:"window_height,omitempty"`
	DoorHeight           *float64 `json:"door_height,omitempty"`
	RoofType             *string  `json:"roof_type,omitempty"`
	RoofHeight           *float64 `json:"roof_height,omitempty"`
}

// LoadFile reads a tuning file. The path must end in .json and the file
// must be under 1MB.
func LoadFile(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxTuningFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxTuningFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	t := &Tuning{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return t, nil
}

// Validate checks the values that are set.
func (t *Tuning) Validate() error {
	positive := map[string]*float64{
		"canny_low":                t.CannyLow,
		"canny_high":               t.CannyHigh,
		"story_height":             t.StoryHeight,
		"default_wall_thickness":   t.DefaultWallThickness,
		"door_height":              t.DoorHeight,
		"window_height":            t.WindowHeight,
		"roof_height":              t.RoofHeight,
		"default_thickness":        t.DefaultThickness,
		"room_connection_distance": t.RoomConnectionDistance,
	}
	for name, v := range positive {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %g", name, *v)
		}
	}

	if t.CannyLow != nil && t.CannyHigh != nil && *t.CannyLow > *t.CannyHigh {
		return fmt.Errorf("canny_low %g exceeds canny_high %g", *t.CannyLow, *t.CannyHigh)
	}
	if t.DoorMinRadius != nil && t.DoorMaxRadius != nil && *t.DoorMinRadius > *t.DoorMaxRadius {
		return fmt.Errorf("door_min_radius %d exceeds door_max_radius %d", *t.DoorMinRadius, *t.DoorMaxRadius)
	}
	if t.ThicknessSamples != nil && *t.ThicknessSamples < 1 {
		return fmt.Errorf("thickness_samples must be at least 1, got %d", *t.ThicknessSamples)
	}
	if t.Workers != nil && *t.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *t.Workers)
	}
	if t.CacheSize != nil && *t.CacheSize < 0 {
		return fmt.Errorf("cache_size must be non-negative, got %d", *t.CacheSize)
	}
	if t.MaxDimension != nil && *t.MaxDimension < 0 {
		return fmt.Errorf("max_dimension must be non-negative, got %d", *t.MaxDimension)
	}
	if t.FloorLevelMaxTilt != nil && (*t.FloorLevelMaxTilt < 0 || *t.FloorLevelMaxTilt >= 90) {
		return fmt.Errorf("floor_level_max_tilt must be in [0, 90), got %g", *t.FloorLevelMaxTilt)
	}
	if t.OutputUnit != nil {
		u, err := units.Parse(*t.OutputUnit)
		if err != nil {
			return err
		}
		if !units.IsValid(u) {
			return fmt.Errorf("output_unit must be one of %s, got %q", units.GetValidUnitsString(), *t.OutputUnit)
		}
	}
	if t.RoofType != nil {
		switch reconstruct.RoofType(*t.RoofType) {
		case reconstruct.RoofFlat, reconstruct.RoofGabled:
		default:
			return fmt.Errorf("roof_type must be flat or gabled, got %q", *t.RoofType)
		}
	}
	return nil
}

// Apply overlays the set fields onto cfg.
func (t *Tuning) Apply(cfg *Config) error {
	if err := t.Validate(); err != nil {
		return err
	}

	setString(&cfg.Backend, t.Backend)
	setInt(&cfg.Workers, t.Workers)
	setInt(&cfg.CacheSize, t.CacheSize)
	setString(&cfg.OCRLanguage, t.OCRLanguage)
	if t.OutputUnit != nil {
		u, _ := units.Parse(*t.OutputUnit)
		cfg.OutputUnit = u
	}

	d := &cfg.Detection
	setFloat(&d.CannyLow, t.CannyLow)
	setFloat(&d.CannyHigh, t.CannyHigh)
	setFloat(&d.WallMinLength, t.WallMinLength)
	setFloat(&d.WindowMinSide, t.WindowMinSide)
	setFloat(&d.WindowMaxSide, t.WindowMaxSide)
	setInt(&d.DoorCircle.MinRadius, t.DoorMinRadius)
	setInt(&d.DoorCircle.MaxRadius, t.DoorMaxRadius)
	setInt(&d.MaxDimension, t.MaxDimension)

	f := &cfg.Features
	setInt(&f.ThicknessSamples, t.ThicknessSamples)
	setFloat(&f.DefaultThickness, t.DefaultThickness)
	setFloat(&f.PictureWindowArea, t.PictureWindowArea)
	setFloat(&f.DoubleDoorLength, t.DoubleDoorLength)
	setFloat(&f.MinRoomArea, t.MinRoomArea)
	if t.DropBorderRegions != nil {
		f.DropBorderRegions = *t.DropBorderRegions
	}
	setFloat(&f.RoomConnectionDistance, t.RoomConnectionDistance)
	setFloat(&f.FloorLevelMaxTilt, t.FloorLevelMaxTilt)

	r := &cfg.Reconstruct
	setFloat(&r.StoryHeight, t.StoryHeight)
	setFloat(&r.DefaultWallThickness, t.DefaultWallThickness)
	setFloat(&r.LevelTolerance, t.LevelTolerance)
	setFloat(&r.SillHeight, t.SillHeight)
	setFloat(&r.WindowHeight, t.WindowHeight)
	setFloat(&r.DoorHeight, t.DoorHeight)
	setFloat(&r.RoofHeight, t.RoofHeight)
	if t.RoofType != nil {
		r.RoofType = reconstruct.RoofType(*t.RoofType)
	}
	return nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
