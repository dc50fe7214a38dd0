package audio

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
)

type params struct {
	level     float64 // -1 to 1
	glideTime float64 // ms
	mode      GlideMode
	velSense  float64 // 0-1
}

func newParams() *params {
	return &params{
		level:     0,
		glideTime: 100,
		mode:      GlideLinear,
		velSense:  1,
	}
}

type paramsJSON struct {
	Level     float64 `json:"level"`
	GlideTime float64 `json:"glideTime"`
	Mode      string  `json:"mode"`
	VelSense  float64 `json:"velSense"`
}

func (p *params) applyJSON(data json.RawMessage) {
	var j paramsJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println(err)
		log.Println("failed to apply JSON to params")
		return
	}
	mode, err := GlideModeFromString(j.Mode)
	if err != nil {
		log.Println(err)
		return
	}
	p.level = clampLevel(j.Level)
	p.glideTime = j.GlideTime
	p.mode = mode
	p.velSense = j.VelSense
}
func (p *params) toJSON() json.RawMessage {
	return toRawMessage(&paramsJSON{
		Level:     p.level,
		GlideTime: p.glideTime,
		Mode:      p.mode.String(),
		VelSense:  p.velSense,
	})
}
func (p *params) set(key string, value string) error {
	switch key {
	case "mode":
		mode, err := GlideModeFromString(value)
		if err != nil {
			return err
		}
		p.mode = mode
	case "level":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.level = clampLevel(value)
	case "glide_time":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		if value < 0 {
			return fmt.Errorf("glide_time must not be negative: %v", value)
		}
		p.glideTime = value
	case "vel_sense":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.velSense = clampUnit(value)
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	return nil
}

func clampLevel(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
