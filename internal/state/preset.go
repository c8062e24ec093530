package state

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Preset is the unit of the wallpaper change interval.
type Preset string

const (
	PresetMinute Preset = "minute"
	PresetHour   Preset = "hour"
	PresetDay    Preset = "day"
)

// UnmarshalJSON accepts any letter case, so documents written by the older
// dw ("HOUR", "MINUTE", "DAY") load. Unknown names are left for ValidateTime.
func (p *Preset) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("preset: %w", err)
	}
	*p = Preset(strings.ToLower(strings.TrimSpace(s)))
	return nil
}

// ParsePreset accepts the CLI spellings ("by minutes", "hours", "daily", ...).
func ParsePreset(s string) (Preset, error) {
	switch strings.ToLower(strings.Join(strings.Fields(s), " ")) {
	case "by minutes", "minutes", "minute":
		return PresetMinute, nil
	case "by hours", "hours", "hour", "hourly":
		return PresetHour, nil
	case "by days", "days", "day", "daily":
		return PresetDay, nil
	}
	return "", fmt.Errorf("unknown preset %q (use \"by minutes\", \"by hours\" or \"daily\")", s)
}

// maxInterval keeps the interval expressible as a cron step.
var maxInterval = map[Preset]int{
	PresetMinute: 59,
	PresetHour:   23,
	PresetDay:    31,
}

// ValidateTime checks tc and fills in the daily default interval of 1.
// Minute and hour presets require an explicit interval.
func ValidateTime(tc *TimeConfig) error {
	limit, ok := maxInterval[tc.Preset]
	if !ok {
		return fmt.Errorf("unknown preset %q", tc.Preset)
	}
	if tc.Interval == 0 {
		if tc.Preset != PresetDay {
			return fmt.Errorf("preset %q requires an interval", tc.Preset)
		}
		tc.Interval = 1
	}
	if tc.Interval < 1 || tc.Interval > limit {
		return fmt.Errorf("interval %d out of range for preset %q (1-%d)", tc.Interval, tc.Preset, limit)
	}
	return nil
}
