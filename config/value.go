package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// IsDuration reports whether the field holds a duration such as "2m".
func (f *Field) IsDuration() bool {
	def, ok := f.Value.(string)
	if !ok {
		return false
	}

	_, err := time.ParseDuration(def)
	return err == nil
}

// IsWindow reports whether the field is the expiry window of a short-lived kind.
func (f *Field) IsWindow() bool {
	return strings.HasPrefix(f.Key, "ttl.")
}

// Parse converts command line values to the type of the field's default.
// Durations stay strings so they are written to the config file as typed.
func (f *Field) Parse(raw []string) (any, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("no value for %s", f.Key)
	}

	switch f.Value.(type) {
	case string:
		if !f.IsDuration() {
			return raw[0], nil
		}

		d, err := time.ParseDuration(raw[0])
		if err != nil {
			return nil, fmt.Errorf("invalid duration value: %s", raw[0])
		}

		if d < 0 || (d == 0 && f.IsWindow()) {
			return nil, fmt.Errorf("%s must be positive, got %s", f.Key, raw[0])
		}

		return raw[0], nil
	case int:
		n, err := strconv.Atoi(raw[0])
		if err != nil {
			return nil, fmt.Errorf("invalid integer value: %s", raw[0])
		}

		return n, nil
	case bool:
		b, err := strconv.ParseBool(raw[0])
		if err != nil {
			return nil, fmt.Errorf("invalid boolean value: %s", raw[0])
		}

		return b, nil
	case []string:
		return raw, nil
	default:
		return nil, fmt.Errorf("%s cannot be set from the command line", f.Key)
	}
}
