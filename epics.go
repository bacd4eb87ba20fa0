// Package scaler provides declarative device models for the SynApps scaler
// record, mapping Go-side attributes to EPICS process variables. All hardware
// I/O goes through the ChannelAccess interface; this package performs no
// connection management, retry, or caching of its own.
package scaler

import (
	"fmt"
	"strconv"
)

// ChannelAccess is the boundary to the EPICS channel-access layer. Both calls
// block until the underlying layer answers; timeouts, reconnects and
// concurrency belong to the implementation, not to callers.
type ChannelAccess interface {
	// Get returns the current value of the named process variable.
	Get(pv string) (any, error)

	// Put writes a new value to the named process variable.
	Put(pv string, value any) error
}

// asString renders a process-variable value as a string. Nil reads as the
// empty string, matching an unset EPICS string field.
func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(v)
	}
}

// asFloat64 coerces the numeric value types a CA layer may hand back.
func asFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("value of type %T is not numeric", v)
	}
}
