package db

import "time"

// NormalizeValue converts driver-native values into JSON-friendly ones:
// byte slices become strings and datetime-like values become RFC 3339
// strings so every row serializes cleanly on the wire.
func NormalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case *time.Time:
		if val == nil {
			return nil
		}
		return val.Format(time.RFC3339)
	default:
		return v
	}
}
