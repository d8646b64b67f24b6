// pkg/cleaner/operations.go
package cleaner

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// nullTokens are upper-cased textual spellings of "no value"
var nullTokens = map[string]bool{
	"":     true,
	"NULL": true,
	"NAN":  true,
	"NONE": true,
}

// isNullToken reports whether a value is nil or one of the null-like tokens
func isNullToken(v interface{}) bool {
	if v == nil {
		return true
	}
	switch val := v.(type) {
	case float64:
		return math.IsNaN(val)
	case float32:
		return math.IsNaN(float64(val))
	case *string:
		return val == nil || nullTokens[strings.ToUpper(strings.TrimSpace(*val))]
	}
	return nullTokens[strings.ToUpper(strings.TrimSpace(toString(v)))]
}

// toString converts an interface to string. Integral floats drop their
// fractional part so a plant code read as 1200.0 renders as "1200".
func toString(v interface{}) string {
	if v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case *string:
		if val == nil {
			return ""
		}
		return *val
	case []byte:
		return string(val)
	case float64:
		if !math.IsNaN(val) && !math.IsInf(val, 0) && val == math.Trunc(val) && math.Abs(val) < 1e15 {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return toString(float64(val))
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	default:
		// Use Sprint as a fallback
		return fmt.Sprintf("%v", val)
	}
}

// toInt attempts to convert a value to int64. Fractional values truncate.
func toInt(v interface{}) (int64, error) {
	if v == nil {
		return 0, errors.New("nil value")
	}

	switch val := v.(type) {
	case int:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case int64:
		return val, nil
	case uint:
		return int64(val), nil
	case uint8:
		return int64(val), nil
	case uint16:
		return int64(val), nil
	case uint32:
		return int64(val), nil
	case uint64:
		if val > uint64(math.MaxInt64) {
			return 0, errors.New("uint64 value overflow for int64")
		}
		return int64(val), nil
	case float32, float64, string, []byte:
		f, err := toFloat(val)
		if err != nil {
			return 0, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("cannot convert %v to int", f)
		}
		return int64(f), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to int", v)
	}
}

// toFloat attempts to convert a value to float64
func toFloat(v interface{}) (float64, error) {
	if v == nil {
		return 0, errors.New("nil value")
	}

	switch val := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		// Use toString to avoid type assertion for each numeric type
		return strconv.ParseFloat(toString(val), 64)
	case float32:
		return float64(val), nil
	case float64:
		if math.IsNaN(val) {
			return 0, errors.New("NaN value")
		}
		return val, nil
	case string:
		return parseFloatText(val)
	case []byte:
		return parseFloatText(string(val))
	default:
		return 0, fmt.Errorf("cannot convert %T to float", v)
	}
}

func parseFloatText(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return 0, errors.New("empty string")
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) {
		return 0, errors.New("NaN value")
	}
	return f, nil
}
