// internal/unitconv/unitconv.go

// Package unitconv normalizes raw property values to a numeric value and a
// canonical unit code. It is a pure function with no persistence; the catalog
// service calls it during product/variant property ingestion.
package unitconv

import (
	"fmt"
	"strconv"
	"strings"
)

type definition struct {
	canonical string
	// multipliers convert a value expressed in the suffixed unit into the
	// canonical unit.
	multipliers map[string]float64
}

var definitions = map[string]definition{
	"pipe_diameter": {
		canonical:   "in",
		multipliers: map[string]float64{"in": 1, "\"": 1, "mm": 1.0 / 25.4, "cm": 1.0 / 2.54},
	},
	"insulation_thickness": {
		canonical:   "in",
		multipliers: map[string]float64{"in": 1, "\"": 1, "mm": 1.0 / 25.4, "cm": 1.0 / 2.54},
	},
	"length": {
		canonical:   "ft",
		multipliers: map[string]float64{"ft": 1, "'": 1, "in": 1.0 / 12.0, "m": 3.28084, "mm": 0.00328084},
	},
	"weight": {
		canonical:   "lb",
		multipliers: map[string]float64{"lb": 1, "lbs": 1, "kg": 2.20462, "g": 0.00220462},
	},
	"temperature_rating": {
		canonical:   "f",
		multipliers: map[string]float64{"f": 1},
	},
}

// Normalize converts a raw property value to (numericValue, unitCode). Bare
// numbers are taken to already be in the property's canonical unit. String
// values may carry a unit suffix ("25mm", "1.5 in"). Unknown keys fall back
// to a plain numeric parse with an empty unit code.
func Normalize(key string, value interface{}) (float64, string, error) {
	def, known := definitions[key]

	switch v := value.(type) {
	case float64:
		return v, canonicalFor(def, known), nil
	case int:
		return float64(v), canonicalFor(def, known), nil
	case string:
		num, unit, err := splitValue(v)
		if err != nil {
			return 0, "", fmt.Errorf("property %q: %w", key, err)
		}
		if unit == "" || !known {
			return num, canonicalFor(def, known), nil
		}
		mult, ok := def.multipliers[strings.ToLower(unit)]
		if !ok {
			return 0, "", fmt.Errorf("property %q: unsupported unit %q", key, unit)
		}
		return num * mult, def.canonical, nil
	}

	return 0, "", fmt.Errorf("property %q: unsupported value type %T", key, value)
}

func canonicalFor(def definition, known bool) string {
	if known {
		return def.canonical
	}
	return ""
}

// splitValue separates a leading number from a trailing unit token.
// Fractional inch notation ("1/2") is accepted.
func splitValue(s string) (float64, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, "", fmt.Errorf("empty value")
	}

	i := 0
	for i < len(s) {
		c := s[i]
		if (c >= '0' && c <= '9') || c == '.' || c == '/' || c == '-' {
			i++
			continue
		}
		break
	}
	numPart := strings.TrimSpace(s[:i])
	unitPart := strings.TrimSpace(s[i:])

	if numPart == "" {
		return 0, "", fmt.Errorf("no numeric component in %q", s)
	}

	if strings.Contains(numPart, "/") {
		parts := strings.SplitN(numPart, "/", 2)
		num, err1 := strconv.ParseFloat(parts[0], 64)
		den, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil || den == 0 {
			return 0, "", fmt.Errorf("invalid fraction %q", numPart)
		}
		return num / den, unitPart, nil
	}

	num, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid number %q", numPart)
	}
	return num, unitPart, nil
}
