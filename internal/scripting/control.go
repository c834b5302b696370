package scripting

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ControlKind discriminates ControlSpec.
type ControlKind int

const (
	KindInt ControlKind = iota
	KindFloat
	KindBool
	KindDropdown
	// KindText is a free-form string input; descriptors with an unknown
	// control type fall back to it.
	KindText
)

var kindNames = [...]string{
	KindInt:      "int",
	KindFloat:    "float",
	KindBool:     "bool",
	KindDropdown: "dropdown",
	KindText:     "text",
}

func (k ControlKind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "ControlKind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind maps a descriptor "type" string to a kind. "string" is accepted
// as an alias of "text".
func ParseKind(s string) (ControlKind, bool) {
	switch strings.ToLower(s) {
	case "int", "integer":
		return KindInt, true
	case "float", "number":
		return KindFloat, true
	case "bool", "boolean":
		return KindBool, true
	case "dropdown", "select":
		return KindDropdown, true
	case "text", "string":
		return KindText, true
	}
	return KindText, false
}

// ControlSpec describes one configurable input of a script. Default holds an
// int64, float64, bool or string matching Kind. Min and Max apply to the
// slider kinds, Options to dropdowns.
type ControlSpec struct {
	ID      string
	Label   string
	Kind    ControlKind
	Default any
	Min     float64
	Max     float64
	Options []string
}

// IsSlider reports whether the control has numeric bounds.
func (s ControlSpec) IsSlider() bool {
	return s.Kind == KindInt || s.Kind == KindFloat
}

// Parse converts text (as typed on a command line) into a value for this
// control, rejecting out of range numbers and unknown options.
func (s ControlSpec) Parse(text string) (any, error) {
	text = strings.TrimSpace(text)
	switch s.Kind {
	case KindInt:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not an integer", s.ID, text)
		}
		return s.Coerce(n)
	case KindFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a number", s.ID, text)
		}
		return s.Coerce(f)
	case KindBool:
		switch strings.ToLower(text) {
		case "true", "1", "yes", "on":
			return true, nil
		case "false", "0", "no", "off":
			return false, nil
		}
		return nil, fmt.Errorf("%s: %q is not a boolean", s.ID, text)
	default:
		return s.Coerce(text)
	}
}

// Coerce checks v against the control and normalises numeric types: ints
// become int64 and floats float64.
func (s ControlSpec) Coerce(v any) (any, error) {
	switch s.Kind {
	case KindInt:
		var n int64
		switch x := v.(type) {
		case int:
			n = int64(x)
		case int64:
			n = x
		case float64:
			if x != math.Trunc(x) {
				return nil, fmt.Errorf("%s: %v is not an integer", s.ID, x)
			}
			n = int64(x)
		default:
			return nil, fmt.Errorf("%s: expected integer, got %T", s.ID, v)
		}
		if float64(n) < s.Min || float64(n) > s.Max {
			return nil, fmt.Errorf("%s: %d is outside [%s, %s]", s.ID, n, formatNumber(s.Min), formatNumber(s.Max))
		}
		return n, nil
	case KindFloat:
		var f float64
		switch x := v.(type) {
		case float64:
			f = x
		case int64:
			f = float64(x)
		case int:
			f = float64(x)
		default:
			return nil, fmt.Errorf("%s: expected number, got %T", s.ID, v)
		}
		if math.IsNaN(f) || f < s.Min || f > s.Max {
			return nil, fmt.Errorf("%s: %v is outside [%s, %s]", s.ID, f, formatNumber(s.Min), formatNumber(s.Max))
		}
		return f, nil
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%s: expected boolean, got %T", s.ID, v)
		}
		return b, nil
	case KindDropdown:
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s: expected string, got %T", s.ID, v)
		}
		if !slices.Contains(s.Options, str) {
			return nil, fmt.Errorf("%s: %q is not one of %s", s.ID, str, strings.Join(s.Options, ", "))
		}
		return str, nil
	default:
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s: expected string, got %T", s.ID, v)
		}
		return str, nil
	}
}

// Step returns the value one notch away from v in direction dir (negative
// moves down). Sliders clamp to their bounds, booleans flip and dropdowns
// wrap around their options. Text values are returned unchanged.
func (s ControlSpec) Step(v any, dir int) any {
	switch s.Kind {
	case KindInt:
		n, _ := v.(int64)
		step := int64(1)
		if span := s.Max - s.Min; span > 50 {
			step = int64(math.Ceil(span / 50))
		}
		if dir < 0 {
			step = -step
		}
		return int64(clamp(float64(n+step), s.Min, s.Max))
	case KindFloat:
		f, _ := v.(float64)
		step := (s.Max - s.Min) / 20
		if step == 0 {
			return f
		}
		if dir < 0 {
			step = -step
		}
		// round to the step grid to keep displayed values tidy
		next := math.Round((f+step)/step*1e6) / 1e6 * step
		return clamp(next, s.Min, s.Max)
	case KindBool:
		b, _ := v.(bool)
		return !b
	case KindDropdown:
		if len(s.Options) == 0 {
			return v
		}
		str, _ := v.(string)
		i := slices.Index(s.Options, str)
		switch {
		case i < 0:
			i = 0
		case dir < 0:
			i = (i - 1 + len(s.Options)) % len(s.Options)
		default:
			i = (i + 1) % len(s.Options)
		}
		return s.Options[i]
	}
	return v
}

// Format renders v for display.
func (s ControlSpec) Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case bool:
		if x {
			return "on"
		}
		return "off"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case string:
		return x
	}
	return fmt.Sprint(v)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
