package nlu

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	IntentVolume     = "change_volume"
	IntentBrightness = "change_brightness"
	IntentPower      = "power_action"
	IntentMusic      = "music_control"
	IntentWeather    = "get_weather"
	IntentEmail      = "send_email"
	IntentEvent      = "create_event"
	IntentCode       = "code_action"
	IntentSystem     = "system_monitor"
	IntentOther      = "other"
)

// Result is the structured record the model is asked to emit.
type Result struct {
	Intent string `json:"intent"`
	Slots  Slots  `json:"slots"`
}

// Default is returned whenever the model output cannot be used.
func Default() Result {
	return Result{Intent: IntentOther, Slots: Slots{}}
}

func (r Result) String() string {
	data, err := json.Marshal(r)
	if err != nil {
		return r.Intent
	}
	return string(data)
}

var ErrNoJSON = errors.New("no JSON object in model output")

// Parse extracts the first JSON object from raw model output. Markdown fences
// and surrounding prose are tolerated; anything else is an error.
func Parse(raw string) (Result, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return Result{}, ErrNoJSON
	}

	var out struct {
		Intent any            `json:"intent"`
		Slots  map[string]any `json:"slots"`
	}

	dec := json.NewDecoder(strings.NewReader(s[start:]))
	if err := dec.Decode(&out); err != nil {
		return Result{}, fmt.Errorf("decode intent JSON: %w", err)
	}

	intent, _ := out.Intent.(string)

	return Normalize(Result{Intent: intent, Slots: out.Slots}), nil
}

var intentAliases = map[string]string{
	"set_brightness": IntentBrightness,
	"brightness":     IntentBrightness,
	"volume":         IntentVolume,
	"set_volume":     IntentVolume,
	"weather":        IntentWeather,
	"unknown":        IntentOther,
}

// Normalize canonicalizes the intent tag and guarantees non-nil slots.
func Normalize(r Result) Result {
	intent := strings.ToLower(strings.TrimSpace(r.Intent))
	intent = strings.ReplaceAll(intent, " ", "_")

	slots := Slots{}
	for k, v := range r.Slots {
		slots[strings.ToLower(strings.TrimSpace(k))] = v
	}

	switch intent {
	case "silence", "mute":
		intent = IntentVolume
		slots["action"] = "mute"
	case "unmute":
		intent = IntentVolume
		slots["action"] = "unmute"
	case "":
		intent = IntentOther
	default:
		if alias, ok := intentAliases[intent]; ok {
			intent = alias
		}
	}

	return Result{Intent: intent, Slots: slots}
}

type Slots map[string]any

// Text returns the slot rendered as trimmed text, or def when absent or empty.
func (s Slots) Text(key, def string) string {
	v, ok := s[key]
	if !ok || v == nil {
		return def
	}

	var out string
	switch x := v.(type) {
	case string:
		out = x
	case float64:
		out = strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		out = strconv.Itoa(x)
	case bool:
		out = strconv.FormatBool(x)
	case []any:
		parts := make([]string, 0, len(x))
		for _, p := range x {
			parts = append(parts, fmt.Sprint(p))
		}
		out = strings.Join(parts, ", ")
	default:
		out = fmt.Sprint(x)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return def
	}
	return out
}

// First returns the first non-empty string slot among keys.
func (s Slots) First(keys ...string) string {
	for _, k := range keys {
		if v := s.Text(k, ""); v != "" {
			return v
		}
	}
	return ""
}

// Int reads a numeric slot. Numbers, numeric strings and "70%" are accepted;
// values beyond the int32 range saturate.
func (s Slots) Int(key string) (int, bool) {
	v, ok := s[key]
	if !ok || v == nil {
		return 0, false
	}

	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		return x, true
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		t := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(x), "%"))
		parsed, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) {
		return 0, false
	}
	if f > math.MaxInt32 {
		return math.MaxInt32, true
	}
	if f < math.MinInt32 {
		return math.MinInt32, true
	}
	return int(math.Round(f)), true
}

// Has reports whether any of keys is present.
func (s Slots) Has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := s[k]; ok {
			return true
		}
	}
	return false
}

// Action is the lower-cased "action" slot.
func (s Slots) Action(def string) string {
	return strings.ToLower(s.Text("action", def))
}
