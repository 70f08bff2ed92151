package applicant

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

const (
	profileSnapshotKey    = "profile_snapshot"
	preferenceSnapshotKey = "preference_snapshot"
	userIDKey             = "user_id"
)

// attributeKeys are the optional single-value profile fields. They are flattened
// before decoding so an odd shape never fails the whole snapshot. Identity fields
// are left strict for Validate.
var attributeKeys = []string{"job_type", "marital_status", "education", "residence", "company"}

var (
	setType    = reflect.TypeOf(Set{})
	intType    = reflect.TypeOf(0)
	intPtrType = reflect.TypeOf((*int)(nil))
)

// snapshotHook makes decoding tolerant: sets are normalized and numbers that fail to
// parse are treated as absent.
var snapshotHook mapstructure.DecodeHookFuncType = func(_ reflect.Type, to reflect.Type, data any) (any, error) {
	switch to {
	case setType:
		return NormalizeSet(data), nil
	case intPtrType:
		if v, ok := coerceInt(data); ok {
			return v, nil
		}
		return nil, nil
	case intType:
		v, _ := coerceInt(data)
		return v, nil
	}
	return data, nil
}

// Decode builds a Record from a loosely typed map, e.g. a merged profile and
// preference snapshot.
func Decode(raw map[string]any) (*Record, error) {
	var rec Record

	cfg := &mapstructure.DecoderConfig{
		DecodeHook:       snapshotHook,
		WeaklyTypedInput: true,
		Result:           &rec,
		TagName:          "mapstructure",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(flattenAttributes(raw)); err != nil {
		return nil, fmt.Errorf("decode applicant snapshot: %w", err)
	}

	return &rec, nil
}

// flattenAttributes returns a copy of raw in which every attribute holds a plain
// string: the first value of whatever list shape it arrived in, or "" when there is none.
func flattenAttributes(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}

	for _, key := range attributeKeys {
		v, ok := out[key]
		if !ok || v == nil {
			continue
		}
		if values := NormalizeSet(v); values.Len() > 0 {
			out[key] = values[0]
		} else {
			out[key] = ""
		}
	}
	return out
}

// FromSnapshot merges the profile and preference snapshots stored with an application
// and decodes them. The application's user id wins over any id inside the snapshots.
func FromSnapshot(userID any, profile, preference map[string]any) (*Record, error) {
	merged := make(map[string]any, len(profile)+len(preference)+1)
	for k, v := range profile {
		merged[k] = v
	}
	for k, v := range preference {
		merged[k] = v
	}
	if userID != nil {
		merged[userIDKey] = userID
	}

	return Decode(merged)
}

// SnapshotMap converts a stored snapshot (a map, JSON text or JSON bytes) into a map.
// An empty value yields an empty map.
func SnapshotMap(v any) (map[string]any, error) {
	switch val := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return val, nil
	case []byte:
		return unmarshalSnapshot(val)
	case string:
		return unmarshalSnapshot([]byte(val))
	case json.RawMessage:
		return unmarshalSnapshot(val)
	default:
		return nil, fmt.Errorf("unsupported snapshot type %T", v)
	}
}

func unmarshalSnapshot(data []byte) (map[string]any, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return map[string]any{}, nil
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// decodeEntry decodes one pool file entry, which is either a flat record or an
// application row with separate snapshot fields.
func decodeEntry(entry map[string]any) (*Record, error) {
	_, hasProfile := entry[profileSnapshotKey]
	_, hasPreference := entry[preferenceSnapshotKey]
	if !hasProfile && !hasPreference {
		return Decode(entry)
	}

	profile, err := SnapshotMap(entry[profileSnapshotKey])
	if err != nil {
		return nil, fmt.Errorf("profile snapshot: %w", err)
	}

	// A broken preference snapshot must not block the round: the applicant is kept
	// without preferences.
	preference, err := SnapshotMap(entry[preferenceSnapshotKey])
	if err != nil {
		preference = map[string]any{}
	}

	withFlags := make(map[string]any, len(profile)+2)
	for k, v := range profile {
		withFlags[k] = v
	}
	for _, key := range []string{"applied", "cancelled"} {
		if v, ok := entry[key]; ok {
			withFlags[key] = v
		}
	}

	return FromSnapshot(entry[userIDKey], withFlags, preference)
}

func coerceInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case int32:
		return int(val), true
	case float64:
		return int(val), true
	case float32:
		return int(val), true
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i), true
		}
		if f, err := val.Float64(); err == nil {
			return int(f), true
		}
		return 0, false
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return 0, false
		}
		if i, err := strconv.Atoi(trimmed); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return int(f), true
		}
		return 0, false
	default:
		return 0, false
	}
}
