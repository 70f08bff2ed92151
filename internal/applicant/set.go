package applicant

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// Set is an ordered list of distinct category values such as body types or job types.
// A nil or empty Set means "no constraint" when used as a preference.
type Set []string

// Contains reports whether value is a member of the set.
func (s Set) Contains(value string) bool {
	for _, v := range s {
		if v == value {
			return true
		}
	}
	return false
}

// Intersects reports whether at least one value of other is a member of s.
func (s Set) Intersects(other Set) bool {
	for _, v := range other {
		if s.Contains(v) {
			return true
		}
	}
	return false
}

// Len returns the number of values in the set.
func (s Set) Len() int {
	return len(s)
}

// String joins the values with commas, which is how reports print them.
func (s Set) String() string {
	return strings.Join(s, ",")
}

// UnmarshalJSON accepts every shape NormalizeSet accepts, so pool files may carry
// preference lists either as arrays or as re-encoded strings.
func (s *Set) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		*s = nil
		return nil
	}
	*s = NormalizeSet(raw)
	return nil
}

// NormalizeSet converts a loosely typed value into a Set.
//
// Arrays are taken as they are, strings holding a JSON array or a Postgres array
// literal are decoded, and a bare scalar becomes a single-element set. Anything that
// cannot be decoded yields an empty set instead of an error.
func NormalizeSet(v any) Set {
	switch val := v.(type) {
	case nil:
		return nil
	case Set:
		return dedupe([]string(val))
	case []string:
		return dedupe(val)
	case []any:
		values := make([]string, 0, len(val))
		for _, item := range val {
			if str, ok := scalarString(item); ok {
				values = append(values, str)
			}
		}
		return dedupe(values)
	case []byte:
		return normalizeString(string(val))
	case string:
		return normalizeString(val)
	default:
		if str, ok := scalarString(val); ok {
			return dedupe([]string{str})
		}
		return nil
	}
}

func normalizeString(raw string) Set {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	if decoded, ok := decodeJSON(trimmed); ok {
		if nested, ok := decoded.(string); ok {
			// a list encoded twice is unwrapped once more
			return normalizeString(nested)
		}
		// the JSON literal null decodes to nil, which is no constraint
		return NormalizeSet(decoded)
	}

	switch trimmed[0] {
	case '[', '"':
		return nil
	case '{':
		var arr pq.StringArray
		if err := arr.Scan(trimmed); err != nil {
			return nil
		}
		return dedupe(arr)
	default:
		return dedupe([]string{trimmed})
	}
}

// decodeJSON parses s as a single JSON value. Numbers stay json.Number so long
// ids are not rounded.
func decodeJSON(s string) (any, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, false
	}
	if dec.More() {
		return nil, false
	}
	return decoded, true
}

func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case uint:
		return strconv.FormatUint(uint64(val), 10), true
	case uint64:
		return strconv.FormatUint(val, 10), true
	case bool:
		return strconv.FormatBool(val), true
	case fmt.Stringer:
		return val.String(), true
	default:
		return "", false
	}
}

func dedupe(values []string) Set {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	out := make(Set, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
