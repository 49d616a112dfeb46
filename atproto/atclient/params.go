package atclient

import (
	"encoding"
	"fmt"
	"net/url"
)

// Converts a loosely-typed parameter map to URL query params.
//
// Empty strings and zero-length slices are omitted, which matches how the lexicon helpers pass optional params (eg, an empty cursor).
func ParseParams(raw map[string]any) (url.Values, error) {
	out := make(url.Values)
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			if val != "" {
				out.Set(k, val)
			}
		case bool, int, int32, int64, uint, uint32, uint64:
			out.Set(k, fmt.Sprint(val))
		case []string:
			for _, s := range val {
				out.Add(k, s)
			}
		case encoding.TextMarshaler:
			b, err := val.MarshalText()
			if err != nil {
				return nil, err
			}
			if len(b) > 0 {
				out.Set(k, string(b))
			}
		default:
			return nil, fmt.Errorf("can't marshal query param '%s' with type: %T", k, v)
		}
	}
	return out, nil
}
