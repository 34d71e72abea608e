package docstore

import (
	"encoding/json"
	"time"
)

// timestampKey marks an encoded Timestamp inside JSON documents.
const timestampKey = "@ts"

// MarshalJSON encodes a Timestamp as {"@ts": RFC3339Nano}.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{timestampKey: t.Time.UTC().Format(time.RFC3339Nano)})
}

// FromJSON restores Timestamps in a value produced by encoding/json.
func FromJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 1 {
			if s, ok := t[timestampKey].(string); ok {
				if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
					return TimestampOf(ts)
				}
			}
		}
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = FromJSON(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = FromJSON(e)
		}
		return out
	default:
		return v
	}
}

// DecodeData parses a stored JSON object.
func DecodeData(raw []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if m == nil {
		return map[string]any{}, nil
	}
	return FromJSON(m).(map[string]any), nil
}
