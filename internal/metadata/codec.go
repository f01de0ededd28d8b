package metadata

import (
	"encoding/json"
	"fmt"
	"time"
)

type envelope struct {
	Kind   Kind                       `json:"kind"`
	Fields map[string]json.RawMessage `json:"fields"`
}

// Encode serializes rec with its kind so Decode can restore the variant.
func Encode(rec Record) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("nil metadata record")
	}
	fields, err := marshalFields(rec.Fields())
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Kind   Kind            `json:"kind"`
		Fields json.RawMessage `json:"fields"`
	}{rec.Kind(), fields})
}

// Decode restores a record written by Encode. Unknown Exif keys are ignored.
func Decode(data []byte) (Record, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}

	switch env.Kind {
	case KindExif:
		rec := NewExif()
		for key, raw := range env.Fields {
			var v Value
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, fmt.Errorf("failed to decode field %s: %w", key, err)
			}
			rec.set(key, v)
		}
		return rec, nil
	case KindProvenance:
		var source, stamp string
		if err := unmarshalString(env.Fields, KeySource, &source); err != nil {
			return nil, err
		}
		if err := unmarshalString(env.Fields, KeyTimestamp, &stamp); err != nil {
			return nil, err
		}
		at, err := time.Parse(TimestampLayout, stamp)
		if err != nil {
			return nil, fmt.Errorf("failed to parse provenance timestamp: %w", err)
		}
		return &Provenance{Source: source, Timestamp: at}, nil
	default:
		return nil, fmt.Errorf("unknown metadata kind %q", env.Kind)
	}
}

func unmarshalString(fields map[string]json.RawMessage, key string, dst *string) error {
	raw, ok := fields[key]
	if !ok {
		return fmt.Errorf("provenance record missing %s", key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode field %s: %w", key, err)
	}
	return nil
}
