// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file gives the duration ranges one JSON unit. Bounds are written as
// whole milliseconds, matching the REST parameters, and read back from either
// a number of milliseconds or a duration string such as "1.5s".
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// jsonMillis is a time.Duration that travels through JSON as milliseconds.
type jsonMillis time.Duration

func (d jsonMillis) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).Milliseconds())
}

func (d *jsonMillis) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = jsonMillis(parsed)
		return nil
	}
	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("duration must be milliseconds or a duration string, got %s", raw)
	}
	*d = jsonMillis(time.Duration(ms * float64(time.Millisecond)))
	return nil
}

type jsonRange struct {
	Min jsonMillis `json:"min"`
	Max jsonMillis `json:"max"`
}

func (r ServiceRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonRange{Min: jsonMillis(r.Min), Max: jsonMillis(r.Max)})
}

func (r *ServiceRange) UnmarshalJSON(data []byte) error {
	var v jsonRange
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	r.Min, r.Max = time.Duration(v.Min), time.Duration(v.Max)
	return nil
}

func (w RateWindow) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonRange{Min: jsonMillis(w.Min), Max: jsonMillis(w.Max)})
}

func (w *RateWindow) UnmarshalJSON(data []byte) error {
	var v jsonRange
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	w.Min, w.Max = time.Duration(v.Min), time.Duration(v.Max)
	return nil
}
