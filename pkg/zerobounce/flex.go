package zerobounce

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// The service is loose with scalar types: counters arrive as numbers or
// numeric strings, flags as booleans or "true"/"false", and any field may be
// null. These types decode all of them and fall back to the zero value.

// FlexInt decodes an integer from a number, a numeric string or null.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	var num json.Number
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		num = json.Number(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	} else {
		num = json.Number(data)
	}
	if n, err := num.Int64(); err == nil {
		*f = FlexInt(n)
		return nil
	}
	if fl, err := num.Float64(); err == nil {
		*f = FlexInt(int64(fl))
		return nil
	}
	*f = 0
	return nil
}

// FlexBool decodes a boolean from true/false, "true"/"false", 1/0 or null.
type FlexBool bool

func (f *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = false
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = FlexBool(truthy(v))
	return nil
}

// FlexString decodes a string from a string, a number, a boolean or null.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		*f = FlexString(strconv.FormatFloat(t, 'f', -1, 64))
	case bool:
		*f = FlexString(strconv.FormatBool(t))
	default:
		*f = ""
	}
	return nil
}
