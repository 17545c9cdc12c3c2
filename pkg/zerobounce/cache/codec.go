// Package cache provides zerobounce.Cache adapters: Redis, a directory of
// JSON files, and an in-process map.
//
// Every adapter stores the same JSON document per key, {"status":N,"body":"..."},
// so entries written by one can be read by another.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zerobounce/zerobounce-cli/pkg/zerobounce"
)

// ErrWrongShape is returned when a stored value is not a cached response.
var ErrWrongShape = errors.New("cached value has the wrong shape")

type record struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

func encode(resp *zerobounce.Response) ([]byte, error) {
	if resp == nil {
		return nil, errors.New("nil response")
	}
	return json.Marshal(record{Status: resp.StatusCode, Body: resp.Body})
}

func decode(data []byte) (*zerobounce.Response, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrongShape, err)
	}
	if r.Status <= 0 {
		return nil, ErrWrongShape
	}
	return zerobounce.NewResponse(r.Status, r.Body), nil
}
