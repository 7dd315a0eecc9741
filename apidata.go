package apifetch

import (
	"encoding/json"
	"fmt"
)

// ApiData is the serializable cache snapshot keyed by request name.
// Well formed values are Entry (or their JSON-decoded map form); anything else
// is kept as is but never used as cached data.
//
//nolint:revive // name matches the apiData prop
type ApiData map[string]any

// Entry is one cached request result.
type Entry struct {
	// Request is the identity of the descriptor that produced the entry.
	Request string `json:"request"`
	Value   any    `json:"value"`
	// Response is the raw response, set only when a success handler transformed it.
	Response    any  `json:"response,omitempty"`
	Transformed bool `json:"transformed,omitempty"`
}

func newEntry(d Descriptor, response, value any) Entry {
	e := Entry{Request: d.Identity(), Value: value}
	if d.OnSuccess != nil {
		e.Response = response
		e.Transformed = true
	}

	return e
}

// raw returns the untransformed response the entry was built from.
func (e Entry) raw() any {
	if e.Transformed {
		return e.Response
	}

	return e.Value
}

// parseApiData converts an apiData prop into ApiData. Values that are not a mapping
// (including undecodable JSON) give an empty result.
func parseApiData(v any) ApiData {
	switch data := v.(type) {
	case ApiData:
		return cloneApiData(data)
	case map[string]any:
		return cloneApiData(data)
	case map[string]Entry:
		res := make(ApiData, len(data))
		for k, e := range data {
			res[k] = e
		}
		return res
	case json.RawMessage:
		return decodeApiData(data)
	case []byte:
		return decodeApiData(data)
	default:
		return ApiData{}
	}
}

func decodeApiData(b []byte) ApiData {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return ApiData{}
	}

	return ApiData(m)
}

func cloneApiData(m map[string]any) ApiData {
	res := make(ApiData, len(m))
	for k, v := range m {
		res[k] = v
	}

	return res
}

// parseEntry returns the entry held by v, or false if v is malformed.
func parseEntry(v any) (Entry, bool) {
	switch e := v.(type) {
	case Entry:
		return e, e.Request != ""
	case *Entry:
		if e == nil {
			return Entry{}, false
		}
		return *e, e.Request != ""
	case map[string]any:
		req, ok := e["request"].(string)
		if !ok || req == "" {
			return Entry{}, false
		}

		transformed, _ := e["transformed"].(bool)

		return Entry{
			Request:     req,
			Value:       e["value"],
			Response:    e["response"],
			Transformed: transformed,
		}, true
	default:
		return Entry{}, false
	}
}

// applySuccess runs the success handler of d, converting a panic into an error.
func applySuccess(d Descriptor, response any) (value any, err error) { //nolint:nonamedreturns // recover
	if d.OnSuccess == nil {
		return response, nil
	}

	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = fmt.Errorf("%w: %s: %v", ErrSuccessHandlerPanic, d.Identity(), r)
		}
	}()

	return d.OnSuccess(response), nil
}
