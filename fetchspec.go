package apifetch

import (
	"net/url"
	"strings"
)

const (
	defaultMethod = "GET"

	// maxResolveDepth bounds chains of computed specs returning computed specs.
	maxResolveDepth = 32
)

// Descriptor describes one remote call.
type Descriptor struct {
	Method string
	URI    string
	Params map[string]string

	// OnSuccess converts the raw response into the value stored under the request name.
	OnSuccess func(response any) any
}

// Identity returns the deduplication key of the descriptor: method, uri and sorted params.
// Descriptors with equal identity are fetched with a single call.
func (d Descriptor) Identity() string {
	method := strings.ToUpper(d.Method)
	if method == "" {
		method = defaultMethod
	}

	if len(d.Params) == 0 {
		return method + " " + d.URI
	}

	values := make(url.Values, len(d.Params))
	for k, v := range d.Params {
		values.Set(k, v)
	}

	// Encode sorts by key.
	return method + " " + d.URI + "?" + values.Encode()
}

type specKind uint8

const (
	specInert specKind = iota
	specStatic
	specComputed
)

// FetchSpec declares a named data requirement of a component.
// It is either a static descriptor, a function of props producing another FetchSpec,
// or inert. The zero value is inert.
type FetchSpec struct {
	kind specKind
	desc Descriptor
	fn   func(Props) FetchSpec
}

// Static returns a spec that always resolves to d.
func Static(d Descriptor) FetchSpec {
	return FetchSpec{kind: specStatic, desc: d}
}

// URI is a shortcut for a static GET spec without params.
func URI(uri string) FetchSpec {
	return Static(Descriptor{URI: uri})
}

// Computed returns a spec resolved from the props of every render.
func Computed(fn func(Props) FetchSpec) FetchSpec {
	if fn == nil {
		return Inert()
	}

	return FetchSpec{kind: specComputed, fn: fn}
}

// Inert returns a spec that is declared but never fetched.
func Inert() FetchSpec {
	return FetchSpec{kind: specInert}
}

// Resolve returns the descriptor for the given props, or false if there is nothing to fetch.
func (s FetchSpec) Resolve(props Props) (Descriptor, bool) {
	for range maxResolveDepth {
		switch s.kind {
		case specStatic:
			return s.desc, true
		case specComputed:
			s = s.fn(props)
		default:
			return Descriptor{}, false
		}
	}

	return Descriptor{}, false
}

// Job is a named descriptor waiting for a fetch.
type Job struct {
	Name       string
	Descriptor Descriptor
}

// Result is the settled outcome of a job.
type Result struct {
	// Value is the response after the success handler.
	Value any
	// Response is the raw transport response.
	Response any
	Err      error
}
