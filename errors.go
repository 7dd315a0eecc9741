package apifetch

import "errors"

var (
	// ErrRequiredParamsMissing is returned when a provider or consumer is built without
	// a component, a transport or an API instance.
	ErrRequiredParamsMissing = errors.New("required params missing")

	// ErrNilElement is returned when a bulk fetch is requested for an element without a component.
	ErrNilElement = errors.New("element has no component")

	// ErrSuccessHandlerPanic is set on a result whose success handler panicked.
	ErrSuccessHandlerPanic = errors.New("success handler panicked")

	// ErrTransportPanic is set on a result whose transport call panicked.
	ErrTransportPanic = errors.New("transport panicked")
)
