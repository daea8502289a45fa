package keyboard

import (
	"errors"
	"fmt"
	"strings"
)

const (
	callbackSeparator = ":"
	// CallbackDataLimitBytes is the Telegram limit for inline button callback data.
	CallbackDataLimitBytes = 64
)

// ErrInvalidCallback is returned for callback data the router cannot dispatch.
var ErrInvalidCallback = errors.New("invalid callback data")

// EncodeCallback renders "route" or "route:action". The route must not contain the separator
// so that DecodeCallback recovers it unchanged.
func EncodeCallback(route, action string) (string, error) {
	if route == "" || strings.Contains(route, callbackSeparator) {
		return "", fmt.Errorf("%w: route %q", ErrInvalidCallback, route)
	}

	data := route
	if action != "" {
		data += callbackSeparator + action
	}
	if len(data) > CallbackDataLimitBytes {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrInvalidCallback, len(data), CallbackDataLimitBytes)
	}
	return data, nil
}

// DecodeCallback is the inverse of EncodeCallback. The action keeps any further separators.
func DecodeCallback(data string) (route, action string, err error) {
	route, action, _ = strings.Cut(data, callbackSeparator)
	if route == "" {
		return "", "", fmt.Errorf("%w: %q has no route", ErrInvalidCallback, data)
	}
	return route, action, nil
}
