package handlers

import "errors"

var errNotFound = errors.New("handlers: slot not found")

var errInvalidSlot = errors.New("handlers: slot must be a decimal integer within the slot width")
