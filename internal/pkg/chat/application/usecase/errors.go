package usecase

import "errors"

// ErrPersistence indicates an infrastructure/repository failure inside a use
// case that is not one of the typed store errors.
var ErrPersistence = errors.New("chat use case: persistence error")
