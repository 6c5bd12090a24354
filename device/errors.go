package device

import "github.com/pkg/errors"

// ErrOutOfMemory is returned by a Device that declines an allocation because memory is exhausted
var ErrOutOfMemory = errors.New("device is out of memory")

// ErrUnsupported is returned by a Device asked to create a resource it cannot represent
var ErrUnsupported = errors.New("operation is not supported by the device")

// ErrMapFailed is returned by a Resource that could not be mapped for CPU access
var ErrMapFailed = errors.New("resource could not be mapped")
