package pipeline

import "errors"

// ErrQueueClosed is returned by Submit after Close has been called.
var ErrQueueClosed = errors.New("batch queue is closed")
