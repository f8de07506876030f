package job

import "errors"

// Job errors.
var (
	// ErrUnknownTask is returned when attempting to execute or enqueue a task
	// that has not been registered.
	ErrUnknownTask = errors.New("job: unknown task")

	// ErrInvalidPayload is returned when a task payload cannot be
	// unmarshaled into the expected type.
	ErrInvalidPayload = errors.New("job: invalid payload")

	// ErrAlreadyStarted is returned when attempting to start a manager
	// that is already running.
	ErrAlreadyStarted = errors.New("job: already started")

	// ErrNotStarted is returned when attempting to stop a manager
	// that is not running.
	ErrNotStarted = errors.New("job: not started")

	// ErrPoolRequired is returned when attempting to create a manager
	// without providing a database pool.
	ErrPoolRequired = errors.New("job: pool is required")

	// ErrPoolFull is reported when a background task is dropped because
	// the queue is at capacity.
	ErrPoolFull = errors.New("job: background queue is full")

	// ErrPoolClosed is reported when a task is submitted after Shutdown.
	ErrPoolClosed = errors.New("job: background pool is closed")

	// ErrShutdownTimeout is returned when queued tasks do not finish before
	// the shutdown deadline.
	ErrShutdownTimeout = errors.New("job: shutdown timed out")
)
