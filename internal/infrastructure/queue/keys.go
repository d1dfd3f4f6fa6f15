package queue

const (
	KeyCallbackRetry = "queue:callback:retry"
	KeyPendingCheck  = "queue:pending:check"
	KeyFailed        = "queue:failed"

	maxDeadLetters = 1000
)
