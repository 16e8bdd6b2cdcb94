package recipechat

import "fmt"

// CompletionFailure reports that the completion collaborator did not return a usable reply.
// The turn is aborted and nothing is persisted.
type CompletionFailure struct {
	Err error
}

func (e *CompletionFailure) Error() string {
	return fmt.Sprintf("completion failed: %v", e.Err)
}

func (e *CompletionFailure) Unwrap() error {
	return e.Err
}

// StoreFailure reports that the conversation store could not complete an operation.
type StoreFailure struct {
	Op     string
	UserID string
	Err    error
}

func (e *StoreFailure) Error() string {
	return fmt.Sprintf("conversation store %s failed (user_id: %s): %v", e.Op, e.UserID, e.Err)
}

func (e *StoreFailure) Unwrap() error {
	return e.Err
}
