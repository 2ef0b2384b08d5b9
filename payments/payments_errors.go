package payments

import "errors"

var (
	NotAuthenticatedErr = errors.New("not authenticated")
	ExhaustedRetriesErr = errors.New("exhausted retries")
)
