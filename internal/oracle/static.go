package oracle

import "context"

// Static is a deterministic oracle for tests and local development: it
// returns a fixed result, or a fixed error when Err is set.
type Static struct {
	Result Result
	Err    error

	// LastRequest records the most recent request for assertions.
	LastRequest Request
	Calls       int
}

func (s *Static) Evaluate(_ context.Context, req Request) (Result, error) {
	s.LastRequest = req
	s.Calls++
	if s.Err != nil {
		return Result{}, s.Err
	}
	return s.Result, nil
}
