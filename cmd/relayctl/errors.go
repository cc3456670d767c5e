package main

// InterruptedError is returned when SIGINT or SIGTERM ends a session
type InterruptedError struct{}

func (e *InterruptedError) Error() string { return "interrupted by OS signal" }

func (e *InterruptedError) Unwrap() error { return nil }
