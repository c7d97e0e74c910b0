// Package mocks provides shared test doubles for the generation boundary
// and the token service, so job, service and handler tests use the same
// fakes.
package mocks
