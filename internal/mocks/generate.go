// Package mocks provides mock implementations for testing the swarmer job system.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the core interfaces. The mocks are generated with go:generate directives and
// committed so tests build without the generator.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	mockStore := mocks.NewMockJobStore(ctrl)
//	mockStore.EXPECT().AddJob(gomock.Any(), "job1", "img", "http://cb").Return(nil)
package mocks

// Generate mock for the JobStore interface from internal/core.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_store_mock.go github.com/openswarm/swarmer/internal/core JobStore

// Generate mock for the ContainerBackend interface from internal/core.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=container_backend_mock.go github.com/openswarm/swarmer/internal/core ContainerBackend
