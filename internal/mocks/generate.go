// Package mocks provides generated mock implementations of the session ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the interfaces in internal/ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	backend := mocks.NewMockAuthBackend(ctrl)
//	backend.EXPECT().Verify(gomock.Any()).Return(identity, nil)
package mocks

// Generate mock for AuthBackend interface from internal/ports package.
// This creates MockAuthBackend with methods: Verify, SignIn, SignOut
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=auth_backend_mock.go github.com/target/eventdesk/internal/ports AuthBackend

// Generate mock for HandoffStore interface from internal/ports package.
// This creates MockHandoffStore with methods: Issue, Redeem
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=handoff_store_mock.go github.com/target/eventdesk/internal/ports HandoffStore
