// Package mocks provides mock implementations for testing the session core.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the port interfaces. The mocks are generated using go:generate directives.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	kv := mocks.NewMockKV(ctrl)
//	kv.EXPECT().Get(gomock.Any(), gomock.Any()).Return("", false, nil)
package mocks

// Generate mock for the KV storage interface from internal/ports.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=kv_mock.go github.com/salinaworks/salina-go/internal/ports KV

// Generate mock for the AuthProvider SSO interface from internal/ports.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=auth_provider_mock.go github.com/salinaworks/salina-go/internal/ports AuthProvider

// Generate mock for the RoleMapper interface from internal/ports.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=role_mapper_mock.go github.com/salinaworks/salina-go/internal/ports RoleMapper
