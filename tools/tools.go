//go:build tools

// Package tools documents development tool dependencies.
// They are run with `go run pkg@version` or installed via `go install`
// and are not tracked in go.mod.
package tools

// Development tools:
//
// mockgen - regenerates internal/mocks (go generate ./internal/mocks)
//   Version: go.uber.org/mock/mockgen@v0.6.0
//
// Air - Live reload for the web server with DEV=true
//   Install: go install github.com/air-verse/air@v1.63.0
//   Run: air --build.cmd "go build -o ./tmp/eventdesk-web ./cmd/eventdesk-web" --build.bin ./tmp/eventdesk-web
