package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/target/eventdesk/internal/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "app error code", err: apperrors.Unauthenticated("Not authenticated"), want: "unauthenticated"},
		{
			name: "wrapped app error",
			err:  fmt.Errorf("check auth: %w", apperrors.New(apperrors.ErrCodeInvalidCredentials, "bad password")),
			want: "invalid_credentials",
		},
		{name: "innermost concrete type", err: fmt.Errorf("dial: %w", &net.OpError{Op: "dial", Err: errors.New("refused")}), want: "errors_errorstring"},
		{name: "sentinel", err: context.DeadlineExceeded, want: "context_deadlineexceedederror"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
