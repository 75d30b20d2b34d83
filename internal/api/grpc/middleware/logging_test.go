package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/st-angelo/webarena-auth/internal/logger"
	"github.com/st-angelo/webarena-auth/internal/testutil"
)

func TestLogging_HandleGRPC(t *testing.T) {
	t.Parallel()

	lg := NewLogging(testutil.MakeNoopLogger())

	tests := []struct {
		name     string
		handler  grpc.UnaryHandler
		wantCode codes.Code
	}{
		{
			name: "success path",
			handler: func(ctx context.Context, req any) (any, error) {
				time.Sleep(10 * time.Millisecond)
				return "ok", nil
			},
			wantCode: codes.OK,
		},
		{
			name: "grpc error propagates",
			handler: func(ctx context.Context, req any) (any, error) {
				return nil, status.Error(codes.InvalidArgument, "bad input")
			},
			wantCode: codes.InvalidArgument,
		},
		{
			name: "non-grpc error becomes Internal",
			handler: func(ctx context.Context, req any) (any, error) {
				return nil, errors.New("boom")
			},
			wantCode: codes.Internal,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			info := &grpc.UnaryServerInfo{FullMethod: "/svc/Method"}
			resp, err := lg.HandleGRPC(context.Background(), struct{}{}, info, tt.handler)

			if tt.wantCode == codes.OK {
				assert.NoError(t, err)
				assert.Equal(t, "ok", resp)
				return
			}

			st, ok := status.FromError(err)
			gotCode := codes.Internal
			if ok {
				gotCode = st.Code()
			}
			assert.Equal(t, tt.wantCode, gotCode)
		})
	}
}

func TestLogging_HandleGRPC_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		handler    grpc.UnaryHandler
		wantLevel  string
		wantMsg    string
		wantStatus string
	}{
		{
			name: "success logs at debug",
			handler: func(ctx context.Context, req any) (any, error) {
				return "ok", nil
			},
			wantLevel:  slog.LevelDebug.String(),
			wantMsg:    "gRPC request completed",
			wantStatus: codes.OK.String(),
		},
		{
			name: "failure logs at error",
			handler: func(ctx context.Context, req any) (any, error) {
				return nil, status.Error(codes.Unauthenticated, "no session")
			},
			wantLevel:  slog.LevelError.String(),
			wantMsg:    "gRPC request failed",
			wantStatus: codes.Unauthenticated.String(),
		},
		{
			name: "plain error logs as internal",
			handler: func(ctx context.Context, req any) (any, error) {
				return nil, errors.New("boom")
			},
			wantLevel:  slog.LevelError.String(),
			wantMsg:    "gRPC request failed",
			wantStatus: codes.Internal.String(),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			lg := NewLogging(logger.NewWithFormat(&buf, int(slog.LevelDebug), "json"))

			info := &grpc.UnaryServerInfo{FullMethod: "/auth.v1.Auth/Verify"}
			_, _ = lg.HandleGRPC(context.Background(), struct{}{}, info, tt.handler)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.wantMsg, entry["msg"])
			assert.Equal(t, tt.wantStatus, entry["status"])
			assert.Equal(t, "/auth.v1.Auth/Verify", entry["method"])
		})
	}
}
