package middleware

import (
	"context"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/st-angelo/webarena-auth/internal/logger"
)

// Recovery turns handler panics into codes.Internal and logs them.
func Recovery(logger *logger.Logger) grpc.UnaryServerInterceptor {
	return recovery.UnaryServerInterceptor(
		recovery.WithRecoveryHandlerContext(func(ctx context.Context, p any) error {
			logger.Error("gRPC handler panicked",
				"panic", fmt.Sprint(p))
			return status.Error(codes.Internal, "internal error")
		}),
	)
}
