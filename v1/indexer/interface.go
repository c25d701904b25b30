package indexer

import "context"

//go:generate mockgen -source=interface.go -destination=mock_logger.go -package=indexer

// Logger is the logging surface the indexer needs. *logger.Logger satisfies it.
type Logger interface {
	DebugWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}
