package logger

import (
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a wrapper around Uber's Zap logger.
// Components of the indexer log through the map based methods of this type so that
// call sites stay free of zap field constructors.
type Logger struct {
	// Zap is the underlying zap.Logger instance.
	// Exposed for the few places that need zap directly (kafka error logger, tests).
	Zap *zap.Logger

	// tracingEnabled makes the *WithContext methods attach trace and span ids.
	tracingEnabled bool
}

// NewLoggerClient initializes and returns a new instance of the logger based on configuration.
//
// The logger is configured with:
//   - JSON (or console) encoding
//   - ISO8601 timestamps under the "timestamp" key
//   - Process ID and service name as default fields
//   - Caller information, skipping the wrapper frame
//
// If initialization fails, the function will call log.Fatal to terminate the application.
//
// Example:
//
//	log := logger.NewLoggerClient(logger.Config{Level: logger.Info, ServiceName: "indexer"})
//	log.Info("indexer started", nil, map[string]interface{}{"backend": "qdrant"})
func NewLoggerClient(cfg Config) *Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderCfg.EncodeCaller = zapcore.ShortCallerEncoder
	encoderCfg.EncodeDuration = zapcore.MillisDurationEncoder

	encoding := cfg.Encoding
	if encoding != EncodingConsole {
		encoding = EncodingJSON
	}
	if encoding == EncodingConsole {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	config := zap.Config{
		Level:             zap.NewAtomicLevelAt(parseLevel(cfg.Level)),
		Development:       false,
		DisableCaller:     false,
		DisableStacktrace: true,
		Sampling:          nil,
		Encoding:          encoding,
		EncoderConfig:     encoderCfg,
		OutputPaths:       outputs,
		ErrorOutputPaths: []string{
			"stderr",
		},
		InitialFields: map[string]interface{}{
			"pid":     os.Getpid(),
			"service": cfg.ServiceName,
		},
	}

	logger, err := config.Build(zap.AddCaller(), zap.AddCallerSkip(1))
	if err != nil {
		log.Fatal(err)
	}

	return &Logger{
		Zap:            logger,
		tracingEnabled: cfg.EnableTracing,
	}
}

// NewFromZap wraps an existing zap logger. Tests use it with zaptest/observer cores.
func NewFromZap(z *zap.Logger, tracingEnabled bool) *Logger {
	return &Logger{Zap: z.WithOptions(zap.AddCallerSkip(1)), tracingEnabled: tracingEnabled}
}

// Named returns a child logger whose entries carry the given logger name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{Zap: l.Zap.Named(name), tracingEnabled: l.tracingEnabled}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case Debug:
		return zap.DebugLevel
	case Warning, "warn":
		return zap.WarnLevel
	case Error:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
