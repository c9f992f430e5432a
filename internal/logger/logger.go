package logger

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// encoderConfig is the JSON field layout shared by every logger in this module
func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func level(debugMode bool, quiet zapcore.Level) zap.AtomicLevel {
	if debugMode {
		return zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zap.NewAtomicLevelAt(quiet)
}

// NewProductionLogger builds the JSON logger used by the server and worker processes
func NewProductionLogger(debugMode bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = level(debugMode, zapcore.InfoLevel)
	config.Encoding = "json"
	config.EncoderConfig = encoderConfig()
	return config.Build()
}

// NewCLILogger writes JSON entries to w. Below debug mode only warnings and
// errors are emitted so a successful run leaves w empty.
func NewCLILogger(debugMode bool, w io.Writer) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.AddSync(w),
		level(debugMode, zapcore.WarnLevel),
	)
	return zap.New(core, zap.AddCaller())
}

// Sync flushes buffered entries; a nil logger is ignored
func Sync(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	return logger.Sync()
}
