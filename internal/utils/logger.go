package utils

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewApplicationLogger constructs a zap logger that writes human-readable
// console output to stderr, keeping stdout free for exported payloads.
func NewApplicationLogger() (*zap.Logger, error) {
	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Encoding = "console"
	loggerConfig.DisableCaller = true
	loggerConfig.DisableStacktrace = true
	loggerConfig.OutputPaths = []string{"stderr"}
	loggerConfig.ErrorOutputPaths = []string{"stderr"}
	loggerConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	loggerConfig.EncoderConfig.TimeKey = ""
	loggerConfig.EncoderConfig.LevelKey = ""
	loggerConfig.EncoderConfig.NameKey = ""
	loggerConfig.EncoderConfig.CallerKey = ""
	loggerConfig.EncoderConfig.MessageKey = "message"
	loggerConfig.EncoderConfig.StacktraceKey = ""
	return loggerConfig.Build()
}
