package utils

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel names a supported logging verbosity.
type LogLevel string

// LogFormat names a supported log output encoding.
type LogFormat string

const (
	// LogLevelDebug enables debug and higher log events.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo enables info and higher log events.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn enables warn and higher log events.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError enables only error log events.
	LogLevelError LogLevel = "error"

	// LogFormatStructured emits JSON log lines for machine consumption.
	LogFormatStructured LogFormat = "structured"
	// LogFormatConsole emits human-readable log lines.
	LogFormatConsole LogFormat = "console"

	unsupportedLogLevelTemplateConstant  = "unsupported log level %q"
	unsupportedLogFormatTemplateConstant = "unsupported log format %q"
)

// LoggerOutputs bundles the diagnostic logger with the console logger used
// for user-facing event lines. In structured mode the console logger is a
// no-op so that stderr stays machine-parseable.
type LoggerOutputs struct {
	DiagnosticLogger *zap.Logger
	ConsoleLogger    *zap.Logger
}

// LoggerFactory builds zap loggers for the requested level and format.
type LoggerFactory struct{}

// NewLoggerFactory constructs a LoggerFactory instance.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// CreateLoggerOutputs builds the diagnostic and console loggers writing to
// standard error.
func (factory *LoggerFactory) CreateLoggerOutputs(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (LoggerOutputs, error) {
	zapLevel, levelError := resolveZapLevel(requestedLogLevel)
	if levelError != nil {
		return LoggerOutputs{}, levelError
	}

	encoderConfiguration := zap.NewProductionEncoderConfig()
	encoderConfiguration.TimeKey = "timestamp"
	encoderConfiguration.EncodeTime = zapcore.ISO8601TimeEncoder

	writeSyncer := zapcore.Lock(zapcore.AddSync(os.Stderr))

	switch requestedLogFormat {
	case LogFormatStructured:
		structuredCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfiguration), writeSyncer, zapLevel)
		return LoggerOutputs{
			DiagnosticLogger: zap.New(structuredCore),
			ConsoleLogger:    zap.NewNop(),
		}, nil
	case LogFormatConsole:
		consoleEncoderConfiguration := zap.NewDevelopmentEncoderConfig()
		consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfiguration), writeSyncer, zapLevel)
		return LoggerOutputs{
			DiagnosticLogger: zap.New(consoleCore),
			ConsoleLogger:    zap.New(consoleCore),
		}, nil
	default:
		return LoggerOutputs{}, fmt.Errorf(unsupportedLogFormatTemplateConstant, requestedLogFormat)
	}
}

func resolveZapLevel(requestedLogLevel LogLevel) (zapcore.Level, error) {
	switch requestedLogLevel {
	case LogLevelDebug:
		return zapcore.DebugLevel, nil
	case LogLevelInfo:
		return zapcore.InfoLevel, nil
	case LogLevelWarn:
		return zapcore.WarnLevel, nil
	case LogLevelError:
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InvalidLevel, fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}
}
