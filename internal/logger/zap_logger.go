package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ILogger interface {
	Debug(module, message string, details map[string]interface{})
	Info(module, message string, details map[string]interface{})
	Warn(module, message string, details map[string]interface{})
	Error(module, message string, details map[string]interface{})
	Sync() error
}

type ZapLogger struct {
	logger *zap.Logger
}

// Options selects the log file, the minimum level and whether records are
// also written to stdout. The terminal UI keeps console off since it owns stdout.
type Options struct {
	FilePath string
	Level    string
	Console  bool
}

func NewZapLogger(opts Options) *ZapLogger {
	rotator := &lumberjack.Logger{
		Filename:   opts.FilePath,
		MaxSize:    10, // Megabytes
		MaxBackups: 5,
		MaxAge:     30, // Days
		Compress:   true,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.LevelKey = "level"
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	level := parseLevel(opts.Level)
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(rotator), level),
	}
	if opts.Console {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.Lock(os.Stdout),
			level,
		))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1)) // Skip 1 to point to caller of wrapper
	return &ZapLogger{logger: l}
}

// NewNop returns a logger that discards everything; used by tests and library callers.
func NewNop() *ZapLogger {
	return &ZapLogger{logger: zap.NewNop()}
}

func parseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel
	}
	return l
}

func (l *ZapLogger) Debug(module, message string, details map[string]interface{}) {
	l.logger.Debug(message, fields(module, details)...)
}

func (l *ZapLogger) Info(module, message string, details map[string]interface{}) {
	l.logger.Info(message, fields(module, details)...)
}

func (l *ZapLogger) Warn(module, message string, details map[string]interface{}) {
	l.logger.Warn(message, fields(module, details)...)
}

func (l *ZapLogger) Error(module, message string, details map[string]interface{}) {
	fs := fields(module, details)
	if err, ok := details["error"].(error); ok {
		fs = append(fs, zap.Error(err))
	}
	l.logger.Error(message, fs...)
}

// fields flattens errors to their text, since zap would encode them as empty objects inside a map.
func fields(module string, details map[string]interface{}) []zap.Field {
	clean := make(map[string]interface{}, len(details))
	for k, v := range details {
		if err, ok := v.(error); ok {
			clean[k] = err.Error()
			continue
		}
		clean[k] = v
	}
	return []zap.Field{zap.String("module", module), zap.Any("details", clean)}
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}
