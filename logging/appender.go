package logging

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap/zapcore"
)

// TimeFormat is the timestamp layout of console and test output.
const TimeFormat = "2006-01-02T15:04:05.000Z0700"

// Appender receives every entry a logger writes. Any zapcore.Core satisfies it, which is how the
// observer core is attached in tests.
type Appender interface {
	Write(zapcore.Entry, []zapcore.Field) error
	Sync() error
}

// ConsoleAppender writes one tab separated line per entry: time, level, logger name, caller, message
// and the structured fields as a json object.
type ConsoleAppender struct {
	mu sync.Mutex
	w  io.Writer
}

// NewStdoutAppender returns a ConsoleAppender on stdout.
func NewStdoutAppender() Appender {
	return NewWriterAppender(os.Stdout)
}

// NewWriterAppender returns a ConsoleAppender on w.
func NewWriterAppender(w io.Writer) Appender {
	return &ConsoleAppender{w: w}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  zapcore.OmitKey,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout(TimeFormat),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func (ca *ConsoleAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	buf, err := zapcore.NewConsoleEncoder(encoderConfig()).EncodeEntry(entry, fields)
	if err != nil {
		return err
	}
	defer buf.Free()

	ca.mu.Lock()
	defer ca.mu.Unlock()
	_, err = ca.w.Write(buf.Bytes())
	return err
}

// Sync flushes the underlying writer when it is a file.
func (ca *ConsoleAppender) Sync() error {
	if f, ok := ca.w.(*os.File); ok && f != os.Stdout && f != os.Stderr {
		return f.Sync()
	}
	return nil
}
