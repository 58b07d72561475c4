package logger

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Every call site in this module tags a log line with the FourCC of the
// atom or descriptor it concerns (typ.String()), so the object argument is
// a plain string rather than the arbitrary-value-plus-reflection tag the
// teacher's streaming pipeline needed for its heterogeneous component
// types. Atom parsing is call-and-return, not a sustained per-frame
// pipeline, so log lines are emitted synchronously instead of through a
// buffered worker goroutine.
const tagWidth = 20

func Init(lvl logrus.Level) {
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		FullTimestamp:   true,
		PadLevelText:    true,
		TimestampFormat: "2006/02/01 15:04:05",
	})
}

func tag(typ string) string {
	if len(typ) > tagWidth {
		typ = typ[:tagWidth]
	}
	return fmt.Sprintf("|%*s|", tagWidth, typ)
}

func Trace(typ, message string) {
	if logrus.GetLevel() < logrus.TraceLevel {
		return
	}
	logrus.Trace(tag(typ) + message)
}

func Tracef(typ, message string, args ...any) {
	if logrus.GetLevel() < logrus.TraceLevel {
		return
	}
	logrus.Trace(tag(typ) + fmt.Sprintf(message, args...))
}

func Debug(typ, message string) {
	if logrus.GetLevel() < logrus.DebugLevel {
		return
	}
	logrus.Debug(tag(typ) + message)
}

func Debugf(typ, message string, args ...any) {
	if logrus.GetLevel() < logrus.DebugLevel {
		return
	}
	logrus.Debug(tag(typ) + fmt.Sprintf(message, args...))
}

func Info(typ, message string) {
	if logrus.GetLevel() < logrus.InfoLevel {
		return
	}
	logrus.Info(tag(typ) + message)
}

func Infof(typ, message string, args ...any) {
	if logrus.GetLevel() < logrus.InfoLevel {
		return
	}
	logrus.Info(tag(typ) + fmt.Sprintf(message, args...))
}

func Warning(typ, message string) {
	if logrus.GetLevel() < logrus.WarnLevel {
		return
	}
	logrus.Warning(tag(typ) + message)
}

func Warningf(typ, message string, args ...any) {
	if logrus.GetLevel() < logrus.WarnLevel {
		return
	}
	logrus.Warning(tag(typ) + fmt.Sprintf(message, args...))
}

func Error(typ, message string) {
	if logrus.GetLevel() < logrus.ErrorLevel {
		return
	}
	logrus.Error(tag(typ) + message)
}

func Errorf(typ, message string, args ...any) {
	if logrus.GetLevel() < logrus.ErrorLevel {
		return
	}
	logrus.Error(tag(typ) + fmt.Sprintf(message, args...))
}

func Fatal(typ, message string) {
	logrus.Fatal(tag(typ) + message)
}

func Fatalf(typ, message string, args ...any) {
	logrus.Fatal(tag(typ) + fmt.Sprintf(message, args...))
}
