package log

import (
	"gopkg.in/Sirupsen/logrus.v0"
)

// Entry is a printf-style log entry. Formatting only happens when the
// module is enabled at the requested level.
type Entry struct {
	mod Module
}

func (entry Entry) log() *logrus.Entry {
	var z EntryZ
	addContexts(&z)

	fields := make(logrus.Fields, z.zfidx+1)
	fields["_mod"] = entry.mod.String()
	for i := range z.zfbuf[:z.zfidx] {
		fields[z.zfbuf[i].Key] = z.zfbuf[i].Value()
	}
	return logrus.StandardLogger().WithFields(fields)
}

func (entry Entry) logf(lvl Level, format string, args ...any) {
	if !entry.mod.Enabled(lvl) {
		return
	}
	e := entry.log()
	switch lvl {
	case DebugLevel:
		e.Debugf(format, args...)
	case InfoLevel:
		e.Infof(format, args...)
	case WarnLevel:
		e.Warnf(format, args...)
	case ErrorLevel:
		e.Errorf(format, args...)
	case FatalLevel:
		e.Fatalf(format, args...)
	}
}

func (entry Entry) Debugf(format string, args ...any) { entry.logf(DebugLevel, format, args...) }
func (entry Entry) Infof(format string, args ...any)  { entry.logf(InfoLevel, format, args...) }
func (entry Entry) Warnf(format string, args ...any)  { entry.logf(WarnLevel, format, args...) }
func (entry Entry) Errorf(format string, args ...any) { entry.logf(ErrorLevel, format, args...) }
func (entry Entry) Fatalf(format string, args ...any) { entry.logf(FatalLevel, format, args...) }
