package logger

import (
	"github.com/sirupsen/logrus"
)

// levelFileHook copies each entry into the file for its level:
// debug and info go to info.log, warnings to warning.log, everything
// more severe to error.log.
type levelFileHook struct {
	sink      *sink
	formatter logrus.Formatter
}

func newLevelFileHook(s *sink) *levelFileHook {
	return &levelFileHook{
		sink:      s,
		formatter: &logrus.TextFormatter{DisableColors: true, FullTimestamp: true},
	}
}

func (h *levelFileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *levelFileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}

	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	f, ok := h.sink.files[fileForLevel(entry.Level)]
	if !ok {
		return nil
	}
	_, err = f.Write(line)
	return err
}

func fileForLevel(level logrus.Level) string {
	switch {
	case level >= logrus.InfoLevel:
		return InfoFile
	case level == logrus.WarnLevel:
		return WarningFile
	default:
		return ErrorFile
	}
}
