package utils

import (
	"bufio"
	"bytes"
	"log/slog"
	"strings"
)

// SentrySlogWriter adapts Sentry's debug log output to a structured logger.
type SentrySlogWriter struct {
	logger *slog.Logger
}

func NewSentrySlogWriter(logger *slog.Logger) *SentrySlogWriter {
	return &SentrySlogWriter{logger: logger}
}

// Write implements io.Writer, forwarding each line to slog at debug level
// with the "[Sentry]" prefix and timestamp stripped.
func (s *SentrySlogWriter) Write(p []byte) (n int, err error) {
	scanner := bufio.NewScanner(bytes.NewReader(p))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "[Sentry]") {
			parts := strings.SplitN(line, " ", 4)
			if len(parts) >= 4 {
				s.logger.Debug(parts[3])
				continue
			}
		}
		s.logger.Debug(line)
	}
	return len(p), nil
}
