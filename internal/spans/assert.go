package spans

import (
	"fmt"
	"log/slog"
	"strings"
)

// violation reports a broken bookkeeping invariant. Built with the debug
// tag it panics; otherwise it logs and the caller heals the index.
func violation(log *slog.Logger, msg string, args ...any) {
	if debugBuild {
		panic(violationText(msg, args...))
	}
	log.Warn(msg, args...)
}

// violationText formats msg and its key-value args the way the text
// handler would.
func violationText(msg string, args ...any) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	if len(args)%2 == 1 {
		fmt.Fprintf(&b, " %v", args[len(args)-1])
	}
	return b.String()
}

func orDefault(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.Default()
	}
	return log
}
