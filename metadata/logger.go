package metadata

import "go.uber.org/zap"

// Package logger for diagnostics that are not errors, such as NaN payload
// truncation in the float constant slot. Defaults to a nop logger.
var logger = zap.NewNop()

// SetLogger installs the logger used by the package. Passing nil restores
// the nop logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}
