package parleydir

import (
	"fmt"
	"os"
)

// EnsureStructure creates the template override and log directories if they
// are missing. It is safe to call multiple times (idempotent). It creates the
// home root as well, so first runs work without any manual setup.
func EnsureStructure(d Dir) error {
	dirs := []string{
		d.Root(),
		d.SystemTemplatesDir(),
		d.TaskTemplatesDir(),
		d.LogsDir(),
		d.ChatLogsDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("parleydir: create %s: %w", dir, err)
		}
	}

	return nil
}
