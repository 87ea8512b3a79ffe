package repo

import (
	"os"

	"github.com/grit-scm/grit/pkg/object"
)

// Index entry modes. The index stores the Git file mode as a uint32;
// trees store the same value as an octal string.
const (
	indexModeFile       = 0o100644
	indexModeExecutable = 0o100755
)

func indexModeFromFileInfo(info os.FileInfo) uint32 {
	if info.Mode()&0o111 != 0 {
		return indexModeExecutable
	}
	return indexModeFile
}

func treeModeFromIndexMode(mode uint32) string {
	if mode == indexModeExecutable {
		return object.TreeModeExecutable
	}
	return object.TreeModeFile
}

func indexModeFromTreeMode(mode string) uint32 {
	if mode == object.TreeModeExecutable {
		return indexModeExecutable
	}
	return indexModeFile
}

func filePermFromTreeMode(mode string) os.FileMode {
	if mode == object.TreeModeExecutable {
		return 0o755
	}
	return 0o644
}
