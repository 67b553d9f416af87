package edit

import (
	"fmt"
	"os"
)

// checkFileSize verifies that the file at path holds at least need bytes.
func checkFileSize(path string, need uint64) error {
	if path == "" {
		return errorf(ErrNoFilename, "set the file name first")
	}
	fi, err := os.Stat(path)
	if err != nil {
		return &Error{Msg: fmt.Sprintf("cannot get status of file %s", path), Err: err}
	}
	if uint64(fi.Size()) < need {
		return errorf(ErrFileTooSmall, "%s holds %d bytes, need %d", path, fi.Size(), need)
	}
	return nil
}

// askFilename asks the user interface for a file name. ok is false when no
// file chooser is registered; the file name mode then does nothing.
func (s *Session) askFilename() (name string, ok bool, err error) {
	if s.Callbacks.GetFilename == nil {
		return "", false, nil
	}
	name = s.Callbacks.GetFilename()
	if name == "" {
		return "", false, errorf(ErrNoFilename, "file selection cancelled")
	}
	return name, true, nil
}

// dimension converts a typed count to a positive integer.
func dimension(what string, v float64) (uint32, error) {
	if v < 1 {
		return 0, errorf(ErrNonPositive, "%s %g", what, v)
	}
	if v != float64(uint32(v)) {
		return 0, errorf(ErrOutOfRange, "%s %g is not a whole number", what, v)
	}
	return uint32(v), nil
}
