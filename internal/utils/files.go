package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	// DirectoryPermissions is used for directories created by sdmap.
	DirectoryPermissions os.FileMode = 0o755
	// FilePermissions is used for files written by sdmap.
	FilePermissions os.FileMode = 0o644

	temporaryFilePatternFormat = ".%s.tmp-*"
	errorCreateDirectoryFormat = "create directory %s: %w"
	errorCreateTemporaryFormat = "create temporary file for %s: %w"
	errorWriteTemporaryFormat  = "write %s: %w"
	errorFinalizeFormat        = "finalize %s: %w"
)

// WriteFileAtomically streams reader into destinationPath through a temporary file in the
// same directory, renaming it into place only after a complete write. Missing parent
// directories are created. On failure the destination is left untouched.
func WriteFileAtomically(destinationPath string, reader io.Reader) (int64, error) {
	destinationDirectory := filepath.Dir(destinationPath)
	if err := os.MkdirAll(destinationDirectory, DirectoryPermissions); err != nil {
		return 0, fmt.Errorf(errorCreateDirectoryFormat, destinationDirectory, err)
	}
	temporaryFile, createError := os.CreateTemp(destinationDirectory, fmt.Sprintf(temporaryFilePatternFormat, filepath.Base(destinationPath)))
	if createError != nil {
		return 0, fmt.Errorf(errorCreateTemporaryFormat, destinationPath, createError)
	}
	temporaryPath := temporaryFile.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(temporaryPath)
		}
	}()

	writtenBytes, copyError := io.Copy(temporaryFile, reader)
	closeError := temporaryFile.Close()
	if copyError != nil {
		return writtenBytes, fmt.Errorf(errorWriteTemporaryFormat, destinationPath, copyError)
	}
	if closeError != nil {
		return writtenBytes, fmt.Errorf(errorWriteTemporaryFormat, destinationPath, closeError)
	}
	if err := os.Chmod(temporaryPath, FilePermissions); err != nil {
		return writtenBytes, fmt.Errorf(errorFinalizeFormat, destinationPath, err)
	}
	if err := os.Rename(temporaryPath, destinationPath); err != nil {
		return writtenBytes, fmt.Errorf(errorFinalizeFormat, destinationPath, err)
	}
	committed = true
	return writtenBytes, nil
}

// FileExists reports whether path names an existing filesystem entry.
func FileExists(path string) bool {
	_, statError := os.Stat(path)
	return statError == nil
}
