package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"atscore/internal/errors"
	"atscore/internal/utils"
)

// FileProcessor handles the CLI's file reads and writes
type FileProcessor struct {
	logger *errors.Logger
}

// NewFileProcessor creates a new file processor instance
func NewFileProcessor(logger *errors.Logger) *FileProcessor {
	return &FileProcessor{logger: errors.OrNop(logger)}
}

// ReadFile reads a text file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	if err := utils.ValidateInputFile(filename); err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotFound,
			fmt.Sprintf("Invalid file %s", filename), err)
	}

	file, err := os.Open(filename)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}

	return string(content), nil
}

// ValidateResumeFile checks that a resume path exists and has an extension
// the extractor understands. The extractor does the actual reading.
func (fp *FileProcessor) ValidateResumeFile(filename string) error {
	if err := utils.ValidateInputFile(filename); err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotFound,
			fmt.Sprintf("Invalid resume file %s", filename), err)
	}
	if !utils.IsSupportedResume(filename) {
		return errors.NewValidationError(errors.ErrCodeUnsupportedFileType,
			fmt.Sprintf("unsupported resume file type %q (use .pdf, .docx, .txt or .md)",
				utils.GetFileExtension(filename)), nil)
	}
	if info, err := os.Stat(filename); err == nil {
		fp.logger.Debug("Resume file accepted", "filename", filename, "size", utils.FormatFileSize(info.Size()))
	}
	return nil
}

// ReadOptionalText reads filename, returning nil when no file was named
func (fp *FileProcessor) ReadOptionalText(filename string) (*string, error) {
	if filename == "" {
		return nil, nil
	}
	if !utils.IsTextFile(filename) {
		fp.logger.Warn("File may not be a text file", "filename", filename)
	}
	content, err := fp.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return &content, nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
