// Package validation provides checks applied before riotts hands user-supplied
// values to external processes or the file system.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateArgument validates a command line argument to prevent injection attacks.
// Absolute paths are allowed because the linter is invoked with config and
// component paths resolved against the working directory.
func ValidateArgument(arg string) error {
	if strings.ContainsRune(arg, 0) {
		return fmt.Errorf("contains null byte")
	}

	// Shell metacharacters that could be used for command injection
	dangerous := []string{";", "&", "|", "$", "`", "<", ">", "\n", "\r"}
	for _, char := range dangerous {
		if strings.Contains(arg, char) {
			return fmt.Errorf("contains dangerous character: %q", char)
		}
	}

	return nil
}

// ValidateCommand validates a command name against an allowlist.
// The allowlist is matched on the command's base name so "/usr/local/bin/eslint"
// and "eslint" are treated the same.
func ValidateCommand(command string, allowedCommands map[string]bool) error {
	if command == "" {
		return fmt.Errorf("command cannot be empty")
	}

	if err := ValidateArgument(command); err != nil {
		return fmt.Errorf("invalid command '%s': %w", command, err)
	}

	base := filepath.Base(command)
	if !allowedCommands[base] {
		return fmt.Errorf("command '%s' is not allowed", command)
	}

	return nil
}

// ValidatePath validates a configured file path.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if err := ValidateArgument(path); err != nil {
		return fmt.Errorf("invalid path '%s': %w", path, err)
	}

	return nil
}

// ValidateFileExtension validates file extensions against an allowlist
func ValidateFileExtension(filename string, allowedExtensions []string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return fmt.Errorf("file must have an extension")
	}

	for _, allowed := range allowedExtensions {
		if ext == strings.ToLower(allowed) {
			return nil
		}
	}

	return fmt.Errorf("file extension '%s' is not allowed", ext)
}
