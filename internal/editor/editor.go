// Package editor opens provider definition files in the user's editor.
package editor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

var fallbackEditors = []string{"nvim", "vim", "vi", "nano"}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// Command returns the editor command line split into arguments.
// $VISUAL wins over $EDITOR; without either the first fallback found on
// PATH is used. Values like "code --wait" keep their flags.
func Command() ([]string, error) {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if fields := strings.Fields(os.Getenv(env)); len(fields) > 0 {
			return fields, nil
		}
	}
	for _, ed := range fallbackEditors {
		if path, err := lookPath(ed); err == nil {
			return []string{path}, nil
		}
	}
	return nil, fmt.Errorf("no editor found: set $EDITOR environment variable")
}

// Open edits filePath in the foreground with the terminal attached.
func Open(ctx context.Context, filePath string) error {
	args, err := Command()
	if err != nil {
		return err
	}
	args = append(args, filePath)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run editor %s: %w", args[0], err)
	}
	return nil
}
