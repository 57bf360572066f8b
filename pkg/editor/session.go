package editor

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/vanderheijden86/tododb/pkg/model"
)

// ResolveEditor picks the editor command: the configured one, then
// $VISUAL, then $EDITOR, then vi.
func ResolveEditor(configured string) string {
	for _, c := range []string{configured, os.Getenv("VISUAL"), os.Getenv("EDITOR")} {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return "vi"
}

// Session is one round trip through the editor for a single todo.
type Session struct {
	Todo     model.Todo
	Path     string
	original []byte
}

// Prepare writes td to a temporary markdown file.
func Prepare(td model.Todo, parentTitle string) (*Session, error) {
	data, err := Render(td, parentTitle)
	if err != nil {
		return nil, err
	}
	f, err := os.CreateTemp("", fmt.Sprintf("tododb-%d-*.md", td.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	return &Session{Todo: td, Path: f.Name(), original: data}, nil
}

// Command builds the editor process. It goes through sh -c so commands
// with flags ("code --wait") work.
func (s *Session) Command(editorCmd string) *exec.Cmd {
	return exec.Command("sh", "-c", editorCmd+" "+shellQuote(s.Path))
}

// Result reads the file back. changed is false when the file is untouched
// or emptied (editor quit without saving) or when the parsed values equal
// the todo.
func (s *Session) Result() (Edit, bool, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return Edit{}, false, fmt.Errorf("failed to read edited file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(data, s.original) {
		return Edit{}, false, nil
	}
	e, err := Parse(data)
	if err != nil {
		return Edit{}, false, fmt.Errorf("%w (keeping original)", err)
	}
	return e, e.Changed(s.Todo), nil
}

// Cleanup removes the temporary file.
func (s *Session) Cleanup() {
	os.Remove(s.Path)
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
