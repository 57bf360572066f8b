// Package editor hands a todo to an external editor as a markdown file and
// reads the edits back.
//
// The file carries TOML front matter between "+++" lines, then the title as
// a level-one heading and the description under "## Description":
//
//	+++
//	id = 12
//	completed = false
//	hidden = false
//	+++
//	# Setup React Native development environment
//
//	## Description
//
//	Xcode, Android Studio, Watchman and the RN CLI.
package editor

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/vanderheijden86/tododb/pkg/model"
)

const (
	frontMatterDelim   = "+++"
	descriptionHeading = "## Description"
	noDescription      = "(No description)"
)

// ErrNoTitle is returned when the edited document has no "# " heading or an empty one.
var ErrNoTitle = errors.New("edited document has no title heading")

// frontMatter is the metadata block. id, parent and timestamps are shown
// for reference; completed and hidden are honored when changed.
type frontMatter struct {
	ID        int64      `toml:"id"`
	ParentID  *int64     `toml:"parent_id,omitempty"`
	Parent    string     `toml:"parent,omitempty"`
	Completed bool       `toml:"completed"`
	Hidden    bool       `toml:"hidden"`
	CreatedAt time.Time  `toml:"created_at"`
	UpdatedAt time.Time  `toml:"updated_at"`
	DueBy     *time.Time `toml:"due_by,omitempty"`
}

// Edit is what came back from the editor. Completed and Hidden are only
// meaningful when HasMeta is set; without front matter the flags are unknown.
type Edit struct {
	Title       string
	Description string
	Completed   bool
	Hidden      bool
	HasMeta     bool
}

// Render writes the document for td. parentTitle is informational and may be empty.
func Render(td model.Todo, parentTitle string) ([]byte, error) {
	fm := frontMatter{
		ID:        td.ID,
		ParentID:  td.ParentID,
		Parent:    parentTitle,
		Completed: td.IsCompleted(),
		Hidden:    td.Hidden,
		CreatedAt: td.CreatedAt.UTC(),
		UpdatedAt: td.UpdatedAt.UTC(),
		DueBy:     td.DueBy,
	}

	var buf bytes.Buffer
	buf.WriteString(frontMatterDelim + "\n")
	if err := toml.NewEncoder(&buf).Encode(fm); err != nil {
		return nil, fmt.Errorf("encode front matter: %w", err)
	}
	buf.WriteString(frontMatterDelim + "\n")

	desc := strings.TrimSpace(td.Description)
	if desc == "" {
		desc = noDescription
	}
	fmt.Fprintf(&buf, "# %s\n\n%s\n\n%s\n", td.Title, descriptionHeading, desc)
	return buf.Bytes(), nil
}

// Parse reads a document produced by Render and edited by the user. A
// missing front matter block is tolerated and leaves HasMeta unset. The
// description runs from "## Description" to the end of the document, so it
// may carry headings of its own.
func Parse(data []byte) (Edit, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	var fm frontMatter
	hasMeta := false
	body := text
	if strings.HasPrefix(text, frontMatterDelim+"\n") {
		rest := text[len(frontMatterDelim)+1:]
		end := strings.Index(rest, "\n"+frontMatterDelim+"\n")
		if end >= 0 {
			if err := toml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
				return Edit{}, fmt.Errorf("parse front matter: %w", err)
			}
			body = rest[end+len(frontMatterDelim)+2:]
			hasMeta = true
		}
	}

	e := Edit{Completed: fm.Completed, Hidden: fm.Hidden, HasMeta: hasMeta}
	lines := strings.Split(body, "\n")

	titleAt := -1
	for i, l := range lines {
		if strings.HasPrefix(l, "# ") {
			e.Title = strings.TrimSpace(strings.TrimPrefix(l, "# "))
			titleAt = i
			break
		}
	}
	if titleAt < 0 || e.Title == "" {
		return Edit{}, ErrNoTitle
	}

	rest := lines[titleAt+1:]
	descStart := 0
	for i, l := range rest {
		if strings.TrimSpace(l) == descriptionHeading {
			descStart = i + 1
			break
		}
	}
	e.Description = strings.TrimSpace(strings.Join(rest[descStart:], "\n"))
	if e.Description == noDescription {
		e.Description = ""
	}
	return e, nil
}

// Changed reports whether e differs from td. Flags count only when the
// front matter came back.
func (e Edit) Changed(td model.Todo) bool {
	if e.Title != td.Title || e.Description != strings.TrimSpace(td.Description) {
		return true
	}
	return e.HasMeta && (e.Completed != td.IsCompleted() || e.Hidden != td.Hidden)
}
