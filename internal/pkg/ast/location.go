package ast

import "fmt"

// Location points into the source text a declaration or expression was
// read from. Declarations handed to the elaborator by other frontends
// may leave it empty.
type Location struct {
	filePath    string
	fileContent []rune
	start       uint32
	end         uint32
}

func NewLocation(filePath string, content []rune, start uint32, end uint32) Location {
	return Location{
		filePath:    filePath,
		fileContent: content,
		start:       start,
		end:         end,
	}
}

func NewLocationCursor(filePath string, content []rune, cursor uint32) Location {
	return NewLocation(filePath, content, cursor, cursor)
}

func (loc Location) IsEmpty() bool {
	return loc.filePath == ""
}

func (loc Location) EqualsTo(other Location) bool {
	return loc.filePath == other.filePath && loc.start == other.start && loc.end == other.end
}

func (loc Location) FilePath() string {
	return loc.filePath
}

func (loc Location) Text() string {
	if loc.end > uint32(len(loc.fileContent)) {
		return ""
	}
	return string(loc.fileContent[loc.start:loc.end])
}

func (loc Location) CursorString() string {
	if loc.IsEmpty() {
		return ""
	}
	line, col := loc.LineAndColumn()
	return fmt.Sprintf("%s:%d:%d", loc.filePath, line, col)
}

func (loc Location) LineAndColumn() (line, column int) {
	line, column = 1, 1
	for i := uint32(0); i < loc.start && i < uint32(len(loc.fileContent)); i++ {
		if loc.fileContent[i] == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return
}
