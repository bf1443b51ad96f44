package tui

import (
	"bufio"
	"os"
	"strings"
)

const (
	defaultExportWidth  = 80
	defaultExportHeight = 24
)

// exportVisualTXT writes the visible part of the board as plain text,
// without the cursor, selection marks or trailing blanks.
func (m *model) exportVisualTXT(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	v := *m
	if v.width < 1 {
		v.width = defaultExportWidth
	}
	if v.height < 2 {
		v.height = defaultExportHeight + 1
	}

	w := bufio.NewWriter(file)
	for _, line := range v.renderGrid(false).Lines() {
		if _, err := w.WriteString(strings.TrimRight(line, " ") + "\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}
