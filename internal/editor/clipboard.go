package editor

import (
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
)

type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// SystemClipboard talks to the OS clipboard. On macOS it asks pbpaste for
// plain text first so rich copies do not arrive as RTF.
type SystemClipboard struct{}

func (SystemClipboard) ReadAll() (string, error) {
	if runtime.GOOS == "darwin" {
		if out, err := exec.Command("pbpaste", "-Prefer", "txt").Output(); err == nil {
			return string(out), nil
		}
	}
	return clipboard.ReadAll()
}

func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// CleanPasted reduces clipboard content to plain text: RTF and HTML markup
// are stripped, control characters dropped and line endings normalized.
func CleanPasted(text string) string {
	switch {
	case text == "":
		return ""
	case looksRTF(text):
		text = plainFromRTF(text)
	case looksHTML(text):
		text = plainFromHTML(text)
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\r' || r == '\t' || r >= 32 {
			b.WriteRune(r)
		}
	}
	out := strings.ReplaceAll(b.String(), "\r\n", "\n")
	out = strings.ReplaceAll(out, "\r", "\n")
	return strings.TrimSpace(out)
}

func looksRTF(text string) bool {
	return strings.HasPrefix(text, `{\rtf`) || strings.Contains(text, `\rtf1`)
}

func looksHTML(text string) bool {
	t := strings.TrimSpace(text)
	return strings.HasPrefix(t, "<") &&
		(strings.Contains(t, "<html") || strings.Contains(t, "<body") || strings.Contains(t, "<div") || strings.Contains(t, "<p"))
}

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

// plainFromRTF keeps literal text and hex escapes, turns \par and \line into
// newlines and \tab into a tab, and drops every other control word.
func plainFromRTF(rtf string) string {
	var b strings.Builder
	b.Grow(len(rtf))
	for i := 0; i < len(rtf); i++ {
		c := rtf[i]
		switch {
		case c == '{' || c == '}':
			continue
		case c != '\\':
			if c >= 32 && c < 127 || c == '\n' || c == '\t' {
				b.WriteByte(c)
			}
			continue
		case i+1 >= len(rtf):
			continue
		}

		next := rtf[i+1]
		switch {
		case next == '\'' && i+3 < len(rtf):
			if v, err := strconv.ParseUint(rtf[i+2:i+4], 16, 8); err == nil {
				b.WriteByte(byte(v))
			}
			i += 3
		case next == '\\' || next == '{' || next == '}':
			b.WriteByte(next)
			i++
		case next == '~' || next == '_':
			b.WriteByte(' ')
			i++
		case isLetter(next):
			start := i + 1
			for i+1 < len(rtf) && isLetter(rtf[i+1]) {
				i++
			}
			word := rtf[start : i+1]
			for i+1 < len(rtf) && (rtf[i+1] == '-' || rtf[i+1] >= '0' && rtf[i+1] <= '9') {
				i++
			}
			if i+1 < len(rtf) && rtf[i+1] == ' ' {
				i++
			}
			switch word {
			case "par", "line":
				b.WriteByte('\n')
			case "tab":
				b.WriteByte('\t')
			}
		default:
			i++
		}
	}
	return b.String()
}

var htmlEntities = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
	"&amp;", "&",
)

func plainFromHTML(html string) string {
	var b strings.Builder
	b.Grow(len(html))
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return htmlEntities.Replace(b.String())
}
