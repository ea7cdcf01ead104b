package convert

import (
	"path/filepath"
	"strings"
)

const maxFilenameLen = 128

var invalidFilenameChars = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", "\"", "_",
	"/", "_", "\\", "_", "|", "_", "?", "_", "*", "_",
)

// OutputFilename derives a safe download filename from the uploaded name
// and the output format, replacing the source extension.
func OutputFilename(uploaded, format string) string {
	name := filepath.Base(uploaded)
	name = invalidFilenameChars.Replace(name)
	name = strings.ReplaceAll(name, "..", "_")
	name = strings.TrimSpace(name)

	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	if name == "" || name == "." {
		name = "converted"
	}
	if len(name) > maxFilenameLen {
		name = name[:maxFilenameLen]
	}

	switch strings.ToLower(format) {
	case "txt":
		return name + ".txt"
	case "html":
		return name + ".html"
	default:
		return name + ".docx"
	}
}
