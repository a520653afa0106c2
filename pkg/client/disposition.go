package client

import "regexp"

// DefaultFilename is used when the server suggests no filename.
const DefaultFilename = "downloaded_file"

var filenamePattern = regexp.MustCompile(`filename="?([^"]+)"?`)

// ParseFilename extracts the filename from a Content-Disposition value.
func ParseFilename(contentDisposition string) (string, bool) {
	if contentDisposition == "" {
		return "", false
	}
	m := filenamePattern.FindStringSubmatch(contentDisposition)
	if len(m) != 2 || m[1] == "" {
		return "", false
	}
	return m[1], true
}

// FilenameFromDisposition is ParseFilename with DefaultFilename as fallback.
func FilenameFromDisposition(contentDisposition string) string {
	if name, ok := ParseFilename(contentDisposition); ok {
		return name
	}
	return DefaultFilename
}
