package docindex

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

var fenceYAML = []byte("---")

// SplitFrontmatter separates a leading "---" delimited YAML block from the
// markdown body. Documents without one return a nil Frontmatter and the
// content unchanged.
func SplitFrontmatter(content []byte) (Frontmatter, []byte, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if !bytes.HasPrefix(content, fenceYAML) {
		return nil, content, nil
	}
	firstNL := bytes.IndexByte(content, '\n')
	if firstNL < 0 || len(bytes.TrimSpace(content[:firstNL])) != len(fenceYAML) {
		return nil, content, nil
	}

	rest := content[firstNL+1:]
	end, next := closingFence(rest)
	if end < 0 {
		return nil, content, nil
	}

	var fm Frontmatter
	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return nil, rest[next:], fmt.Errorf("parsing frontmatter: %w", err)
	}
	return fm, rest[next:], nil
}

// closingFence finds a line consisting of "---" or "...". It returns the
// offset where the line starts and the offset just past it.
func closingFence(b []byte) (int, int) {
	offset := 0
	for offset <= len(b) {
		lineEnd := bytes.IndexByte(b[offset:], '\n')
		var line []byte
		next := len(b)
		if lineEnd >= 0 {
			line = b[offset : offset+lineEnd]
			next = offset + lineEnd + 1
		} else {
			line = b[offset:]
		}
		trimmed := bytes.TrimRight(line, " \t\r")
		if bytes.Equal(trimmed, fenceYAML) || bytes.Equal(trimmed, []byte("...")) {
			return offset, next
		}
		if lineEnd < 0 {
			break
		}
		offset = next
	}
	return -1, -1
}
