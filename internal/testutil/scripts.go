// Package testutil provides shared test helpers for Lox tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Script is a Lox test program with expectations embedded in comments.
//
// A line containing "// expect: text" records one line of expected print
// output. A line containing "// expect-error: E_CODE" records the
// diagnostic or runtime error code the program must fail with.
type Script struct {
	Name   string
	Path   string
	Source string

	ExpectedOut   []string
	ExpectedError string
}

const (
	expectMarker      = "// expect: "
	expectErrorMarker = "// expect-error: "
)

// LoadScripts reads every .lox file under dir and parses its expectation
// markers.
func LoadScripts(dir string) ([]Script, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.lox"))
	if err != nil {
		return nil, err
	}

	scripts := make([]Script, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		source := string(data)

		script := Script{
			Name:   strings.TrimSuffix(filepath.Base(path), ".lox"),
			Path:   path,
			Source: source,
		}
		for _, line := range strings.Split(source, "\n") {
			if idx := strings.Index(line, expectErrorMarker); idx >= 0 {
				script.ExpectedError = strings.TrimSpace(line[idx+len(expectErrorMarker):])
				continue
			}
			if idx := strings.Index(line, expectMarker); idx >= 0 {
				script.ExpectedOut = append(script.ExpectedOut, line[idx+len(expectMarker):])
			}
		}
		scripts = append(scripts, script)
	}
	return scripts, nil
}
