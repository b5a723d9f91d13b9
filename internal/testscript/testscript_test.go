package testscript

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-quicktest/qt"
)

func TestScenarios(t *testing.T) {
	matches, err := filepath.Glob("testdata/*.txtar")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Not(qt.HasLen(matches, 0)))

	for _, path := range matches {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			data, err := os.ReadFile(path)
			qt.Assert(t, qt.IsNil(err))

			tc, err := Load(filepath.Base(path), data)
			qt.Assert(t, qt.IsNil(err))

			qt.Assert(t, qt.IsNil(Run(tc)))
		})
	}
}
