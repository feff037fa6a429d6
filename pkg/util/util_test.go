package util

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUtil(t *testing.T) {
	t.Run("ReplaceEnvVariables()", testReplaceEnvVariablesFunc())
	t.Run("MkDirAllInheritPerm()", testMkDirAllInheritPermFunc())
	t.Run("MarshalAndPrintTable()", testMarshalAndPrintTableFunc())
	t.Run("MarshalAndPrintTable() -- Should keep quoted commas in one cell", testMarshalAndPrintTableQuotedFunc())
	t.Run("IsServerHealthy()", testIsServerHealthyFunc())
}

// Tests "IsServerHealthy()"
func testIsServerHealthyFunc() func(*testing.T) {
	return func(t *testing.T) {
		healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "ok")
		}))
		defer healthy.Close()
		assert.NoError(t, IsServerHealthy(healthy.URL, healthy.Client()))

		unhealthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer unhealthy.Close()
		assert.Error(t, IsServerHealthy(unhealthy.URL, unhealthy.Client()))
	}
}

// Tests "ReplaceEnvVariables()"
func testReplaceEnvVariablesFunc() func(*testing.T) {
	return func(t *testing.T) {
		t.Setenv("PLASMAGYM_TEST_FOLDER", "/data/videos")

		actual := ReplaceEnvVariables("folder: ${PLASMAGYM_TEST_FOLDER}\nother: PLASMAGYM_TEST_FOLDER/x\n", "PLASMAGYM_")
		assert.Equal(t, "folder: /data/videos\nother: /data/videos/x\n", actual)

		unchanged := ReplaceEnvVariables("folder: ${OTHER_VAR}", "PLASMAGYM_")
		assert.Equal(t, "folder: ${OTHER_VAR}", unchanged)
	}
}

// Tests "MkDirAllInheritPerm()"
func testMkDirAllInheritPermFunc() func(*testing.T) {
	return func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.Chmod(root, 0750))

		path := filepath.Join(root, "a", "b")
		require.NoError(t, MkDirAllInheritPerm(path))

		stat, err := os.Stat(path)
		require.NoError(t, err)
		assert.True(t, stat.IsDir())
	}
}

type row struct {
	Episode int     `csv:"episode"`
	Score   float64 `csv:"score"`
}

// Tests "MarshalAndPrintTable()"
func testMarshalAndPrintTableFunc() func(*testing.T) {
	return func(t *testing.T) {
		var buf bytes.Buffer
		err := MarshalAndPrintTable(&buf, []row{{Episode: 0, Score: 1.5}})
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "EPISODE")
		assert.Contains(t, buf.String(), "1.5")
	}
}

type outcomeRow struct {
	Episode int    `csv:"episode"`
	Outcome string `csv:"outcome"`
	Video   string `csv:"video"`
}

// Tests "MarshalAndPrintTable()" with values that need CSV quoting
func testMarshalAndPrintTableQuotedFunc() func(*testing.T) {
	return func(t *testing.T) {
		var buf bytes.Buffer
		err := MarshalAndPrintTable(&buf, []outcomeRow{{Episode: 1, Outcome: "beta_N, q95", Video: "v.gif"}})
		require.NoError(t, err)

		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[1], "beta_N, q95")
		assert.NotContains(t, lines[1], `"`)
		assert.Len(t, strings.Fields(lines[0]), 3)
	}
}
