package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternStar(t *testing.T) {
	p, err := compilePattern("*.log")
	require.NoError(t, err)

	assert.True(t, p.match("C:", "app.log", false))
	assert.True(t, p.match("C:", "dir/app.log", false))
	assert.False(t, p.match("C:", "app.log.bak", false))
	assert.False(t, p.match("C:", "app.txt", false))
}

func TestPatternCaseInsensitive(t *testing.T) {
	p, err := compilePattern("Thumbs.db")
	require.NoError(t, err)

	assert.True(t, p.match("C:", "pics/thumbs.DB", false))
}

func TestPatternDoubleStar(t *testing.T) {
	p, err := compilePattern("**/*.go")
	require.NoError(t, err)

	assert.True(t, p.match("C:", "main.go", false))
	assert.True(t, p.match("C:", "cmd/ffd/main.go", false))
	assert.False(t, p.match("C:", "main.txt", false))
}

func TestPatternAnchored(t *testing.T) {
	p, err := compilePattern("/pagefile.sys")
	require.NoError(t, err)

	assert.True(t, p.match("C:", "pagefile.sys", false))
	assert.False(t, p.match("C:", "backup/pagefile.sys", false))
}

func TestPatternDirOnly(t *testing.T) {
	p, err := compilePattern("build/")
	require.NoError(t, err)

	assert.True(t, p.match("C:", "build", true))
	assert.True(t, p.match("C:", "sub/build", true))
	assert.False(t, p.match("C:", "build", false))
}

func TestPatternQuestion(t *testing.T) {
	p, err := compilePattern("file?.txt")
	require.NoError(t, err)

	assert.True(t, p.match("C:", "file1.txt", false))
	assert.False(t, p.match("C:", "file12.txt", false))
	assert.False(t, p.match("C:", "file/.txt", false)) // ? does not match /
}

func TestPatternCharClass(t *testing.T) {
	p, err := compilePattern("report[!0-9].doc")
	require.NoError(t, err)
	assert.True(t, p.match("C:", "reportA.doc", false))
	assert.False(t, p.match("C:", "report1.doc", false))

	// Unterminated class is literal.
	p, err = compilePattern("a[b")
	require.NoError(t, err)
	assert.True(t, p.match("C:", "a[b", false))
}

func TestPatternDrive(t *testing.T) {
	p, err := compilePattern(`E:\backup\`)
	require.NoError(t, err)

	assert.Equal(t, "E:", p.volume)
	assert.True(t, p.match("e:", "backup", true))
	assert.False(t, p.match("C:", "backup", true))
	assert.False(t, p.match("E:", "old/backup", true), "drive patterns are anchored")
}

func TestPatternContainingSlash(t *testing.T) {
	// Pattern containing / but not leading / is anchored per rsync.
	p, err := compilePattern("sub/dir/*.txt")
	require.NoError(t, err)

	assert.True(t, p.match("C:", "sub/dir/file.txt", false))
	assert.False(t, p.match("C:", "other/sub/dir/file.txt", false))
}
