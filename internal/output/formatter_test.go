package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatStatus(t *testing.T) {
	t.Parallel()

	require.Contains(t, FormatStatus(true, "committed abc1234", ""), "committed abc1234")

	failed := FormatStatus(false, "branch feature already exists", "ConflictError")
	require.Contains(t, failed, "branch feature already exists")
	require.Contains(t, failed, "ConflictError")
}

func TestFormatList(t *testing.T) {
	t.Parallel()

	out := FormatList([]string{"feature", "main"}, "main")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "  "))
	require.True(t, strings.HasPrefix(lines[1], "* "))
	require.Contains(t, lines[1], "main")
}

func TestFormatDiffLineKeepsText(t *testing.T) {
	t.Parallel()

	for _, line := range []string{"@@ -1,2 +1,3 @@", "+added", "-removed", " context"} {
		require.Contains(t, FormatDiffLine(line), line)
	}
}
