package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenBrowserRejectsNonWebSchemes(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"file:///etc/passwd", "javascript:alert(1)", "ssh://github.com/x"} {
		err := OpenBrowser(raw)
		require.Error(t, err, raw)
		require.Contains(t, err.Error(), "refusing")
	}
}
