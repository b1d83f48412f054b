package storage

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStorageKey(t *testing.T) {
	t.Parallel()

	d := time.Now()
	prefix := fmt.Sprintf("cars/%d/%02d/%02d/", d.Year(), d.Month(), d.Day())

	key := storageKey("Front-View.JPG")
	require.True(t, strings.HasPrefix(key, prefix), "key %q should start with %q", key, prefix)
	require.True(t, strings.HasSuffix(key, ".jpg"), "extension should be kept and lowercased: %q", key)

	// Keys are random per upload, even for the same filename
	require.NotEqual(t, key, storageKey("Front-View.JPG"))

	// No extension is fine
	require.False(t, strings.Contains(storageKey("raw"), "."))
}
