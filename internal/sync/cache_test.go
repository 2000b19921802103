package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkondo/notionsync/internal/models"
)

func TestResultCache(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newResultCache(5 * time.Minute)
	c.now = func() time.Time { return now }

	assert.Nil(t, c.fresh("page"))
	assert.Nil(t, c.stale("page"))

	c.put("page", &models.SyncResult{Success: true, Type: "page"})

	got := c.fresh("page")
	require.NotNil(t, got)
	assert.Equal(t, "page", got.Type)
	assert.Empty(t, got.Source)

	// a different page never hits the single slot
	assert.Nil(t, c.fresh("other"))
	assert.Nil(t, c.stale("other"))

	// at the edge of the window the entry is still fresh
	now = now.Add(5 * time.Minute)
	assert.NotNil(t, c.fresh("page"))

	// past the window fresh misses but stale still serves
	now = now.Add(time.Second)
	assert.Nil(t, c.fresh("page"))
	st := c.stale("page")
	require.NotNil(t, st)
	assert.Equal(t, "stale-cache", st.Source)
}

func TestResultCacheReturnsCopies(t *testing.T) {
	c := newResultCache(5 * time.Minute)
	c.put("page", &models.SyncResult{Type: "page"})

	got := c.stale("page")
	require.NotNil(t, got)
	assert.Equal(t, "stale-cache", got.Source)

	// marking the copy stale must not taint the stored entry
	fresh := c.fresh("page")
	require.NotNil(t, fresh)
	assert.Empty(t, fresh.Source)
}
