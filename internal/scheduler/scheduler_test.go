package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/blog-search/pkg/logger"
)

func TestScheduleCron(t *testing.T) {
	s := New(logger.NewNop())
	t.Cleanup(s.Stop)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.ScheduleCron("rebuild", "0 3 * * *", noop))
	require.NoError(t, s.ScheduleCron("backup", "", noop))
	assert.Len(t, s.Jobs(), 1)

	assert.Error(t, s.ScheduleCron("broken", "not a cron", noop))
	assert.Error(t, s.ScheduleCron("rebuild", "0 4 * * *", noop), "tags are unique")
}
