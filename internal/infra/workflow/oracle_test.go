package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticOracle(t *testing.T) {
	o := NewStaticOracle(map[string]Definition{
		"article": {Transitions: map[string]string{
			"draft->published":  "publish",
			"published->hidden": "hide",
		}},
	})
	ctx := context.Background()

	ok, err := o.Participates(ctx, "article")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = o.Participates(ctx, "snippet")
	assert.False(t, ok)

	id, err := o.Resolve(ctx, "article", "draft", "published")
	require.NoError(t, err)
	assert.Equal(t, "publish", id)

	id, _ = o.Resolve(ctx, "article", "published", "draft")
	assert.Empty(t, id)

	id, _ = o.Resolve(ctx, "snippet", "draft", "published")
	assert.Empty(t, id)
}
