package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	run := &Run{NoColor: true, TablePath: "table.yaml", Input: InputSettings{Path: "people.csv"}}
	ctx := IntoContext(context.Background(), run)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, run, got)
	assert.Equal(t, "people.csv", got.Input.Path)
}

func TestFromContextMissing(t *testing.T) {
	got, ok := FromContext(context.Background())
	assert.False(t, ok)
	assert.Nil(t, got)

	got, ok = FromContext(context.WithValue(context.Background(), runKey{}, "wrong type"))
	assert.False(t, ok)
	assert.Nil(t, got)
}
