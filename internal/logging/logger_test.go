package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriterProductionJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "mathquest", "production")

	logger.Debug().Msg("hidden")
	logger.Info().Str("component", "test").Msg("visible")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "mathquest", line["app"])
	assert.Equal(t, "production", line["env"])
	assert.Equal(t, "visible", line["message"])
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "mathquest", "production")

	ctx := IntoContext(context.Background(), logger)
	fromCtx := FromContext(ctx)
	fromCtx.Info().Msg("from context")
	assert.Contains(t, buf.String(), "from context")

	// A bare context yields a logger that writes nothing.
	buf.Reset()
	nop := FromContext(context.Background())
	nop.Error().Msg("dropped")
	assert.Empty(t, buf.String())
}
