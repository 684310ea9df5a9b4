package logging_test

import (
	"testing"

	"github.com/layer-3/dapptober/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	dev, err := logging.New("development")
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))

	prod, err := logging.New("production")
	require.NoError(t, err)
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel))
}

func TestAddressField(t *testing.T) {
	f := logging.Address("0xabc")
	assert.Equal(t, "address", f.Key)
	assert.Equal(t, "0xabc", f.String)
}
