package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMCPUnsupportedTransport(t *testing.T) {
	withTempDir(t)

	_, _, err := runCLI(t, nil, "", "mcp", "--transport", "grpc")
	var cliErr *CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Contains(t, cliErr.Error(), "unsupported transport: grpc")
}
