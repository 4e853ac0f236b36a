package utils_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitmulti/internal/utils"
)

func TestFlushingWriterMakesBufferedWritesVisible(testInstance *testing.T) {
	destination := &bytes.Buffer{}
	bufferedWriter := bufio.NewWriterSize(destination, 4096)

	writer := utils.NewFlushingWriter(bufferedWriter)
	_, writeError := writer.Write([]byte("=== libfoo ===\n"))

	require.NoError(testInstance, writeError)
	require.Equal(testInstance, "=== libfoo ===\n", destination.String())
	require.Same(testInstance, writer, utils.NewFlushingWriter(writer))
}

func TestFlushingWriterLeavesUnbufferedWritersAlone(testInstance *testing.T) {
	destination := &bytes.Buffer{}
	require.Same(testInstance, destination, utils.NewFlushingWriter(destination))
	require.Nil(testInstance, utils.NewFlushingWriter(nil))
}
