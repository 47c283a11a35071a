// MIT License
//
// Copyright (c) 2023-2026 EdgeKit Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package log

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZapInfo(t *testing.T) {
	buffer := new(bytes.Buffer)
	logger := NewZap(InfoLevel, buffer)

	logger.Info("test info")

	var fields map[string]any
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &fields))
	assert.Equal(t, "test info", fields["msg"])
	assert.Equal(t, "info", fields["level"])
	assert.Equal(t, InfoLevel, logger.LogLevel())
}

func TestZapDebugFiltered(t *testing.T) {
	buffer := new(bytes.Buffer)
	logger := NewZap(ErrorLevel, buffer)

	logger.Debug("should not appear")
	logger.Infof("neither %s", "this")
	assert.Zero(t, buffer.Len())

	logger.Errorf("boom: %d", 42)
	assert.True(t, strings.Contains(buffer.String(), "boom: 42"))
}

func TestZapOutputs(t *testing.T) {
	buffer := new(bytes.Buffer)
	logger := NewZap(WarningLevel, buffer)
	outputs := logger.LogOutput()
	require.Len(t, outputs, 1)
	assert.Equal(t, io.Writer(buffer), outputs[0])
}

func TestDiscardLogger(t *testing.T) {
	DiscardLogger.Info("dropped")
	DiscardLogger.Errorf("dropped %s", "too")
	assert.Equal(t, InvalidLevel, DiscardLogger.LogLevel())
	require.Len(t, DiscardLogger.LogOutput(), 1)
	assert.Equal(t, io.Discard, DiscardLogger.LogOutput()[0])
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", DebugLevel.String())
	assert.Equal(t, "INFO", InfoLevel.String())
	assert.Equal(t, "WARNING", WarningLevel.String())
	assert.Equal(t, "ERROR", ErrorLevel.String())
	assert.Equal(t, "FATAL", FatalLevel.String())
	assert.Equal(t, "UNKNOWN", InvalidLevel.String())
}
