package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runStdio(t *testing.T, input string) []JSONRPCResponse {
	t.Helper()

	var out bytes.Buffer
	transport := NewStdioTransportWithIO(newTestDispatcher(t), strings.NewReader(input), &out)
	require.NoError(t, transport.Run(context.Background()))

	var responses []JSONRPCResponse
	scanner := bufio.NewScanner(&out)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)
	for scanner.Scan() {
		var resp JSONRPCResponse
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
		responses = append(responses, resp)
	}
	require.NoError(t, scanner.Err())
	return responses
}

func TestStdioRoundTrip(t *testing.T) {
	input := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}` + "\n" +
		`{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"ping"}` + "\n"

	responses := runStdio(t, input)
	require.Len(t, responses, 2, "notification must not produce a response")

	assert.Equal(t, "2.0", responses[0].JSONRPC)
	assert.Nil(t, responses[0].Error)
	assert.Contains(t, string(responses[0].Result), "protocolVersion")

	assert.JSONEq(t, `{"status":"ok"}`, string(responses[1].Result))
}

func TestStdioParseErrorKeepsReading(t *testing.T) {
	input := "this is not json\n" +
		`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n"

	responses := runStdio(t, input)
	require.Len(t, responses, 2)

	require.NotNil(t, responses[0].Error)
	assert.Equal(t, ParseError, responses[0].Error.Code)

	assert.Nil(t, responses[1].Error)
}

func TestStdioRejectsWrongVersion(t *testing.T) {
	responses := runStdio(t, `{"jsonrpc":"1.0","id":1,"method":"ping"}`+"\n")
	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, InvalidRequest, responses[0].Error.Code)
}

func TestStdioSkipsBlankLines(t *testing.T) {
	responses := runStdio(t, "\n\n"+`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n\n")
	require.Len(t, responses, 1)
	assert.Nil(t, responses[0].Error)
}

func TestStdioHandlesUnterminatedFinalLine(t *testing.T) {
	// No trailing newline before EOF.
	responses := runStdio(t, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	require.Len(t, responses, 1)
	assert.JSONEq(t, `{"status":"ok"}`, string(responses[0].Result))
}

func TestStdioToolCall(t *testing.T) {
	input := `{"jsonrpc":"2.0","id":9,"method":"tools/call","params":{"name":"scrape_page","arguments":{"url":"https://example.com"}}}` + "\n"

	responses := runStdio(t, input)
	require.Len(t, responses, 1)
	require.Nil(t, responses[0].Error)
	assert.Contains(t, string(responses[0].Result), "stub content")
}
