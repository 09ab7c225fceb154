package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppsCommand_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewAppsCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "echo")
	assert.Contains(t, out, "pingpong   drivers=ping,pong")
	assert.Contains(t, out, `initial={"toggledButton":"off"}`)
}

func TestAppsCommand_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewAppsCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string    `json:"status"`
		Data   []AppInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 3)
	assert.Equal(t, "echo", resp.Data[0].Name)
	assert.Empty(t, resp.Data[0].Drivers)
	assert.NotNil(t, resp.Data[0].Drivers)
	assert.Equal(t, []string{"host"}, resp.Data[2].Drivers)
	assert.Equal(t, `{"foo":"hello"}`, resp.Data[0].Initial)
}

func TestAppsCommand_RejectsArgs(t *testing.T) {
	cmd := NewAppsCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"extra"})

	assert.Error(t, cmd.Execute())
}
