package views

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeq(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, seq(3))
	assert.Empty(t, seq(0))
	assert.Empty(t, seq(-2))
}

func TestEngineRendersLogin(t *testing.T) {
	engine := NewEngine()
	require.NoError(t, engine.Load())

	var buf bytes.Buffer
	err := engine.Render(&buf, "login", map[string]interface{}{
		"Title": "Login",
		"Error": "Invalid username or password",
	}, Layout)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "<title>Login - Hospital</title>")
	assert.Contains(t, out, "Invalid username or password")
	assert.Contains(t, out, `action="/login"`)
}
