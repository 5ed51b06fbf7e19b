package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/gostrips/pkg/fstrips"
)

// TestReadPlan_SkipsBlanksAndComments checks the first.plan reader
// trims whitespace and ignores blank and commented lines.
func TestReadPlan_SkipsBlanksAndComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "first.plan")
	content := "; produced by bfws\nflip(s1)\n\n  flip(s2)  \n; end\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	plan, err := readPlan(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"flip(s1)", "flip(s2)"}, plan)
}

// TestReadPlan_EmptyFile checks an all-comment file reads as the empty
// plan.
func TestReadPlan_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "first.plan")
	require.NoError(t, os.WriteFile(path, []byte("; nothing to do\n"), 0o644))

	plan, err := readPlan(path)
	require.NoError(t, err)
	assert.Empty(t, plan)
}

// TestReadPlan_MissingFile checks the error names the operation.
func TestReadPlan_MissingFile(t *testing.T) {
	_, err := readPlan(filepath.Join(t.TempDir(), "absent.plan"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open plan")
}

// TestValidateCommand_ValidPlan replays a correct plan through the CLI.
func TestValidateCommand_ValidPlan(t *testing.T) {
	dir := t.TempDir()
	probPath := filepath.Join(dir, "switches.json")
	require.NoError(t, os.WriteFile(probPath, []byte(switchesDoc), 0o644))
	planPath := filepath.Join(dir, "first.plan")
	require.NoError(t, os.WriteFile(planPath, []byte("flip(s1)\nflip(s2)\n"), 0o644))

	out, err := execRoot(t, "validate", probPath, planPath)
	require.NoError(t, err)
	assert.Equal(t, "VALID (2 steps)\n", out)
}

// TestValidateCommand_InvalidPlan checks a broken plan reports INVALID
// and carries the validation exit code.
func TestValidateCommand_InvalidPlan(t *testing.T) {
	dir := t.TempDir()
	probPath := filepath.Join(dir, "switches.json")
	require.NoError(t, os.WriteFile(probPath, []byte(switchesDoc), 0o644))
	planPath := filepath.Join(dir, "first.plan")
	// The second flip repeats s1, whose precondition no longer holds.
	require.NoError(t, os.WriteFile(planPath, []byte("flip(s1)\nflip(s1)\n"), 0o644))

	out, err := execRoot(t, "validate", probPath, planPath)
	require.Error(t, err)
	var ee *exitError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, fstrips.ExitValidationFailed, ee.code)
	assert.Contains(t, out, "INVALID:")
	assert.Contains(t, out, "step 1")
}
