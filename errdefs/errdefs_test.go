package errdefs

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestExternalToolErrorMessage(t *testing.T) {
	err := &ExternalToolError{
		Tool:   "nargo",
		Args:   []string{"compile", "mul"},
		Output: "error: unknown variable z\n",
		Err:    errors.New("exit status 1"),
	}
	require.Equal(t, "nargo compile mul failed: exit status 1\nerror: unknown variable z", err.Error())
}

func TestWrappedErrorsAreDetected(t *testing.T) {
	nf := errors.Wrap(&NotFoundError{Path: "/p/build/x.acir", Hint: "run compile"}, "loading circuit")
	require.True(t, IsNotFound(nf))
	require.False(t, IsExternalTool(nf))
	require.Contains(t, nf.Error(), "circuit not found at /p/build/x.acir. run compile")

	cause := errors.New("boom")
	et := errors.Wrap(&ExternalToolError{Tool: "noir compiler", Err: cause}, "compiling")
	require.True(t, IsExternalTool(et))
	require.True(t, errors.Is(et, cause))
}
