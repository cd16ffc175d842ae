package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFull(t *testing.T) {
	assert.True(t, strings.HasPrefix(Full(), "eolscout/"))
	assert.NotEmpty(t, GitCommit)
	assert.LessOrEqual(t, len(GitCommit), 8)
}
