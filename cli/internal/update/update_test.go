package update

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		current  string
		recorded string
		want     Status
	}{
		{"v0.2.0", "v0.2.0", Current},
		{"0.2.0", "v0.2.0", Current},
		{"v0.2.0", "v0.1.9", Stale},
		{"v0.2.0", "v0.10.0", Ahead},
		{"v1.0.0", "v1.0.0-rc.1", Stale},
	}
	for _, tt := range tests {
		t.Run(tt.current+"_"+tt.recorded, func(t *testing.T) {
			got, err := Compare(tt.current, tt.recorded)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompareDevel(t *testing.T) {
	status, err := Compare("v0.2.0", "(devel)")
	assert.Error(t, err)
	assert.Equal(t, Unknown, status)
}

func TestAdvice(t *testing.T) {
	assert.Contains(t, Advice(Stale, "v0.2.0", "v0.1.0"), "run staticsql generate")
	assert.Contains(t, Advice(Ahead, "v0.2.0", "v0.3.0"), "newer")
	assert.Empty(t, Advice(Current, "v0.2.0", "v0.2.0"))
	assert.Equal(t, "stale", Stale.String())
}
