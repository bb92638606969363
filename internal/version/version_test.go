package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRelease(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"0.3.0", true},
		{"v1.2.3", true},
		{"0.0.0-dev", false},
		{"1.0.0-rc.1", false},
		{"latest", false},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRelease(tt.version))
		})
	}
}

func TestGetCurrentVersion(t *testing.T) {
	oldVersion, oldCommit := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = oldVersion, oldCommit })

	Version, GitCommit = "0.3.0", "0123456789abcdef"

	assert.Equal(t, "0.3.0", GetCurrentVersion("prod"))
	assert.Equal(t, "0.3.0-01234567", GetCurrentVersion("dev"))

	Version = "0.0.0-dev"
	assert.Equal(t, "0.0.0-dev-01234567", GetCurrentVersion("prod"))
}
