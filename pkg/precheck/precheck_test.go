package precheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wg-engarde/pkg/model"
)

func TestRequireRoot(t *testing.T) {
	require.NoError(t, RequireRoot(0))

	err := RequireRoot(1000)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrPermission)
}

func TestRequirePlatform(t *testing.T) {
	floors := map[string]int{"ubuntu": 20, "debian": 10}

	tests := []struct {
		name    string
		release map[string]string
		wantErr bool
	}{
		{"supported ubuntu", map[string]string{"ID": "ubuntu", "VERSION_ID": "22.04"}, false},
		{"at the floor", map[string]string{"ID": "debian", "VERSION_ID": "10"}, false},
		{"below the floor", map[string]string{"ID": "ubuntu", "VERSION_ID": "18.04"}, true},
		{"unknown distribution", map[string]string{"ID": "gentoo", "VERSION_ID": "2.14"}, true},
		{"missing id", map[string]string{"VERSION_ID": "20.04"}, true},
		{"garbage version treated as zero", map[string]string{"ID": "ubuntu", "VERSION_ID": "rolling"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequirePlatform(tt.release, floors)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrUnsupportedPlatform)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestParseOSRelease(t *testing.T) {
	raw := `
NAME="Ubuntu"
ID=ubuntu
# comment
VERSION_ID="22.04"
broken line without equals
`
	got := ParseOSRelease(raw)
	assert.Equal(t, "ubuntu", got["ID"])
	assert.Equal(t, "22.04", got["VERSION_ID"])
	assert.Equal(t, "Ubuntu", got["NAME"])
}
