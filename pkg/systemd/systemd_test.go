package systemd

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wg-engarde/pkg/model"
)

type fakeRunner struct {
	calls [][]string
	out   string
	err   error
}

func (f *fakeRunner) Run(_ context.Context, args ...string) (string, error) {
	f.calls = append(f.calls, args)
	return f.out, f.err
}

func TestControllerPassesUnit(t *testing.T) {
	fr := &fakeRunner{}
	c := Controller{Runner: fr}
	ctx := context.Background()

	require.NoError(t, c.Enable(ctx, "engarde-server"))
	require.NoError(t, c.Start(ctx, "engarde-server"))
	require.NoError(t, c.Restart(ctx, "wg-quick@wg0"))
	require.NoError(t, c.Stop(ctx, "wg-quick@wg0"))
	require.NoError(t, c.Disable(ctx, "engarde-server"))

	assert.Equal(t, [][]string{
		{"enable", "engarde-server"},
		{"start", "engarde-server"},
		{"restart", "wg-quick@wg0"},
		{"stop", "wg-quick@wg0"},
		{"disable", "engarde-server"},
	}, fr.calls)
}

func TestControllerFailureCarriesOp(t *testing.T) {
	fr := &fakeRunner{out: "unit not found", err: errors.New("exit status 5")}
	c := Controller{Runner: fr}

	err := c.Restart(context.Background(), "engarde-server")
	require.Error(t, err)

	var cmdErr *model.ExternalCommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "systemctl restart", cmdErr.Op)
	assert.Equal(t, "engarde-server", cmdErr.Target)
	assert.True(t, strings.Contains(cmdErr.Error(), "unit not found"))
}

func TestIsEnabled(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		err     error
		want    bool
		wantErr bool
	}{
		{"enabled", "enabled", nil, true, false},
		{"disabled exits nonzero", "disabled", errors.New("exit status 1"), false, false},
		{"static", "static", nil, false, false},
		{"no answer at all", "", errors.New("dbus unreachable"), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Controller{Runner: &fakeRunner{out: tt.out, err: tt.err}}
			got, err := c.IsEnabled(context.Background(), "engarde-server")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusReturnsTextForInactiveUnits(t *testing.T) {
	c := Controller{Runner: &fakeRunner{out: "inactive (dead)", err: errors.New("exit status 3")}}
	out, err := c.Status(context.Background(), "engarde-server")
	require.NoError(t, err)
	assert.Contains(t, out, "inactive")
}

func TestRemoveIsRepeatable(t *testing.T) {
	fr := &fakeRunner{out: "", err: nil}
	c := Controller{Runner: fr}
	require.NoError(t, c.Remove(context.Background(), "engarde-server"))
	require.NoError(t, c.Remove(context.Background(), "engarde-server"))
}
