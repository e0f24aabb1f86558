package tsserver

import (
	"testing"

	"github.com/teleivo/assertive/assert"
)

func TestBuildArgs(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want []string
	}{
		{
			name: "empty config produces no flags",
			cfg:  Config{},
			want: nil,
		},
		{
			name: "all options set",
			cfg: Config{
				LogFile:              "/tmp/tsserver.log",
				LogVerbosity:         "verbose",
				GlobalPlugins:        []string{"@vue/typescript-plugin"},
				PluginProbeLocations: []string{"/usr/lib/node_modules"},
				CancellationPipeName: "/tmp/cancel",
			},
			want: []string{
				"--logFile", "/tmp/tsserver.log",
				"--logVerbosity", "verbose",
				"--globalPlugins", "@vue/typescript-plugin",
				"--pluginProbeLocations", "/usr/lib/node_modules",
				"--cancellationPipeName", "/tmp/cancel*",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := buildArgs(tc.cfg)
			assert.EqualValues(t, got, tc.want)
		})
	}
}

func TestCommandFor(t *testing.T) {
	name, args := commandFor("/opt/typescript/tsserver.js", []string{"--logVerbosity", "verbose"})
	assert.Equal(t, name, "node")
	assert.EqualValues(t, args, []string{"/opt/typescript/tsserver.js", "--logVerbosity", "verbose"})

	name, args = commandFor("/usr/local/bin/tsserver", []string{"--logVerbosity", "verbose"})
	assert.Equal(t, name, "/usr/local/bin/tsserver")
	assert.EqualValues(t, args, []string{"--logVerbosity", "verbose"})
}

func TestCancellationPipeDir(t *testing.T) {
	dir, err := CancellationPipeDir("")
	assert.NoError(t, err)
	assert.Equal(t, dir, "")

	dir, err = CancellationPipeDir(t.TempDir() + "/pipes/cancel")
	assert.NoError(t, err)
	assert.True(t, dir != "")
}
