package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelfUpdateCmd(t *testing.T) {
	c := newSelfUpdateCmd()
	assert.Equal(t, "self-update", c.Use)
	assert.NotEmpty(t, c.Short)
	assert.NotEmpty(t, c.Long)
	assert.NotNil(t, c.RunE)
	assert.NotNil(t, c.PersistentPreRun, "self-update must not load configuration")
}

func TestRunSelfUpdate_RefusesDevelopmentBuilds(t *testing.T) {
	for _, v := range []string{"", devVersion} {
		root := newRootCmd()
		root.Version = v
		selfUpdate, _, err := root.Find([]string{"self-update"})
		require.NoError(t, err)

		err = runSelfUpdate(selfUpdate, nil)
		require.Error(t, err, "version %q", v)
		assert.Contains(t, err.Error(), "cannot self-update a development version")
	}
}

func TestSelfUpdate_ThroughRootCommand(t *testing.T) {
	root := newRootCmd()
	root.Version = devVersion
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	// An unreadable config path must not matter since configuration is skipped.
	root.SetArgs([]string{"--config", "/nonexistent/dir/config.yaml", "self-update"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "development version")
}

func TestSelfUpdateCommandHelp(t *testing.T) {
	c := newSelfUpdateCmd()
	var buf bytes.Buffer
	c.SetOut(&buf)
	c.SetErr(&buf)
	c.SetArgs([]string{"--help"})

	require.NoError(t, c.Execute())
	assert.Contains(t, buf.String(), "Checks for the latest release")
	assert.Contains(t, buf.String(), "self-update")
}

func TestGithubRepoSlug(t *testing.T) {
	assert.Equal(t, "openshift-online/gcphcp-cli", githubRepoSlug)
}

func TestVersionDetails(t *testing.T) {
	root := newRootCmd()
	root.Version = "0.4.0"
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"version", "--details"})

	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "gcphcp version 0.4.0\n")
	assert.Contains(t, buf.String(), "User agent: gcphcp-cli/0.4.0")
}

func TestResolveVersion(t *testing.T) {
	assert.Equal(t, "1.2.3", resolveVersion("1.2.3"))
	assert.NotEmpty(t, resolveVersion(devVersion))
	assert.Equal(t, "gcphcp-cli/dev", userAgent(""))
}
