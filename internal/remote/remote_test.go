package remote

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kdeploy/internal/config"
	"kdeploy/internal/hosts"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("KDEPLOY_HOME", "/home/op")
	cfg, err := config.New()
	require.NoError(t, err)
	return cfg
}

func TestSSHCommand(t *testing.T) {
	cfg := testConfig(t)
	h := &hosts.Host{Name: "testvm", Address: "192.168.64.5", Port: 2222}

	got := SSHCommand(cfg, h, "uname -r")

	assert.True(t, strings.HasPrefix(got, "ssh "), "command %q does not start with ssh", got)
	assert.Contains(t, got, "-i /home/op/.kdeploy/ssh/kdeploy_rsa")
	assert.Contains(t, got, "-p 2222")
	assert.Contains(t, got, "root@192.168.64.5")
	assert.Contains(t, got, "'uname -r'")
}

func TestSSHCommandQuotesRemoteCommand(t *testing.T) {
	cfg := testConfig(t)
	h := &hosts.Host{Name: "testvm", Address: "10.0.0.1"}

	got := SSHCommand(cfg, h, "echo it's here")
	assert.Contains(t, got, `'echo it'\''s here'`)
}

func TestInteractiveSSHCommand(t *testing.T) {
	cfg := testConfig(t)
	h := &hosts.Host{Name: "testvm", Address: "10.0.0.1", User: "admin"}

	withTTY := InteractiveSSHCommand(cfg, h, true)
	assert.Contains(t, withTTY, " -t ")
	assert.True(t, strings.HasSuffix(withTTY, "admin@10.0.0.1"))

	withoutTTY := InteractiveSSHCommand(cfg, h, false)
	assert.NotContains(t, withoutTTY, " -t ")
}

func TestRsyncCommand(t *testing.T) {
	cfg := testConfig(t)
	h := &hosts.Host{Name: "testvm", Address: "192.168.64.5", Port: 22}

	got := RsyncCommand(cfg, h, []string{"-a"}, []string{"/tmp/stage/vmlinuz-6.9.1"}, "/boot")

	assert.True(t, strings.HasPrefix(got, "rsync -a "), "command %q does not start with rsync -a", got)
	assert.Contains(t, got, "-e 'ssh -i /home/op/.kdeploy/ssh/kdeploy_rsa")
	assert.Contains(t, got, "/tmp/stage/vmlinuz-6.9.1")
	assert.True(t, strings.HasSuffix(got, "root@192.168.64.5:/boot/"), "command %q does not end at the boot dir", got)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "'plain'", Quote("plain"))
	assert.Equal(t, `'it'\''s'`, Quote("it's"))
}

func TestLocalUnsupportedError(t *testing.T) {
	err := &LocalUnsupportedError{Op: "rebooting"}
	assert.Contains(t, err.Error(), "rebooting on the local host is not implemented yet")
}
