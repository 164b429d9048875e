package runner

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"
	"syscall"
)

const (
	// EnvInvokingUID and EnvInvokingGID carry the numeric identity of the
	// user who escalated privileges. sudo sets both.
	EnvInvokingUID = "SUDO_UID"
	EnvInvokingGID = "SUDO_GID"
)

// invoker is the resolved pre-escalation identity.
type invoker struct {
	uid      int
	gid      int
	username string
	group    string
	home     string
}

// invokingIdentity resolves the pre-escalation identity from the
// environment markers. When any marker is absent or unusable it returns
// nil along with the names of the offending variables; the caller decides
// whether that is an error.
func invokingIdentity() (*invoker, []string) {
	var missing []string

	uid, ok := numericEnv(EnvInvokingUID)
	if !ok {
		missing = append(missing, EnvInvokingUID)
	}
	gid, ok := numericEnv(EnvInvokingGID)
	if !ok {
		missing = append(missing, EnvInvokingGID)
	}
	if len(missing) > 0 {
		return nil, missing
	}

	inv := &invoker{
		uid:      uid,
		gid:      gid,
		username: strconv.Itoa(uid),
		group:    strconv.Itoa(gid),
		home:     "/",
	}
	// Name lookups are best effort; the numeric identity is authoritative.
	if u, err := user.LookupId(strconv.Itoa(uid)); err == nil {
		inv.username = u.Username
		inv.home = u.HomeDir
	}
	if g, err := user.LookupGroupId(strconv.Itoa(gid)); err == nil {
		inv.group = g.Name
	}
	return inv, nil
}

func numericEnv(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

var getwd = os.Getwd

// elevated reports whether the process runs with broader privileges than
// the owner of the current working directory, i.e. a sudo invocation
// inside a user-owned source tree.
func elevated() bool {
	wd, err := getwd()
	if err != nil {
		return false
	}
	fi, err := os.Stat(wd)
	if err != nil {
		return false
	}
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return false
	}
	return int(st.Uid) != os.Geteuid()
}

// currentIdentity names the identity a child would run under when no drop
// happens.
func currentIdentity() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return fmt.Sprintf("uid %d", os.Getuid())
}

// normalizedEnv returns a copy of the parent environment with the
// identity-related variables rewritten for inv, so sub-commands spawned by
// the child see a consistent picture of who they run as.
func normalizedEnv(inv *invoker) []string {
	overrides := map[string]string{
		"USER":    inv.username,
		"LOGNAME": inv.username,
		"HOME":    inv.home,
	}
	env := make([]string, 0, len(os.Environ())+len(overrides))
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if _, drop := overrides[name]; drop {
			continue
		}
		env = append(env, kv)
	}
	for name, value := range overrides {
		env = append(env, name+"="+value)
	}
	return env
}
