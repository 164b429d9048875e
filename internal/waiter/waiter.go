package waiter

import (
	"fmt"
	"net"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// ForPort polls a TCP port until it becomes available or a timeout is
// reached. Used after a reboot to wait for the test host to come back.
var ForPort = func(host string, port int, timeout time.Duration) error {
	address := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond)
	s.Suffix = fmt.Sprintf(" Waiting for SSH port %s to come back...", address)
	s.Start()
	defer s.Stop()

	timeoutChan := time.After(timeout)
	for {
		select {
		case <-timeoutChan:
			s.FinalMSG = color.RedString("✖ Timed out waiting for port %s\n", address)
			return fmt.Errorf("timed out waiting for port %s", address)
		default:
			conn, err := net.DialTimeout("tcp", address, 1*time.Second)
			if err == nil {
				conn.Close()
				s.FinalMSG = color.GreenString("✔ Port %s is back.\n", address)
				return nil
			}
			time.Sleep(200 * time.Millisecond)
		}
	}
}
