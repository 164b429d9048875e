package waiter

import (
	"net"
	"strconv"
	"testing"
	"time"
)

func TestForPortSucceedsWhenListening(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(portStr)

	if err := ForPort("127.0.0.1", port, 5*time.Second); err != nil {
		t.Errorf("ForPort() returned an error for a listening port: %v", err)
	}
}

func TestForPortTimesOut(t *testing.T) {
	// Port 1 is essentially never listening on a test machine.
	err := ForPort("127.0.0.1", 1, 500*time.Millisecond)
	if err == nil {
		t.Error("ForPort() did not time out for a closed port")
	}
}
