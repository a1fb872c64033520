package portreap

import (
	gnet "github.com/shirou/gopsutil/v4/net"
)

// SocketFinder enumerates OS TCP sockets without spawning a subprocess.
// On some platforms socket-to-PID attribution requires elevated privileges;
// connections without a PID are skipped, so callers should keep a
// CommandFinder behind it in a Chain.
type SocketFinder struct{}

func (SocketFinder) PIDsOnPort(port int) ([]int, error) {
	conns, err := gnet.Connections("tcp")
	if err != nil {
		return nil, err
	}
	seen := make(map[int32]struct{})
	var pids []int
	for _, c := range conns {
		if c.Status != "LISTEN" {
			continue
		}
		if c.Laddr.Port != uint32(port) {
			continue
		}
		if c.Pid <= 0 {
			continue
		}
		if _, dup := seen[c.Pid]; dup {
			continue
		}
		seen[c.Pid] = struct{}{}
		pids = append(pids, int(c.Pid))
	}
	return pids, nil
}

func (SocketFinder) Describe() string { return "socket" }
