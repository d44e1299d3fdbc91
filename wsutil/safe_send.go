package wsutil

import "log/slog"

// SafeSend sends data to a connection's outbound channel without blocking
// the caller. A full channel drops the message (slow consumers lose
// frames rather than stalling the room) and a closed channel's panic is
// recovered: teardown races with in-flight broadcasts.
func SafeSend(ch chan []byte, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("send to closed connection dropped", "tag", "wsutil")
		}
	}()
	select {
	case ch <- data:
	default:
	}
}
