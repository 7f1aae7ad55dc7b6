// Package noise implements the auto-blacklist helper: a pure function
// over an already-captured frame stream, consumed by the endpoint
// discovery scanner. It never touches a bus or transport itself.
package noise

import "github.com/diagscan/udsrecon/pkg/can"

// BlacklistFromFrames returns the set of arbitration ids that appear,
// among frames, to be carrying a reply matching validShape. Endpoint
// discovery uses this during its passive auto-blacklist listening
// window so frames from busy, chatty ids that merely look like
// session-control replies are not taken as replies to a probe.
func BlacklistFromFrames(frames []can.Frame, validShape func(can.Frame) bool) map[uint32]struct{} {
	blacklist := make(map[uint32]struct{})
	for _, frame := range frames {
		if validShape(frame) {
			blacklist[frame.ID] = struct{}{}
		}
	}
	return blacklist
}

// IsSessionControlShaped is a validShape predicate that qualifies a
// reply: data[1] is either a positive DiagnosticSessionControl
// response (0x50) or a negative-response sentinel (0x7F).
func IsSessionControlShaped(frame can.Frame) bool {
	return frame.DLC >= 2 && (frame.Data[1] == 0x7F || frame.Data[1] == 0x50)
}
