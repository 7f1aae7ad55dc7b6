package main

import (
	"flag"
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/diagscan/udsrecon/pkg/can"
	_ "github.com/diagscan/udsrecon/pkg/can/socketcan"
	_ "github.com/diagscan/udsrecon/pkg/can/virtual"
	"github.com/diagscan/udsrecon/pkg/transport/isotp"
	"github.com/diagscan/udsrecon/pkg/uds"
)

// busFlags are the interface/channel flags every subcommand that talks
// to a bus accepts.
type busFlags struct {
	iface   *string
	channel *string
}

func bindBusFlags(fs *flag.FlagSet) *busFlags {
	return &busFlags{
		iface:   fs.String("i", "socketcan", "CAN interface type: socketcan, virtual"),
		channel: fs.String("c", "can0", "CAN channel/interface name"),
	}
}

func (b *busFlags) connect() (can.Bus, error) {
	bus, err := can.NewBus(*b.iface, *b.channel)
	if err != nil {
		return nil, err
	}
	if err := bus.Connect(); err != nil {
		return nil, err
	}
	return bus, nil
}

// newClient wires a uds.Client around a fresh isotp.Transport for one
// (requestID, replyID) endpoint pair.
func newClient(bus can.Bus, requestID, replyID uint32, extended bool) (*uds.Client, error) {
	t, err := isotp.New(bus, requestID, replyID, extended, nil)
	if err != nil {
		return nil, err
	}
	return uds.NewClient(t), nil
}

// parseID parses an arbitration id given in decimal ("2016") or as
// 0x-prefixed hex ("0x7E0"); bare hex such as "7e0" is rejected.
func parseID(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid arbitration id %q: %w", s, err)
	}
	return uint32(v), nil
}

func parseByte(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte value %q: %w", s, err)
	}
	return byte(v), nil
}

// frameFor builds a single-frame ISO-TP wire encoding of payload
// addressed to requestID. testerpresent sends fire-and-forget, so it
// talks to the bus directly rather than through a Transport/Client
// pair that expects a reply.
func frameFor(requestID uint32, extended bool, payload []byte) can.Frame {
	data := make([]byte, 0, 8)
	data = append(data, byte(len(payload)))
	data = append(data, payload...)
	flags := uint8(0)
	if extended {
		flags = can.ExtendedFlag
	}
	return can.NewFrame(requestID, flags, data)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Warnf("[CLI] invalid duration %q, using %s", s, fallback)
		return fallback
	}
	return d
}
