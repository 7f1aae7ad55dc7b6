package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/diagscan/udsrecon/pkg/uds"
)

func runECUReset(args []string) error {
	fs := flag.NewFlagSet("ecu_reset", flag.ExitOnError)
	bus := bindBusFlags(fs)
	extended := fs.Bool("e", false, "use 29-bit extended arbitration ids")
	timeout := fs.Duration("t", uds.DefaultP3Client, "reply wait window")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) < 3 {
		return fmt.Errorf("ecu_reset: usage: ecu_reset TYPE SRC DST [-t T]")
	}
	resetType, err := parseByte(rest[0])
	if err != nil {
		return err
	}
	if !uds.IsValidResetType(resetType) {
		return uds.ErrInvalidResetType
	}
	requestID, err := parseID(rest[1])
	if err != nil {
		return err
	}
	responseID, err := parseID(rest[2])
	if err != nil {
		return err
	}

	canBus, err := bus.connect()
	if err != nil {
		return err
	}
	defer canBus.Disconnect()

	client, err := newClient(canBus, requestID, responseID, *extended)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout+time.Second)
	defer cancel()

	reply, err := client.Request(ctx, requestID, uds.EncodeECUReset(resetType), *timeout)
	if err != nil {
		return err
	}
	decoded := uds.Decode(reply, uds.SIDECUReset, int(resetType))
	switch decoded.Outcome {
	case uds.Positive:
		fmt.Printf("reset accepted: %x\n", decoded.AdditionalBytes)
	case uds.Negative:
		fmt.Printf("reset rejected: NRC 0x%02x (%s)\n", decoded.NRC, uds.NRCDescription(decoded.NRC))
	default:
		fmt.Println("no response")
	}
	return nil
}
