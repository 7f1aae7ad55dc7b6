package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/diagscan/udsrecon/pkg/scan"
	"github.com/diagscan/udsrecon/pkg/uds"
)

func runSecuritySeed(args []string) error {
	fs := flag.NewFlagSet("security_seed", flag.ExitOnError)
	bus := bindBusFlags(fs)
	extended := fs.Bool("e", false, "use 29-bit extended arbitration ids")
	resetArg := fs.String("r", "", "reset type to issue after each captured seed")
	count := fs.Int("n", 0, "number of seeds to capture (0 = until interrupted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) < 4 {
		return fmt.Errorf("security_seed: usage: security_seed STYPE LEVEL SRC DST [-r RTYPE] [-n N]")
	}
	sessionType, err := parseByte(rest[0])
	if err != nil {
		return err
	}
	if !uds.IsValidSession(sessionType) {
		return uds.ErrInvalidSession
	}
	level, err := parseByte(rest[1])
	if err != nil {
		return err
	}
	if !uds.IsValidRequestSeedLevel(level) {
		return scan.ErrInvalidSeedLevel
	}
	requestID, err := parseID(rest[2])
	if err != nil {
		return err
	}
	responseID, err := parseID(rest[3])
	if err != nil {
		return err
	}

	var resetType *byte
	if *resetArg != "" {
		v, err := parseByte(*resetArg)
		if err != nil {
			return err
		}
		if !uds.IsValidResetType(v) {
			return uds.ErrInvalidResetType
		}
		resetType = &v
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

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	opts := scan.SeedCaptureOptions{
		SessionType: sessionType,
		Level:       level,
		ResetType:   resetType,
		Count:       *count,
	}
	seeds, err := scan.CaptureSeeds(ctx, client, scan.Endpoint{RequestID: requestID, ResponseID: responseID}, opts)
	if err != nil {
		return err
	}
	for i, seed := range seeds {
		fmt.Printf("seed #%d: %x\n", i+1, seed)
	}
	return nil
}
