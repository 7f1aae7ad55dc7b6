package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/diagscan/udsrecon/pkg/scan"
)

func runServices(args []string) error {
	fs := flag.NewFlagSet("services", flag.ExitOnError)
	bus := bindBusFlags(fs)
	extended := fs.Bool("e", false, "use 29-bit extended arbitration ids")
	timeout := fs.Duration("t", scan.DefaultServiceProbeTimeout, "per-probe timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) < 2 {
		return fmt.Errorf("services: usage: services SRC DST [-t TIMEOUT]")
	}
	requestID, err := parseID(rest[0])
	if err != nil {
		return err
	}
	responseID, err := parseID(rest[1])
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

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	opts := scan.DefaultServiceDiscoveryOptions()
	opts.Timeout = *timeout

	found, err := scan.DiscoverServices(ctx, client, scan.Endpoint{RequestID: requestID, ResponseID: responseID}, opts)
	if err != nil {
		return err
	}
	for _, sid := range found {
		fmt.Printf("service 0x%02x\n", sid)
	}
	return nil
}
