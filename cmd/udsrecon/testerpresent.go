package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/diagscan/udsrecon/pkg/uds"
)

func runTesterPresent(args []string) error {
	fs := flag.NewFlagSet("testerpresent", flag.ExitOnError)
	bus := bindBusFlags(fs)
	extended := fs.Bool("e", false, "use 29-bit extended arbitration ids")
	period := fs.Duration("d", 2*time.Second, "interval between keep-alives")
	duration := fs.Duration("dur", 0, "total run time (0 = until interrupted)")
	suppress := fs.Bool("spr", false, "set the suppress-positive-response bit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) < 1 {
		return fmt.Errorf("testerpresent: usage: testerpresent SRC [-d D] [-dur S] [-spr]")
	}
	requestID, err := parseID(rest[0])
	if err != nil {
		return err
	}

	canBus, err := bus.connect()
	if err != nil {
		return err
	}
	defer canBus.Disconnect()

	subfn := byte(0x00)
	if *suppress {
		subfn |= uds.SuppressPositiveResponse
	}
	payload := uds.EncodeTesterPresent(subfn)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if *duration > 0 {
		var durCancel context.CancelFunc
		ctx, durCancel = context.WithTimeout(ctx, *duration)
		defer durCancel()
	}

	ticker := time.NewTicker(*period)
	defer ticker.Stop()
	for {
		if err := canBus.Send(frameFor(requestID, *extended, payload)); err != nil {
			return err
		}
		log.Debugf("[CLI][TESTERPRESENT] sent keep-alive to 0x%x", requestID)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil
		}
	}
}
