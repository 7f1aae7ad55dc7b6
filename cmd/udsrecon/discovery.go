package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/diagscan/udsrecon/pkg/scan"
	"github.com/diagscan/udsrecon/pkg/uds"
)

func runDiscovery(args []string) error {
	fs := flag.NewFlagSet("discovery", flag.ExitOnError)
	bus := bindBusFlags(fs)
	min := fs.String("min", "", "first request arbitration id (default 0x000)")
	max := fs.String("max", "", "last request arbitration id (default 0x7FF)")
	blacklist := fs.String("b", "", "comma-separated blacklisted ids")
	autoBlacklist := fs.Duration("ab", 0, "passive auto-blacklist listening duration")
	verify := fs.Bool("sv", false, "verify candidate hits with a 5-slot backtrack")
	delay := fs.Duration("d", 200*time.Millisecond, "per-probe drain window")
	extended := fs.Bool("e", false, "use 29-bit extended arbitration ids")
	if err := fs.Parse(args); err != nil {
		return err
	}

	minID := uint32(0)
	maxID := uds.MaxStandardArbitrationID
	if *extended {
		maxID = uds.MaxExtendedArbitrationID
	}
	if *min != "" {
		v, err := parseID(*min)
		if err != nil {
			return err
		}
		minID = v
		if minID > uds.MaxStandardArbitrationID {
			maxID = uds.MaxExtendedArbitrationID
		}
	}
	if *max != "" {
		v, err := parseID(*max)
		if err != nil {
			return err
		}
		maxID = v
	}

	blacklistSet := make(map[uint32]struct{})
	if *blacklist != "" {
		for _, tok := range strings.Split(*blacklist, ",") {
			v, err := parseID(strings.TrimSpace(tok))
			if err != nil {
				return err
			}
			blacklistSet[v] = struct{}{}
		}
	}

	canBus, err := bus.connect()
	if err != nil {
		return err
	}
	defer canBus.Disconnect()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	opts := scan.DiscoveryOptions{
		MinID:                 minID,
		MaxID:                 maxID,
		Blacklist:             blacklistSet,
		AutoBlacklistDuration: *autoBlacklist,
		Delay:                 *delay,
		Verify:                *verify,
		Extended:              *extended,
	}

	found, err := scan.DiscoverEndpoints(ctx, canBus, opts)
	if err != nil {
		return err
	}
	for _, ep := range found {
		fmt.Printf("request=0x%s response=0x%s\n", strconv.FormatUint(uint64(ep.RequestID), 16), strconv.FormatUint(uint64(ep.ResponseID), 16))
	}
	return nil
}
