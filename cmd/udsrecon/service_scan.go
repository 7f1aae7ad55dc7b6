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

// runServiceScan dispatches SID to the matching sub-function or
// identifier scanner: 0x10 (diagnostic session control) scans
// sub-functions, 0x31 (routine control) and 0x2F (I/O control) scan
// identifier ranges. enterExtendedFirst is true for ext_service_scan.
func runServiceScan(args []string) error {
	return serviceScan(args, false)
}

func runExtServiceScan(args []string) error {
	return serviceScan(args, true)
}

func serviceScan(args []string, enterExtendedFirst bool) error {
	fs := flag.NewFlagSet("service_scan", flag.ExitOnError)
	bus := bindBusFlags(fs)
	extended := fs.Bool("e", false, "use 29-bit extended arbitration ids")
	oem := fs.Bool("oem", false, "use the OEM identifier-range preset")
	sss := fs.Bool("sss", false, "use the supplier identifier-range preset")
	saf := fs.Bool("saf", false, "use the safety-only identifier-range preset (data identifiers only)")
	min := fs.String("min", "", "first identifier/sub-function")
	max := fs.String("max", "", "last identifier/sub-function")
	timeout := fs.Duration("t", 0, "per-probe timeout (default: client's P3)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) < 3 {
		return fmt.Errorf("service_scan: usage: SID SRC DST [flags]")
	}
	sid, err := parseByte(rest[0])
	if err != nil {
		return err
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

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	endpoint := scan.Endpoint{RequestID: requestID, ResponseID: responseID}

	if enterExtendedFirst {
		if _, err := client.Request(ctx, requestID, uds.EncodeDiagnosticSessionControl(uds.SessionExtendedDiag), client.P3Client()); err != nil {
			return err
		}
	}

	switch sid {
	case uds.SIDDiagnosticSessionControl:
		opts := scan.DefaultSessionScanOptions()
		applyByteBounds(min, max, &opts.MinSubfunction, &opts.MaxSubfunction)
		opts.Timeout = *timeout
		found, err := scan.ScanSessionSubfunctions(ctx, client, endpoint, opts)
		if err != nil {
			return err
		}
		for _, subfn := range found {
			fmt.Printf("session subfunction 0x%02x\n", subfn)
		}

	case uds.SIDRoutineControl:
		opts := scan.DefaultRoutineScanOptions()
		if *oem {
			opts.Range = uds.RoutineIdentifierOEMPreset
		}
		if *sss {
			opts.Range = uds.RoutineIdentifierSupplierPreset
		}
		applyRangeBounds(min, max, &opts.Range)
		opts.Timeout = *timeout
		found, err := scan.ScanRoutineIdentifiers(ctx, client, endpoint, opts)
		if err != nil {
			return err
		}
		printIdentifierFindings(found)

	case uds.SIDInputOutputControlByIdentifier:
		opts := scan.DefaultIOControlScanOptions()
		if *oem {
			opts.Range = uds.DataIdentifierOEMPreset
		}
		if *sss {
			opts.Range = uds.DataIdentifierSupplierPreset
		}
		if *saf {
			opts.Range = uds.DataIdentifierSafetyPreset
		}
		applyRangeBounds(min, max, &opts.Range)
		opts.Timeout = *timeout
		found, err := scan.ScanIOControlIdentifiers(ctx, client, endpoint, opts)
		if err != nil {
			return err
		}
		printIdentifierFindings(found)

	default:
		return fmt.Errorf("service_scan: no scanner defined for SID 0x%02x", sid)
	}
	return nil
}

func printIdentifierFindings(found []scan.IdentifierFinding) {
	for _, f := range found {
		if f.Anomaly != "" {
			fmt.Printf("identifier 0x%04x %s (%s)\n", f.ID, f.Status, f.Anomaly)
			continue
		}
		fmt.Printf("identifier 0x%04x %s\n", f.ID, f.Status)
	}
}

func applyByteBounds(min, max *string, lo, hi *byte) {
	if *min != "" {
		if v, err := parseByte(*min); err == nil {
			*lo = v
		}
	}
	if *max != "" {
		if v, err := parseByte(*max); err == nil {
			*hi = v
		}
	}
}

func applyRangeBounds(min, max *string, rangeSet *uds.RangeSet) {
	if *min == "" && *max == "" {
		return
	}
	lo, hi := uint32(0), uint32(0xFFFF)
	if len(*rangeSet) > 0 {
		lo, hi = (*rangeSet)[0].Min, (*rangeSet)[len(*rangeSet)-1].Max
	}
	if *min != "" {
		if v, err := parseID(*min); err == nil {
			lo = v
		}
	}
	if *max != "" {
		if v, err := parseID(*max); err == nil {
			hi = v
		}
	}
	*rangeSet = uds.RangeSet{{Min: lo, Max: hi}}
}
