// Command udsrecon drives the scanners in pkg/scan from the command
// line: one subcommand per operation, each its own flag.FlagSet rather
// than a single parser shared across modes.
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "discovery":
		err = runDiscovery(os.Args[2:])
	case "services":
		err = runServices(os.Args[2:])
	case "service_scan":
		err = runServiceScan(os.Args[2:])
	case "ext_service_scan":
		err = runExtServiceScan(os.Args[2:])
	case "ecu_reset":
		err = runECUReset(os.Args[2:])
	case "testerpresent":
		err = runTesterPresent(os.Args[2:])
	case "security_seed":
		err = runSecuritySeed(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "udsrecon:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: udsrecon <command> [flags]

commands:
  discovery          brute-force (request id, response id) pairs
  services           probe supported UDS services on one endpoint
  service_scan       scan sub-functions or identifiers for one service
  ext_service_scan   like service_scan, entering an extended session first
  ecu_reset          issue a single ECU reset and decode the reply
  testerpresent      send periodic keep-alive requests
  security_seed      capture security-access seeds in a loop`)
}
