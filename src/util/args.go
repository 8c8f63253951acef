package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Options holds the parsed command line configuration for one invocation of
// the trampoline CLI.
type Options struct {
	Desc    string // Path to the JSON call-descriptor file.
	Out     string // Path to the output file (sim report, assembler text or object code); empty means stdout for text, no file for an object.
	Threads int    // Number of descriptor-file calls run in parallel.
	Verbose bool   // Set true to raise the log level to debug, logging each executed call.
	ABI     int    // Selected ilp32/ilp32f/ilp32d ABI variant.
	Backend int    // Selected execution backend: sim, asmtext or llvmgen.
}

// ---------------------
// ----- Constants -----
// ---------------------

const maxThreads = 64 // Maximum threads allowed executing in parallel.
const appVersion = "rv32call 1.0"

// ABI variant selectors, mirrored from abi.ABI so util stays independent of
// the abi package.
const (
	ABIUnknown = iota
	ABISoft
	ABISingle
	ABIDouble
)

// Execution backend selectors.
const (
	BackendUnknown = iota
	BackendSim
	BackendAsm
	BackendLLVM
)

// ---------------------
// ----- functions -----
// ---------------------

// ParseArgs parses command line arguments.
func ParseArgs() (Options, error) {
	opt := Options{ABI: ABISoft, Backend: BackendSim, Threads: 1}
	if len(os.Args) < 2 {
		return opt, nil
	}
	args := os.Args[1:]
	for i1 := 0; i1 < len(args); i1++ {
		switch args[i1] {
		case "-h", "--h", "-help", "--help":
			printHelp()
			os.Exit(0)
		case "-o", "-t", "-desc", "-abi", "-backend":
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			if strings.HasPrefix(args[i1+1], "-") {
				return opt, fmt.Errorf("expected argument, got new flag %s", args[i1+1])
			}
			switch args[i1] {
			case "-o":
				opt.Out = args[i1+1]
			case "-desc":
				opt.Desc = args[i1+1]
			case "-t":
				if t, err := strconv.Atoi(args[i1+1]); err == nil {
					if t > 0 && t <= maxThreads {
						opt.Threads = t
					} else {
						return opt, fmt.Errorf("thread count must be integer in range [1, %d]", maxThreads)
					}
				} else {
					return opt, fmt.Errorf("expected integer thread count, got: %s", args[i1+1])
				}
			case "-abi":
				switch args[i1+1] {
				case "ilp32", "soft":
					opt.ABI = ABISoft
				case "ilp32f", "single":
					opt.ABI = ABISingle
				case "ilp32d", "double":
					opt.ABI = ABIDouble
				default:
					return opt, fmt.Errorf("unexpected ABI identifier: %s", args[i1+1])
				}
			case "-backend":
				switch args[i1+1] {
				case "sim":
					opt.Backend = BackendSim
				case "asm", "asmtext":
					opt.Backend = BackendAsm
				case "llvm", "llvmgen":
					opt.Backend = BackendLLVM
				default:
					return opt, fmt.Errorf("unexpected backend identifier: %s", args[i1+1])
				}
			}
			i1++
		case "-v", "--v", "-version", "--version":
			fmt.Println(appVersion)
			os.Exit(0)
		case "-vb":
			opt.Verbose = true
		default:
			return opt, fmt.Errorf("unexpected flag: %s", args[i1])
		}
	}
	return opt, nil
}

// printHelp prints a helpful usage message to stdout.
func printHelp() {
	w := tabwriter.NewWriter(os.Stdout, 6, 1, 1, 0, 0)
	_, _ = fmt.Fprintln(w, "-h, -help\tPrints this help message and exits the application.")
	_, _ = fmt.Fprintln(w, "--h, --help")
	_, _ = fmt.Fprintln(w, "-desc\tPath to a JSON call-descriptor file to execute.")
	_, _ = fmt.Fprintln(w, "-abi\tilp32 (soft), ilp32f (single) or ilp32d (double). Defaults to ilp32.")
	_, _ = fmt.Fprintln(w, "-backend\tsim, asmtext or llvmgen. Defaults to sim.")
	_, _ = fmt.Fprintln(w, "-o\tPath to the output file: sim report, asmtext assembler or llvmgen object.")
	_, _ = fmt.Fprintf(w, "-t\tNumber of descriptor-file calls to run in parallel. Must be in range [1, %d].\n", maxThreads)
	_, _ = fmt.Fprintln(w, "-v, -version\tPrints application version and exits the application.")
	_, _ = fmt.Fprintln(w, "--v, --version")
	_, _ = fmt.Fprintln(w, "-vb\tVerbose mode: debug-level log (to stderr) of each executed call's callee and return type.")
	_ = w.Flush()
}
