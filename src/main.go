package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"rv32call/src/abi"
	"rv32call/src/call"
	"rv32call/src/descfile"
	"rv32call/src/util"
)

var log = logrus.New()

// toABI maps a util.Options ABI selector onto its abi.ABI counterpart.
func toABI(v int) abi.ABI {
	switch v {
	case util.ABISingle:
		return abi.Single
	case util.ABIDouble:
		return abi.DoubleFP
	default:
		return abi.Soft
	}
}

// toBackend maps a util.Options backend selector onto its call.Backend
// counterpart.
func toBackend(v int) call.Backend {
	switch v {
	case util.BackendAsm:
		return call.BackendAsmText
	case util.BackendLLVM:
		return call.BackendLLVM
	default:
		return call.BackendSim
	}
}

// formatResult renders a demoted abi.Value as a human-readable string
// appropriate for its return type.
func formatResult(ret abi.RetType, v abi.Value) string {
	switch ret {
	case abi.RetVoid:
		return "(void)"
	case abi.RetFloat:
		return fmt.Sprintf("%g", v.AsFloat32())
	case abi.RetDouble:
		return fmt.Sprintf("%g", v.AsFloat64())
	case abi.RetLongLong:
		return fmt.Sprintf("%d", int64(v.Bits64()))
	default:
		return fmt.Sprintf("%d", int32(v.Lo))
	}
}

// runOne executes or generates code for a single descriptor, writing its
// result through w.
func runOne(desc abi.CallDescriptor, opt util.Options, w *util.Writer) error {
	callOpt := call.Options{ABI: toABI(opt.ABI), Backend: toBackend(opt.Backend), Out: opt.Out}

	if callOpt.Backend == call.BackendSim {
		val, err := call.Call(desc, callOpt)
		if err != nil {
			return fmt.Errorf("callee 0x%x: %w", desc.Callee, err)
		}
		log.WithFields(logrus.Fields{"callee": fmt.Sprintf("0x%x", desc.Callee), "ret": desc.Ret.String()}).Debug("call executed")
		w.Write("callee 0x%x -> %s\n", desc.Callee, formatResult(desc.Ret, val))
		return nil
	}

	art, err := call.Generate(desc, fmt.Sprintf("callee_0x%x", desc.Callee), callOpt)
	if err != nil {
		return fmt.Errorf("callee 0x%x: %w", desc.Callee, err)
	}
	if callOpt.Backend == call.BackendAsmText {
		w.WriteString(art.Assembly)
	} else {
		log.WithField("bytes", len(art.Object.Object)).Info("object emitted")
		if art.Object.Path != "" {
			w.Write("wrote object to %s\n", art.Object.Path)
		}
	}
	return nil
}

// run reads the configured descriptor file and executes every call it
// contains, in parallel across opt.Threads workers when more than one
// descriptor is present.
func run(opt util.Options, w *util.Writer) error {
	raw, err := util.ReadDescriptor(opt)
	if err != nil {
		return fmt.Errorf("could not read call descriptor: %w", err)
	}

	descs, err := descfile.Load([]byte(raw))
	if err != nil {
		return fmt.Errorf("could not parse call descriptor: %w", err)
	}

	if opt.Threads <= 1 || len(descs) <= 1 {
		for _, d := range descs {
			if err := runOne(d, opt, w); err != nil {
				return err
			}
		}
		return nil
	}

	pe := util.NewCallErrors(len(descs))
	defer pe.Stop()

	sem := make(chan struct{}, opt.Threads)
	var wg sync.WaitGroup
	for _, d := range descs {
		d := d
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			pe.Append(runOne(d, opt, w))
		}()
	}
	wg.Wait()

	if pe.Len() > 0 {
		return fmt.Errorf("%d of %d calls failed", pe.Len(), len(descs))
	}
	return nil
}

func main() {
	opt, err := util.ParseArgs()
	if err != nil {
		fmt.Printf("Command line argument error: %s\n", err)
		os.Exit(1)
	}
	if opt.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	if opt.Desc == "" {
		fmt.Println("no call descriptor given; use -desc or -h for help")
		os.Exit(1)
	}

	wg := sync.WaitGroup{}
	var f *os.File
	if len(opt.Out) > 0 && toBackend(opt.Backend) != call.BackendLLVM {
		// The sim report and asmtext assembler go through opt.Out; the
		// llvmgen backend writes its object file to opt.Out itself.
		f, err = os.OpenFile(opt.Out, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				fmt.Println(cerr)
			}
		}()
	}
	util.ListenWrite(opt, f, &wg)
	defer util.Close()

	w := util.NewWriter()
	if err := run(opt, &w); err != nil {
		log.Error(err)
	}
	w.Close()

	wg.Wait()
}
