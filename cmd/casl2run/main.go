// Command casl2run assembles and runs a CASL II source file against the
// COMET II model: assemble -> load -> run, with optional execution trace,
// a gdb-style debugger, and a live event stream for external tooling.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/casl2/comet2emu/debugger"
	"github.com/casl2/comet2emu/internal/casl"
	"github.com/casl2/comet2emu/internal/config"
	"github.com/casl2/comet2emu/internal/cpu"
	"github.com/casl2/comet2emu/internal/eventbus"
	"github.com/casl2/comet2emu/internal/loader"
	"github.com/casl2/comet2emu/internal/trace"
	"github.com/casl2/comet2emu/internal/word"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version information")
		showHelp    = flag.Bool("help", false, "show help information")
		src         = flag.String("src", "", "CASL II source file to assemble and run")
		entryFlag   = flag.String("entry", "", "override the entry address (hex 0x... or decimal), default: the assembled START label")
		maxCycles   = flag.Uint64("max-cycles", 0, "maximum instructions before a forced halt (0: use the config file's value)")
		configPath  = flag.String("config", "", "TOML config file path (default: the platform config directory)")
		enableTrace = flag.Bool("trace", false, "print one line per executed instruction to stderr")
		debugMode   = flag.Bool("debug", false, "start the line-oriented debugger instead of running to completion")
		tuiMode     = flag.Bool("tui", false, "start the tcell/tview single-step debugger instead of running to completion")
		apiServer   = flag.Bool("api-server", false, "serve the live Update event stream over a WebSocket while running (or, with no -src, standalone)")
		apiPort     = flag.Int("port", 8080, "port for -api-server")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("casl2run %s (%s)\n", Version, Commit)
		os.Exit(0)
	}
	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	if *apiServer && *src == "" {
		runAPIServer(*apiPort)
		return
	}

	if *src == "" {
		printHelp()
		os.Exit(1)
	}

	limit := *maxCycles
	if limit == 0 {
		limit = cfg.Execution.MaxCycles
	}

	c := cpu.New()
	c.Init(cpu.ZeroFill)

	obj, err := loader.LoadFile(c, *src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load error: %v\n", err)
		os.Exit(1)
	}

	if *entryFlag != "" {
		entry, perr := parseAddr(*entryFlag)
		if perr != nil {
			fmt.Fprintf(os.Stderr, "invalid -entry: %v\n", perr)
			os.Exit(1)
		}
		c.PR = entry
	}

	if *debugMode || *tuiMode {
		dbg := debugger.NewDebugger(c, cfg)
		dbg.LoadObject(obj)

		if *tuiMode {
			if err := debugger.RunTUI(dbg); err != nil {
				fmt.Fprintf(os.Stderr, "tui error: %v\n", err)
				os.Exit(1)
			}
			return
		}

		fmt.Printf("casl2run debugger - type 'help' for commands\nprogram loaded: %s\n\n", *src)
		if err := debugger.RunCLI(dbg); err != nil {
			fmt.Fprintf(os.Stderr, "debugger error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	traceOn := *enableTrace || cfg.Execution.EnableTrace

	if *apiServer {
		runWithEventServer(c, limit, traceOn, cfg, *apiPort, *src)
		return
	}

	runToCompletion(c, limit, traceOn, cfg, nil, "")
}

// runToCompletion steps the machine one instruction at a time until it
// halts or maxCycles instructions have executed without a halt. When trace
// is set it both echoes one line per instruction to stderr and, if
// cfg.Trace.OutputFile names a file, accumulates a fuller record (register
// deltas, optionally flags, rendered per cfg.Display.NumberFormat) flushed
// to that file once the run ends.
//
// When broadcaster is non-nil, every micro-step Update the CPU produces
// (fetch, decode, address generation, execute, and the end-of-instruction
// step) is published under sessionID, not just one Update per instruction -
// StepInstruction alone would discard everything but the last.
func runToCompletion(c *cpu.CPU, maxCycles uint64, enableTrace bool, cfg *config.Config, broadcaster *eventbus.Broadcaster, sessionID string) {
	var tr *trace.Trace
	var traceFile *os.File
	if enableTrace && cfg.Trace.OutputFile != "" {
		f, err := os.Create(cfg.Trace.OutputFile) // #nosec G304 -- user config file path
		if err != nil {
			fmt.Fprintf(os.Stderr, "trace file error: %v\n", err)
			os.Exit(1)
		}
		traceFile = f
		defer traceFile.Close()

		tr = trace.New(traceFile)
		tr.IncludeFlags = cfg.Trace.IncludeFlags
		tr.MaxEntries = cfg.Trace.MaxEntries
		tr.NumberFormat = cfg.Display.NumberFormat
	}

	var executed uint64
	for c.MachineCycle != cpu.CycleEnd {
		addr := c.PR
		ir0 := c.Memory.Read(addr)
		var ir1 word.Word
		twoWord := cpu.IsTwoWord(ir0)
		if twoWord {
			ir1 = c.Memory.Read(addr + 1)
		}
		disasm := casl.FormatInstruction(addr, cpu.Decode([2]word.Word{ir0, ir1}))

		u := stepInstruction(c, broadcaster, sessionID)
		executed++

		if enableTrace {
			fmt.Fprintf(os.Stderr, "PR=0x%04X %v\n", uint16(addr), u)
			if tr != nil {
				tr.Record(c, executed, disasm)
			}
		}

		if u.Kind == cpu.UpdateEnd {
			if u.Halt != cpu.HaltNormal {
				fmt.Fprintf(os.Stderr, "halted abnormally: %v\n", u)
				flushTrace(tr)
				os.Exit(1)
			}
			break
		}

		if maxCycles > 0 && executed >= maxCycles {
			fmt.Fprintf(os.Stderr, "stopped after %d instructions (max-cycles reached)\n", executed)
			flushTrace(tr)
			os.Exit(1)
		}
	}

	flushTrace(tr)
}

// stepInstruction advances c through one whole instruction by looping
// StepMicro (never StepInstruction, which only returns its last Update),
// publishing every micro-step's Update to broadcaster when one is given.
// Mirrors cpu.CPU.StepInstruction's own loop shape, since internal/cpu stays
// free of any eventbus dependency.
func stepInstruction(c *cpu.CPU, broadcaster *eventbus.Broadcaster, sessionID string) cpu.Update {
	u := c.StepMicro()
	if broadcaster != nil {
		broadcaster.Publish(sessionID, u)
	}
	for c.MachineCycle != cpu.CycleEnd && !(c.MachineCycle == cpu.CycleFetch && c.StepCycle == 0) {
		u = c.StepMicro()
		if broadcaster != nil {
			broadcaster.Publish(sessionID, u)
		}
	}
	return u
}

func flushTrace(tr *trace.Trace) {
	if tr == nil {
		return
	}
	if err := tr.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "trace flush error: %v\n", err)
	}
}

// runWithEventServer runs src's program to completion the same way
// runToCompletion always has, while a Broadcaster fans out every Update it
// produces over /ws. The server keeps serving (so a UI can keep watching
// the final state) until SIGINT/SIGTERM, at which point it shuts down
// gracefully.
func runWithEventServer(c *cpu.CPU, maxCycles uint64, enableTrace bool, cfg *config.Config, port int, sessionID string) {
	broadcaster := eventbus.NewBroadcaster()
	defer broadcaster.Close()

	server := eventbus.NewServer(fmt.Sprintf(":%d", port), broadcaster)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var shutdownOnce sync.Once
	shutdown := func() {
		shutdownOnce.Do(func() {
			fmt.Println("\nshutting down event server...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
			}
		})
	}

	serverErr := make(chan error, 1)
	go func() {
		fmt.Printf("event server listening on :%d, streaming session %q\n", port, sessionID)
		serverErr <- server.Start()
	}()

	runToCompletion(c, maxCycles, enableTrace, cfg, broadcaster, sessionID)

	fmt.Printf("run finished (%d subscriber(s), %d update(s) dropped); still serving /ws until interrupted (Ctrl+C)\n",
		broadcaster.SubscriptionCount(), broadcaster.Dropped())

	select {
	case <-sigChan:
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "event server error: %v\n", err)
		}
	}
	shutdown()
}

// runAPIServer starts the read-only event WebSocket without assembling or
// running any program; it exists for a UI that wants to attach to a CPU
// another casl2run invocation (in the same process, via an embedding host)
// is stepping. Standalone, it serves /health and an empty /ws stream.
func runAPIServer(port int) {
	broadcaster := eventbus.NewBroadcaster()
	defer broadcaster.Close()

	server := eventbus.NewServer(fmt.Sprintf(":%d", port), broadcaster)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var shutdownOnce sync.Once
	shutdown := func() {
		shutdownOnce.Do(func() {
			fmt.Println("\nshutting down event server...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
				os.Exit(1)
			}
		})
	}

	go func() {
		fmt.Printf("event server listening on :%d\n", port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "event server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-sigChan
	shutdown()
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

func parseAddr(s string) (word.Word, error) {
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 16)
	if err != nil {
		return 0, err
	}
	return word.Word(v), nil
}

func printHelp() {
	fmt.Printf(`casl2run %s

Usage: casl2run -src program.cas [options]
       casl2run -api-server [-port N]

Options:
  -src FILE          CASL II source file to assemble and run
  -entry ADDR        override the entry address (hex 0x.. or decimal)
  -max-cycles N       maximum instructions before a forced halt (0: use config)
  -config FILE        TOML config file (default: platform config directory)
  -trace              print one line per executed instruction to stderr,
                      and write a fuller record to the config file's
                      [trace] output_file if one is set
  -debug              start the line-oriented debugger
  -tui                start the tcell/tview single-step debugger
  -api-server         serve the live Update event stream over a WebSocket;
                      combined with -src, every micro-step Update the run
                      produces is published as it happens; alone, it serves
                      /health and an empty /ws stream for an external stepper
  -port N             port for -api-server (default: 8080)
  -version            show version information
  -help               show this help message

Debugger commands (-debug/-tui): run, continue, step, micro, next, finish,
break, tbreak, delete, enable, disable, print, x, info, list, reset, help.

Examples:
  casl2run -src examples/sum.cas
  casl2run -trace -src examples/sum.cas
  casl2run -debug -src examples/sum.cas
  casl2run -tui -src examples/sum.cas
  casl2run -src examples/sum.cas -api-server -port 9000
  casl2run -api-server -port 9000
`, Version)
}
