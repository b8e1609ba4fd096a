package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"xvm/internal/config"
	"xvm/internal/paths"
	"xvm/internal/shim"
)

// Dispatch runs in shim mode: the binary was invoked as name, so the call is
// forwarded to `xvm run name --args args...`. It returns the exit code.
func Dispatch(name string, args []string) int {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", shim.DispatcherName, err)
		return 1
	}
	layout, err := paths.Resolve(cfg, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", shim.DispatcherName, err)
		return 1
	}

	defer forwardInterrupts()()
	return shim.Dispatcher{BinDir: layout.BinDir}.Dispatch(context.Background(), name, args)
}

// forwardInterrupts keeps this process alive on Ctrl-C while a child runs.
func forwardInterrupts() (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	return func() { signal.Stop(ch) }
}
