// ppc rewrites stored bytecode units so doubled unary sign markers
// become real in-place increments and decrements.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/borzunov/plusplus/manifest"
	"github.com/borzunov/plusplus/pkg/bytecode"
	"github.com/borzunov/plusplus/pkg/loader"
	"github.com/borzunov/plusplus/pkg/rewrite"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	disasm := flag.String("d", "", "Disassemble the stored unit at this path and exit")
	run := flag.String("run", "", "Rewrite and execute the stored unit at this path, print the result")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ppc [options] [dir]\n\n")
		fmt.Fprintf(os.Stderr, "Rewrites the unit store configured by plusplus.toml in dir (default \".\"):\n")
		fmt.Fprintf(os.Stderr, "every unit under the manifest's rewrite namespaces gets its increment\n")
		fmt.Fprintf(os.Stderr, "markers turned into in-place mutations, in place.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  ppc                    # Rewrite the store in the current project\n")
		fmt.Fprintf(os.Stderr, "  ppc -v ./app           # Rewrite app's store, report each unit\n")
		fmt.Fprintf(os.Stderr, "  ppc -d app.counters    # Show the stored bytecode for app.counters\n")
		fmt.Fprintf(os.Stderr, "  ppc -run app.main      # Rewrite app.main in memory and run it\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)

	dir := "."
	if flag.NArg() > 0 {
		dir = flag.Arg(0)
	}

	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if m == nil {
		fmt.Fprintf(os.Stderr, "Error: no plusplus.toml found in or above %s\n", dir)
		os.Exit(1)
	}

	store, err := loader.OpenStore(m.StorePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	var opts []rewrite.Option
	if m.Rewrite.CapturePrefix != "" {
		opts = append(opts, rewrite.WithCapturePrefix(m.Rewrite.CapturePrefix))
	}
	if m.Rewrite.DisableCaptureFilter {
		opts = append(opts, rewrite.WithoutCaptureFilter())
	}

	switch {
	case *disasm != "":
		u, err := store.LoadUnit(*disasm)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(u.Disassemble())

	case *run != "":
		u, err := store.LoadUnit(*run)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		u, err = rewrite.Rewrite(u, opts...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		result, err := bytecode.NewVM().Exec(u)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(result.String())

	default:
		total := 0
		for _, ns := range m.Rewrite.Namespaces {
			n, err := rewriteNamespace(store, ns, opts, *verbose)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			total += n
		}
		fmt.Printf("Rewrote %d unit(s)\n", total)
	}
}

func rewriteNamespace(store *loader.Store, ns string, opts []rewrite.Option, verbose bool) (int, error) {
	paths, err := store.List(ns)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, path := range paths {
		u, err := store.LoadUnit(path)
		if err != nil {
			return n, err
		}
		ru, err := rewrite.Rewrite(u, opts...)
		if err != nil {
			var rerr *rewrite.Error
			if errors.As(err, &rerr) {
				return n, fmt.Errorf("%s: %w", path, err)
			}
			return n, err
		}
		source, err := store.LoadSource(path)
		if err != nil && !errors.Is(err, loader.ErrNotFound) {
			return n, err
		}
		if err := store.SaveUnit(path, ru, source); err != nil {
			return n, err
		}
		if verbose {
			fmt.Printf("  %s: %d -> %d instructions\n", path, u.Len(), ru.Len())
		}
		n++
	}
	return n, nil
}
