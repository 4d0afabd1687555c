// Command regionvmdemo exercises a regionvm.Manager against a slab
// obtained from regionvm/bootstrap: it sbrks, maps a few regions,
// remaps one of them, unmaps another, and prints the resulting
// invariant state.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/flatspace/regionvm/bootstrap"

	"github.com/flatspace/regionvm"
)

func main() {
	size := flag.Int("size", 1<<20, "size in bytes of the region to manage")
	verbose := flag.Bool("verbose", false, "log every mutating operation")
	flag.Parse()

	if err := run(*size, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "regionvmdemo:", err)
		os.Exit(1)
	}
}

func run(size int, verbose bool) error {
	slab, err := bootstrap.New(size)
	if err != nil {
		return err
	}
	defer slab.Release()

	logger := logrus.New()
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}

	mgr, err := regionvm.New(slab.Bytes,
		regionvm.WithSanity(true),
		regionvm.WithScrub(true),
		regionvm.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}

	if _, err := mgr.Sbrk(4096); err != nil {
		return fmt.Errorf("sbrk: %w", err)
	}

	prot := regionvm.ProtRead | regionvm.ProtWrite
	flags := regionvm.MapAnonymous | regionvm.MapPrivate

	a, err := mgr.Map(0, 8192, prot, flags)
	if err != nil {
		return fmt.Errorf("map a: %w", err)
	}

	b, err := mgr.Map(0, 4096, prot, flags)
	if err != nil {
		return fmt.Errorf("map b: %w", err)
	}

	a2, err := mgr.Remap(a, 8192, 16384, regionvm.RemapMayMove)
	if err != nil {
		return fmt.Errorf("remap a: %w", err)
	}

	if err := mgr.Unmap(b, 4096); err != nil {
		return fmt.Errorf("unmap b: %w", err)
	}

	fmt.Printf("base=%#x brk=%#x map=%#x end=%#x\n",
		mgr.Base(), mgr.Brk(), mgr.MapTop(), mgr.End())
	fmt.Printf("a moved from %#x to %#x\n", a, a2)
	fmt.Printf("sane=%v\n", mgr.IsSane())

	return nil
}
