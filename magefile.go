//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
// If not set, running mage will list available targets
var Default = Build

// Build compiles every executable of the module
func Build() error {
	mg.Deps(BuildAnalyzer)
	fmt.Println("Compilation finished")
	return nil
}

// The HDF5 writer needs cgo, CGO_CFLAGS and CGO_LDFLAGS must point to the
// HDF5 installation
func BuildAnalyzer() error {
	fmt.Println("Building analyzer executable...")
	return goCommand("build", "-o", "./bin/analyzer", "./analyzer")
}

// Test runs the unit tests that do not need the HDF5 library
func Test() error {
	fmt.Println("Running tests...")
	return goCommand("test", "-tags", "nohdf5", "./...")
}

// TestHDF5 also runs the HDF5 writer tests, which need the HDF5 library
func TestHDF5() error {
	fmt.Println("Running tests with HDF5...")
	return goCommand("test", "-tags", "hdf5", "./...")
}

func goCommand(args ...string) error {
	ldflags := os.Getenv("CGO_LDFLAGS")
	cflags := os.Getenv("CGO_CFLAGS")
	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", ldflags),
		fmt.Sprintf("CGO_CFLAGS=%s", cflags))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
