package main

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// sl is a short alias that replaces itself with the shoploom binary.
func main() {
	bin, err := exec.LookPath("shoploom")
	if err != nil {
		fmt.Fprintln(os.Stderr, "sl: shoploom not found on PATH")
		os.Exit(1)
	}
	if err := syscall.Exec(bin, append([]string{"shoploom"}, os.Args[1:]...), os.Environ()); err != nil {
		fmt.Fprintf(os.Stderr, "sl: %v\n", err)
		os.Exit(1)
	}
}
