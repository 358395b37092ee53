// Command kvm-cli is an interactive client for kvmd.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/korthochain/kvm/pkg/client"
	"github.com/spf13/pflag"
)

func main() {
	fs := pflag.NewFlagSet("kvm-cli", pflag.ExitOnError)
	addr := fs.StringP("address", "a", "127.0.0.1:55555", "server address")
	timeout := fs.DurationP("timeout", "t", 5*time.Second, "dial and request timeout")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: kvm-cli [flags] [command]\n\n")
		fmt.Fprintf(os.Stderr, "commands:\n%s\n", client.Usage)
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	c, err := client.Dial(*addr, client.WithDialTimeout(*timeout), client.WithIOTimeout(*timeout))
	if err != nil {
		fmt.Fprintln(os.Stderr, "kvm-cli:", err)
		os.Exit(1)
	}
	defer c.Close()

	con := client.NewConsole(c, os.Stdout)
	if fs.NArg() > 0 {
		con.Execute(strings.Join(fs.Args(), " "))
		return
	}

	interactive := false
	if fi, err := os.Stdin.Stat(); err == nil {
		interactive = fi.Mode()&os.ModeCharDevice != 0
	}
	if interactive {
		fmt.Printf("Connected to %s. Supported requests:\n%s", *addr, client.Usage)
	}
	if err := con.Run(os.Stdin, interactive); err != nil {
		fmt.Fprintln(os.Stderr, "kvm-cli:", err)
		os.Exit(1)
	}
}
