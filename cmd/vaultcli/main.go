package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// commands maps the first program argument to its implementation. A command
// reads from input, writes its result to output and parses the remaining
// arguments itself.
//
// Commands only inspect data and never modify any state, so they combine
// well in a pipe:
//
//   $ xxd -p -c 0 vault.bin | vaultcli decode-vault
//
var commands = map[string]func(input io.Reader, output io.Writer, args []string) error{
	"decode-instruction": cmdDecodeInstruction,
	"decode-vault":       cmdDecodeVault,
	"derive-authority":   cmdDeriveAuthority,
	"vault-len":          cmdVaultLen,
	"version":            cmdVersion,
	"view-tx":            cmdTransactionView,
}

func main() {
	if len(os.Args) == 1 {
		fmt.Fprintf(os.Stderr, "%s inspects guardian vault records, instructions and transactions.\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s <command> [<flags>]\n", os.Args[0])
		printCommands(os.Stderr)
		os.Exit(2)
	}
	run, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", os.Args[1])
		printCommands(os.Stderr)
		os.Exit(2)
	}
	if err := run(os.Stdin, os.Stdout, os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printCommands(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintf(w, "\nAvailable commands are:\n\t%s\n", strings.Join(names, "\n\t"))
	fmt.Fprintf(w, "Run '%s <command> -help' to learn more about each command.\n", os.Args[0])
}

func cmdVersion(in io.Reader, out io.Writer, args []string) error {
	fmt.Fprintln(out, gitHash)
	return nil
}

// gitHash is set during the compilation time.
var gitHash = "dev"
