package main

import (
	"encoding/base64"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/iov-one/guardvault"
)

// flAddress returns a value that is being initialized with given default value
// and optionally overwritten by a command line argument if provided. This
// function follows Go's flag package convention.
// If given value cannot be deserialized to required type, process is
// terminated.
func flAddress(fl *flag.FlagSet, name, defaultVal, usage string) *guardvault.Address {
	var a guardvault.Address
	if defaultVal != "" {
		var err error
		a, err = guardvault.ParseAddress(defaultVal)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot parse %q address flag value. %s", name, err)
			os.Exit(2)
		}
	}
	fl.Var(&a, name, usage)
	return &a
}

// flAddresses returns a list of addresses given as a comma separated flag
// value.
func flAddresses(fl *flag.FlagSet, name, usage string) *addressList {
	var l addressList
	fl.Var(&l, name, usage)
	return &l
}

type addressList []guardvault.Address

func (l addressList) String() string {
	s := make([]string, len(l))
	for i, a := range l {
		s[i] = a.String()
	}
	return strings.Join(s, ",")
}

func (l *addressList) Set(raw string) error {
	var out addressList
	for _, enc := range strings.Split(raw, ",") {
		enc = strings.TrimSpace(enc)
		if enc == "" {
			continue
		}
		a, err := guardvault.ParseAddress(enc)
		if err != nil {
			return err
		}
		out = append(out, a)
	}
	*l = out
	return nil
}

// readInput reads the whole input and decodes it according to given
// encoding: hex, base64 or raw.
func readInput(input io.Reader, encoding string) ([]byte, error) {
	raw, err := ioutil.ReadAll(input)
	if err != nil {
		return nil, fmt.Errorf("cannot read input: %s", err)
	}
	switch encoding {
	case "raw":
	case "hex":
		raw, err = hex.DecodeString(strings.TrimSpace(string(raw)))
	case "base64":
		raw, err = base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	default:
		return nil, fmt.Errorf("unknown encoding %q", encoding)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot decode %s input: %s", encoding, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("no input data")
	}
	return raw, nil
}

// flagDie terminates the process after printing the message. Use it when a
// flag value is invalid.
func flagDie(description string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, description, args...)
	fmt.Fprintln(os.Stderr)
	os.Exit(2)
}
