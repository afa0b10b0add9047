// dhcpradius-hashsecret generates bcrypt hashes of RADIUS shared
// secrets for storage alongside dhcpradiusd config.
//
//	dhcpradius-hashsecret
//	dhcpradius-hashsecret -cost 12
//	echo 'mysecret' | dhcpradius-hashsecret
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func main() {
	cost := flag.Int("cost", 10, "bcrypt cost factor (4-31, default 10)")
	flag.Parse()

	if *cost < bcrypt.MinCost || *cost > bcrypt.MaxCost {
		fmt.Fprintf(os.Stderr, "error: cost must be between %d and %d\n", bcrypt.MinCost, bcrypt.MaxCost)
		os.Exit(1)
	}

	var secret string

	if flag.NArg() > 0 {
		secret = flag.Arg(0)
	} else if !term.IsTerminal(int(os.Stdin.Fd())) {
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			secret = strings.TrimSpace(scanner.Text())
		}
		if secret == "" {
			fmt.Fprintln(os.Stderr, "error: empty secret from stdin")
			os.Exit(1)
		}
	} else {
		fmt.Fprint(os.Stderr, "RADIUS secret: ")
		s, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading secret: %v\n", err)
			os.Exit(1)
		}
		secret = string(s)

		fmt.Fprint(os.Stderr, "Confirm:      ")
		s2, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading confirmation: %v\n", err)
			os.Exit(1)
		}
		if string(s2) != secret {
			fmt.Fprintln(os.Stderr, "error: secrets do not match")
			os.Exit(1)
		}
	}

	if secret == "" {
		fmt.Fprintln(os.Stderr, "error: secret must not be empty")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), *cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(hash))
}
