package main

import (
	"os"
	"strings"

	"campus-food/cmd"
)

func main() {
	os.Args = append(os.Args[:1], modeArgs(os.Args[1:])...)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// modeArgs keeps the "--mode=<service>" form working by turning it into the
// matching subcommand.
func modeArgs(args []string) []string {
	var mode string
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case strings.HasPrefix(arg, "--mode="):
			mode = strings.TrimPrefix(arg, "--mode=")
		case arg == "--mode" && i+1 < len(args):
			mode = args[i+1]
			i++
		default:
			rest = append(rest, arg)
		}
	}
	if mode == "" {
		return rest
	}
	return append([]string{mode}, rest...)
}
