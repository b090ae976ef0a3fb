// Package flagx lets several components parse their own flags out of one
// command line without tripping over each other's flags.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs returns, in order, the tokens of args that belong to the named
// flags. Names are given without dashes. "-name" and "--name" both match,
// in the "-name value" as well as the "-name=value" form. A token starting
// with "-" is never taken as a value, and "--" ends flag processing.
func FilterArgs(args []string, names ...string) []string {
	out := []string{}

	for i := 0; i < len(args); i++ {
		name, hasValue, ok := flagName(args[i])
		if !ok {
			if args[i] == "--" {
				break
			}
			continue
		}
		if !matches(name, names) {
			continue
		}

		out = append(out, args[i])
		if !hasValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			out = append(out, args[i])
		}
	}
	return out
}

// flagName splits a "-name" or "--name[=value]" token.
func flagName(tok string) (name string, hasValue, ok bool) {
	if tok == "-" || tok == "--" || !strings.HasPrefix(tok, "-") {
		return "", false, false
	}
	name = strings.TrimPrefix(strings.TrimPrefix(tok, "-"), "-")
	name, _, hasValue = strings.Cut(name, "=")
	return name, hasValue, name != ""
}

func matches(name string, names []string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// ConfigPath returns the JSON config file named by -c or -config in args,
// or "" when neither is present.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, "c", "config"))

	return path
}
