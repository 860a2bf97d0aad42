// Package flagx lets several components share one command line. Each
// component picks out only the flags it knows about, so the server config,
// the JSON config locator and operator subcommands do not trip over each
// other's arguments.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs returns the subset of args made of allowedFlags and their values.
//
// Both "-flag value" and "-flag=value" forms are recognised. Flags listed in
// boolFlags never consume the following argument, so "-migrate status" keeps
// "status" out of the result.
func FilterArgs(args []string, allowedFlags []string, boolFlags ...string) []string {
	allowed := toSet(allowedFlags)
	bools := toSet(boolFlags)

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			} else if _, ok := bools[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := bools[arg]; ok {
			filtered = append(filtered, arg)
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// Positional returns the arguments that are neither flags nor values of the
// flags listed in valueFlags. Operator subcommands read their command name
// and operands from it.
func Positional(args []string, valueFlags []string) []string {
	takesValue := toSet(valueFlags)

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return append(out, args[i+1:]...)
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			out = append(out, arg)
			continue
		}
		if strings.Contains(arg, "=") {
			continue
		}
		if _, ok := takesValue[arg]; ok && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
		}
	}
	return out
}

// ConfigFilePath returns the JSON config file named by -c or -config, or an
// empty string when neither is present.
func ConfigFilePath() string {
	var config string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
