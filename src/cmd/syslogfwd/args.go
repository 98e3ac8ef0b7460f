// FILE: syslogfwd/src/cmd/syslogfwd/args.go
package main

import "strings"

// splitOverrideArgs separates dotted config overrides (--target.port=1514, --target.port 1514)
// from the command's own flags. Overrides go to the config loader untouched.
func splitOverrideArgs(args []string) (local, overrides []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			local = append(local, arg)
			continue
		}

		name, _, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.Contains(name, ".") {
			local = append(local, arg)
			continue
		}

		overrides = append(overrides, arg)
		if !hasValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			overrides = append(overrides, args[i+1])
			i++
		}
	}
	return local, overrides
}
