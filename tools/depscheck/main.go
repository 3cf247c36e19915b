// Command depscheck fails the build when package boundaries erode: the pure
// layout packages must stay free of the logging stack, and the wire layer
// must talk to the hub instead of reaching into the simulation.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

type packageInfo struct {
	ImportPath string
	Imports    []string
}

type rule struct {
	patterns  []string
	forbidden []string
}

var rules = []rule{
	{
		patterns:  []string{"./internal/field/...", "./internal/geom/..."},
		forbidden: []string{"driftfield/server/logging"},
	},
	{
		patterns: []string{"./internal/net/..."},
		forbidden: []string{
			"driftfield/server/internal/sim",
			"driftfield/server/internal/field",
		},
	},
}

func main() {
	var violations []string
	for _, r := range rules {
		args := append([]string{"list", "-json"}, r.patterns...)
		cmd := exec.Command("go", args...)
		cmd.Env = os.Environ()
		output, err := cmd.Output()
		if err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				os.Stderr.Write(exitErr.Stderr)
			}
			fmt.Fprintf(os.Stderr, "depscheck: failed to list packages: %v\n", err)
			os.Exit(1)
		}

		decoder := json.NewDecoder(bytes.NewReader(output))
		for {
			var pkg packageInfo
			if err := decoder.Decode(&pkg); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				fmt.Fprintf(os.Stderr, "depscheck: failed to decode package info: %v\n", err)
				os.Exit(1)
			}

			for _, imp := range pkg.Imports {
				for _, prefix := range r.forbidden {
					if strings.HasPrefix(imp, prefix) {
						violations = append(violations, fmt.Sprintf("%s -> %s", pkg.ImportPath, imp))
					}
				}
			}
		}
	}

	if len(violations) > 0 {
		sort.Strings(violations)
		fmt.Fprintln(os.Stderr, "depscheck: found forbidden imports:")
		for _, violation := range violations {
			fmt.Fprintf(os.Stderr, "  %s\n", violation)
		}
		os.Exit(1)
	}
}
