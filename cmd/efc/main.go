// Package main provides efc, a small JSON/YAML file converter built on
// the easyfile library.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/calvinalkan/easyfile"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	flagSet := flag.NewFlagSet("efc", flag.ContinueOnError)
	flagSet.SetOutput(stderr)

	from := flagSet.String("from", "", "input format (json|yaml); inferred from extension if empty")
	to := flagSet.String("to", "json", "output format (json|yaml)")
	indent := flagSet.Int("indent", 2, "JSON indent width; 0 for compact output")
	out := flagSet.String("out", "", "output path; stdout if empty")

	flagSet.Usage = func() {
		fmt.Fprintf(stderr, "usage: efc [flags] FILE\n\n")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}

		return 2
	}

	if flagSet.NArg() != 1 {
		flagSet.Usage()

		return 2
	}

	input := flagSet.Arg(0)

	inFormat := *from
	if inFormat == "" {
		inFormat = formatForPath(input)
	}

	value, err := load(input, inFormat)
	if err != nil {
		fmt.Fprintf(stderr, "efc: %v\n", err)

		return 1
	}

	if err := emit(value, *to, *out, *indent, stdout); err != nil {
		fmt.Fprintf(stderr, "efc: %v\n", err)

		return 1
	}

	return 0
}

func formatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

func load(path, format string) (any, error) {
	f := easyfile.New(path)

	switch format {
	case "json":
		return f.LoadJSON()
	case "yaml":
		return f.LoadYAML()
	default:
		return nil, fmt.Errorf("unknown input format %q", format)
	}
}

func emit(value any, format, out string, indent int, stdout *os.File) error {
	if out != "" {
		return dump(value, format, out, indent)
	}

	data, err := encode(value, format, indent)
	if err != nil {
		return err
	}

	_, err = stdout.Write(data)

	return err
}

func encode(value any, format string, indent int) ([]byte, error) {
	switch format {
	case "json":
		if indent > 0 {
			data, err := json.MarshalIndent(value, "", strings.Repeat(" ", indent))
			if err != nil {
				return nil, err
			}

			return append(data, '\n'), nil
		}

		return json.Marshal(value)
	case "yaml":
		return yaml.Marshal(value)
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

func dump(value any, format, path string, indent int) error {
	f := easyfile.New(path)

	switch format {
	case "json":
		return f.DumpJSONIndent(value, indent)
	case "yaml":
		return f.DumpYAML(value)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
