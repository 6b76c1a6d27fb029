package main

// Normalize a raw review service response:
//   go run ./cmd/reviewparse -in review.json
//   curl ... | go run ./cmd/reviewparse -format text

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"resume-reviewer/internal/feedback"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("reviewparse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inPath := fs.String("in", "-", "path to the raw response, - for stdin")
	format := fs.String("format", "json", "output format: json or text")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	raw, err := readInput(*inPath, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "read failed: %v\n", err)
		return 1
	}

	result := feedback.ParseJSON(raw)
	if result.IsEmpty() {
		fmt.Fprintln(stderr, "Invalid review data format")
		return 1
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(stderr, "encode failed: %v\n", err)
			return 1
		}
	case "text":
		writeText(stdout, result)
	default:
		fmt.Fprintf(stderr, "unknown format %q\n", *format)
		return 2
	}
	return 0
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no such file %s", path)
	}
	return data, err
}

func writeText(w io.Writer, r feedback.Result) {
	fmt.Fprintf(w, "Resume Score: %s\n", r.Score)
	sections := []struct {
		title string
		items []string
	}{
		{"Strong Points", r.StrongPoints},
		{"Weak Points", r.WeakPoints},
		{"Scope of Improvements", r.Improvements},
		{"Suitable Roles", r.SuitableRoles},
		{"Useful Links", r.UsefulLinks},
	}
	for _, s := range sections {
		if len(s.items) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", s.title)
		for _, item := range s.items {
			fmt.Fprintf(w, "- %s\n", item)
		}
	}
	if text := strings.TrimSpace(r.AdditionalInstructions); text != "" {
		fmt.Fprintf(w, "\nAdditional Instructions\n%s\n", text)
	}
}
