// SPDX-License-Identifier: BSD-3-Clause

// Command pdfscan shows the structure of a PDF file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	xtract "github.com/pdfscan/pdfscan"
	"github.com/pdfscan/pdfscan/logger"
	"github.com/pdfscan/pdfscan/tracer"
)

func showLicenseHeader() {
	fmt.Println("pdfscan Copyright (C) 2026")
	fmt.Println("This program comes with ABSOLUTELY NO WARRANTY; it is licensed under BSD-3-Clause.")
}

func main() {
	os.Exit(run())
}

func run() int {
	showLicenseHeader()

	jsonOut := flag.Bool("json", false, "generate a JSON-like structured summary")
	flag.BoolVar(jsonOut, "j", false, "shorthand for -json")
	instructions := flag.Bool("instructions", false, "show each page's raw content bytes")
	flag.BoolVar(instructions, "i", false, "shorthand for -instructions")
	verbose := flag.Bool("verbose", false, "enable verbose logging (all DEBUG messages)")
	flag.BoolVar(verbose, "v", false, "shorthand for -verbose")
	debug := flag.Bool("debug", false, "enable DEBUG logging")
	flag.BoolVar(debug, "d", false, "shorthand for -debug")
	debugParser := flag.Bool("debug-parser", false, "enable DEBUG logging (all components, same as -debug)")
	debugTokenizer := flag.Bool("debug-tokenizer", false, "enable DEBUG logging (all components, same as -debug)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: pdfscan [flags] file")
		flag.PrintDefaults()
		return 1
	}
	file := flag.Arg(0)

	level := logger.ErrorLevel
	if *verbose {
		level = logger.DebugLevel
	}
	if *debug || *debugParser || *debugTokenizer {
		level = logger.DebugLevel
	}
	logger.SetLogger(func(lvl logger.LogLevel, msg string, keyvals ...interface{}) {
		if lvl == logger.DebugLevel && level != logger.DebugLevel {
			return
		}
		fmt.Fprintf(os.Stderr, "%s: %s %v\n", lvl, msg, keyvals)
	})

	cfg := xtract.NewDefaultConfig()
	cfg.DebugOn = *debug

	reader, err := xtract.Open(context.Background(), file, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		tracer.Flush()
		return 1
	}

	doc, err := xtract.LoadDocument(reader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		tracer.Flush()
		return 1
	}

	if *jsonOut {
		if err := xtract.WriteJSONSummary(os.Stdout, doc); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
	} else {
		xtract.WriteSummary(os.Stdout, doc, *instructions)
	}

	return 0
}
