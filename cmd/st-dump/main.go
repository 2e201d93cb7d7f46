// Copyright 2025 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// st-dump inspects the compiled methods of an image snapshot: their
// bytecode, the control graph built from it and the types a first
// inference pass derives.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/georgen2000/llst/analysis"
	"github.com/georgen2000/llst/image"
	"github.com/georgen2000/llst/inference"
	"github.com/georgen2000/llst/parse"
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: st-dump [options] file1.image [file2.image [...]]

ex:
 $> st-dump -d ./kernel.image

options:
`,
		)
		flag.PrintDefaults()
		os.Exit(1)
	}
}

var (
	flagVerbose = flag.Bool("v", false, "enable/disable verbose mode")
	flagDis     = flag.Bool("d", false, "disassemble method bodies")
	flagGraph   = flag.Bool("g", false, "dump control graphs")
	flagTypes   = flag.Bool("t", false, "dump inferred types")
)

func main() {
	log.SetPrefix("st-dump: ")
	log.SetFlags(0)

	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	if !*flagDis && !*flagGraph && !*flagTypes {
		flag.Usage()
		flag.PrintDefaults()
		log.Printf("At least one of -d, -g or -t must be given")
		os.Exit(1)
	}

	analysis.SetDebugMode(*flagVerbose)
	inference.SetDebugMode(*flagVerbose)

	for i, fname := range flag.Args() {
		if i > 0 {
			fmt.Printf("\n")
		}
		process(fname)
	}
}

func process(fname string) {
	img, err := image.Open(fname)
	if err != nil {
		log.Fatalf("could not open %q: %v", fname, err)
	}
	defer img.Close()

	if err := img.Install(); err != nil {
		log.Fatalf("could not install globals from %q: %v", fname, err)
	}

	methods := img.Methods()
	sort.Slice(methods, func(i, j int) bool {
		return methods[i].Selector < methods[j].Selector
	})

	fmt.Printf("%s: %d method(s)\n", fname, len(methods))
	for _, origin := range methods {
		fmt.Printf("\n#%s\n", origin.Selector)

		method, err := parse.NewMethod(origin)
		if err != nil {
			log.Printf("could not parse #%s: %v", origin.Selector, err)
			continue
		}

		if *flagDis {
			printDisassembly(method)
		}
		if *flagGraph || *flagTypes {
			printGraphs(method)
		}
	}
}

func printDisassembly(method *parse.Method) {
	printScope := func(indent string, s parse.Scope) {
		parse.WalkBasicBlocks(s, func(bb *parse.BasicBlock) bool {
			fmt.Printf("%sblock %d:\n", indent, bb.Offset())
			for i, instr := range bb.Instructions() {
				fmt.Printf("%s  %4d  %s\n", indent, bb.OffsetAt(i), instr)
			}
			return true
		})
	}

	printScope("  ", method)
	for _, block := range method.Blocks() {
		fmt.Printf("  block body [%d, %d):\n", block.StartOffset(), block.StopOffset())
		printScope("    ", block)
	}
}

func printGraphs(method *parse.Method) {
	dump := func(label string, graph *analysis.ControlGraph) {
		graph.BuildGraph()
		if *flagGraph {
			fmt.Printf("  %s:\n", label)
			printGraph(graph)
		}
		if *flagTypes {
			args := make([]inference.Type, method.Origin().ArgumentCount)
			context := inference.NewAnalyzer(graph, args).Run()
			fmt.Printf("  %s types:\n", label)
			graph.WalkAllNodes(func(n analysis.Node) bool {
				fmt.Printf("    %3d: %s\n", n.Index(), context.TypeOf(n))
				return true
			})
		}
	}

	dump("graph", analysis.NewGraph(method))
	for _, block := range method.Blocks() {
		label := fmt.Sprintf("graph of block [%d, %d)", block.StartOffset(), block.StopOffset())
		dump(label, analysis.NewBlockGraph(method, block))
	}
}

func printGraph(graph *analysis.ControlGraph) {
	graph.WalkDomains(func(d *analysis.Domain) bool {
		fmt.Printf("    domain %d (entry %d, terminator %d):\n",
			d.BasicBlock().Offset(), d.EntryPoint().Index(), d.Terminator().Index())
		return true
	})
	graph.WalkAllNodes(func(n analysis.Node) bool {
		fmt.Printf("      %3d %-32s %s\n", n.Index(), describeNode(n), describeEdges(n))
		return true
	})
}

func describeNode(n analysis.Node) string {
	switch v := n.(type) {
	case *analysis.InstructionNode:
		return v.Instruction().String()
	case *analysis.PhiNode:
		parts := make([]string, 0, len(v.Incomings()))
		for _, in := range v.Incomings() {
			parts = append(parts, fmt.Sprintf("%d", in.Value.Index()))
		}
		return "Phi(" + strings.Join(parts, ", ") + ")"
	case *analysis.TauNode:
		return "Tau"
	}
	return "?"
}

func describeEdges(n analysis.Node) string {
	outs := make([]string, 0, n.OutEdges().Len())
	for _, out := range n.OutEdges().Nodes() {
		outs = append(outs, fmt.Sprintf("%d", out.Index()))
	}
	if len(outs) == 0 {
		return ""
	}
	return "-> " + strings.Join(outs, ", ")
}
