// Package main provides the entry point for the prefixdiff CLI.
//
// prefixdiff measures how much of two prompts is identical from the first
// character on, which is the part an inference server with prefix caching
// can reuse.
//
// Usage:
//
//	prefixdiff <file1> <file2> [--until-marker MARKER]
//	prefixdiff restructure <input> <output>
//	prefixdiff simulate <prompts...>
//	prefixdiff bench <prompts...>
//
// See --help for all available options.
package main

func main() {
	Execute()
}
