// Package main provides the entry point for the sitequality CLI.
//
// sitequality crawls a website the way a visitor's browser would and reports
// quality problems such as broken links and thin pages.
//
// Usage:
//
//	sitequality audit https://example.com
//	sitequality history https://example.com --compare
//
// See --help for all available options.
package main

func main() {
	Execute()
}
