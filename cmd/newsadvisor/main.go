// Package main provides the entry point for the newsadvisor CLI.
//
// newsadvisor labels the links, frames and recommendation widgets of news
// pages as news, ads or sponsored content. It scans static pages, replays
// scripted mutations against them, and watches live pages in a browser.
//
// Usage:
//
//	newsadvisor scan <url|file|->
//	newsadvisor scan --list <file>
//	newsadvisor watch <url>
//
// See --help for all available options.
package main

// main is the entry point for newsadvisor.
func main() {
	Execute()
}
