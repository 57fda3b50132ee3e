// Package replay drives an advisor session from a YAML script.
//
// A script lists what a browser would deliver to the session over time:
// inserted and removed subtrees, scrolls, settings changes and pointer
// events. Steps run synchronously in order, so the outcome of a script is
// deterministic and can be asserted in tests or inspected from the CLI.
//
//	page: https://news.example.com/world
//	steps:
//	  - action: insert
//	    xpath: /html/body/main
//	    html: <a href="https://ads.example/x">Win a prize</a>
//	  - action: scroll
//	    top: 1800
//	  - action: settings
//	    set: {focus_mode: "true"}
//	  - action: hover
//	    selector: main a
package replay
