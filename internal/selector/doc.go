package selector

// Package selector implements the declarative format-selection language:
// parsing of specification strings such as "bestvideo+bestaudio/best[height<=1080]"
// into an expression tree, and evaluation of that tree against the formats a
// video offers to produce the concrete list of formats to download.
