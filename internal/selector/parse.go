package selector

import "strings"

// nodeType enumerates the expression-tree node kinds.
type nodeType int

const (
	// nodeSingle resolves one named spec (best, bestaudio, an extension, an id).
	nodeSingle nodeType = iota

	// nodeMerge pairs a video-side and an audio-side selector with "+".
	nodeMerge

	// nodePickfirst tries alternatives separated by "/" until one yields formats.
	nodePickfirst

	// nodeGroup is a parenthesized sub-selection, transparent to evaluation.
	nodeGroup
)

// node is one expression-tree node. Built once per spec string, compiled into
// an evaluator, then discarded.
type node struct {
	typ nodeType

	// spec is the literal for nodeSingle.
	spec string

	// video and audio are the merge operands.
	video, audio *node

	// alts are the pickfirst alternatives in priority order.
	alts []*node

	// group holds the comma-separated selectors of a nodeGroup.
	group []*node

	// filters are raw "[...]" filter strings attached to this node. They
	// apply to the candidate list before the node's own resolution runs.
	filters []string
}

const delimiters = "/+,()[]"

// tokenize splits a spec into literal tokens and single-character delimiter
// tokens, preserving the delimiters.
func tokenize(spec string) []string {
	var tokens []string
	var literal strings.Builder

	flush := func() {
		if literal.Len() > 0 {
			tokens = append(tokens, literal.String())
			literal.Reset()
		}
	}

	for _, r := range spec {
		if strings.ContainsRune(delimiters, r) {
			flush()
			tokens = append(tokens, string(r))
			continue
		}
		literal.WriteRune(r)
	}
	flush()
	return tokens
}

// parse builds the top-level selector list for a spec string.
func parse(spec string) ([]*node, error) {
	tokens := tokenize(spec)
	index := -1
	selectors, _, err := parseSelection(spec, tokens, &index, false, false, false)
	if err != nil {
		return nil, err
	}
	if index != len(tokens) {
		return nil, &SpecError{Spec: spec, Reason: `unexpected ")"`}
	}
	return selectors, nil
}

// parseSelection scans tokens into a selector list. The inMerge, inPickfirst
// and inGroup flags decide where a nested scan must stop: "/" and ","
// terminate a merge's right operand, "," terminates a pickfirst alternative,
// and ")" terminates a group. The closed return value reports whether the
// scan ended on a ")" it consumed.
func parseSelection(spec string, tokens []string, index *int, inMerge, inPickfirst, inGroup bool) (selectors []*node, closed bool, err error) {
	var current *node

	for *index++; *index < len(tokens); *index++ {
		token := tokens[*index]

		if token == ")" {
			if !inGroup {
				*index--
			} else {
				closed = true
			}
			break
		}
		if inMerge && (token == "/" || token == ",") {
			*index--
			break
		}
		if inPickfirst && token == "," {
			*index--
			break
		}

		switch token {
		case ",":
			if current == nil {
				return nil, false, &SpecError{Spec: spec, Reason: `"," must follow a format selector`}
			}
			selectors = append(selectors, current)
			current = nil

		case "/":
			if current == nil {
				return nil, false, &SpecError{Spec: spec, Reason: `"/" must follow a format selector`}
			}
			rest, _, err := parseSelection(spec, tokens, index, inMerge, true, false)
			if err != nil {
				return nil, false, err
			}
			if len(rest) == 0 {
				return nil, false, &SpecError{Spec: spec, Reason: `"/" must be followed by a format selector`}
			}
			current = &node{typ: nodePickfirst, alts: append([]*node{current}, rest...)}

		case "+":
			if current == nil {
				return nil, false, &SpecError{Spec: spec, Reason: `"+" must be between two format selectors`}
			}
			operands, _, err := parseSelection(spec, tokens, index, true, inPickfirst, false)
			if err != nil {
				return nil, false, err
			}
			if len(operands) != 1 {
				return nil, false, &SpecError{Spec: spec, Reason: `"+" must be between two format selectors`}
			}
			current = &node{typ: nodeMerge, video: current, audio: operands[0]}

		case "(":
			if current != nil {
				return nil, false, &SpecError{Spec: spec, Reason: `unexpected "("`}
			}
			group, groupClosed, err := parseSelection(spec, tokens, index, false, false, true)
			if err != nil {
				return nil, false, err
			}
			if !groupClosed {
				return nil, false, &SpecError{Spec: spec, Reason: `unclosed "("`}
			}
			current = &node{typ: nodeGroup, group: group}

		case "[":
			if current == nil {
				current = &node{typ: nodeSingle, spec: "best"}
			}
			filter, err := parseFilterString(spec, tokens, index)
			if err != nil {
				return nil, false, err
			}
			current.filters = append(current.filters, filter)

		case "]":
			return nil, false, &SpecError{Spec: spec, Reason: `unmatched "]"`}

		default:
			current = &node{typ: nodeSingle, spec: strings.TrimSpace(token)}
		}
	}

	// A nested scan that ran out of tokens must leave the index on the last
	// consumed token: the caller's loop post-statement increments it again.
	if *index >= len(tokens) && (inMerge || inPickfirst || inGroup) {
		*index--
	}

	if current != nil {
		selectors = append(selectors, current)
	}
	return selectors, closed, nil
}

// parseFilterString collects the tokens of one "[...]" filter up to the
// closing bracket.
func parseFilterString(spec string, tokens []string, index *int) (string, error) {
	var parts []string
	for *index++; *index < len(tokens); *index++ {
		if tokens[*index] == "]" {
			return strings.Join(parts, ""), nil
		}
		parts = append(parts, tokens[*index])
	}
	return "", &SpecError{Spec: spec, Reason: `no closing "]" found`}
}
