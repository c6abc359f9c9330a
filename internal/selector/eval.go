package selector

import (
	"fmt"
	"strings"

	"github.com/ytget/vidgrab/internal/model"
)

// Extensions accepted as single-spec literals; anything else is matched
// against format ids.
var knownExtensions = []string{"mp4", "flv", "webm", "3gp", "m4a", "mp3", "ogg", "aac", "wav"}

// SelectorFunc evaluates a compiled spec against the formats a video offers.
// The input slice must be ordered ascending by quality: "best" means last.
type SelectorFunc func(formats []model.Format) ([]model.Format, error)

// SelectFormats parses, compiles and applies a format spec in one call.
// mergeExtension, when non-empty, overrides the container extension of
// composite formats produced by "+" merges.
func SelectFormats(formats []model.Format, spec, mergeExtension string) ([]model.Format, error) {
	apply, err := Build(spec, mergeExtension)
	if err != nil {
		return nil, err
	}
	return apply(formats)
}

// Build compiles a format spec into a reusable evaluator.
func Build(spec, mergeExtension string) (SelectorFunc, error) {
	if strings.TrimSpace(spec) == "" {
		spec = "best"
	}
	selectors, err := parse(spec)
	if err != nil {
		return nil, err
	}
	return compileList(selectors, mergeExtension)
}

// compileList concatenates the results of comma-separated selectors.
func compileList(selectors []*node, mergeExtension string) (SelectorFunc, error) {
	funcs := make([]SelectorFunc, 0, len(selectors))
	for _, sel := range selectors {
		fn, err := compile(sel, mergeExtension)
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, fn)
	}

	return func(formats []model.Format) ([]model.Format, error) {
		var selected []model.Format
		for _, fn := range funcs {
			result, err := fn(formats)
			if err != nil {
				return nil, err
			}
			selected = append(selected, result...)
		}
		return selected, nil
	}, nil
}

func compile(sel *node, mergeExtension string) (SelectorFunc, error) {
	var inner SelectorFunc
	var err error

	switch sel.typ {
	case nodeGroup:
		inner, err = compileList(sel.group, mergeExtension)
	case nodePickfirst:
		inner, err = compilePickfirst(sel.alts, mergeExtension)
	case nodeSingle:
		inner = compileSingle(sel.spec)
	case nodeMerge:
		inner, err = compileMerge(sel.video, sel.audio, mergeExtension)
	}
	if err != nil {
		return nil, err
	}

	filters := make([]filterFunc, 0, len(sel.filters))
	for _, filterSpec := range sel.filters {
		filter, err := buildFilter(filterSpec)
		if err != nil {
			return nil, err
		}
		filters = append(filters, filter)
	}
	if len(filters) == 0 {
		return inner, nil
	}

	// Filters narrow the candidate list before the node's own resolution.
	return func(formats []model.Format) ([]model.Format, error) {
		candidates := formats
		for _, filter := range filters {
			var kept []model.Format
			for _, f := range candidates {
				if filter(f) {
					kept = append(kept, f)
				}
			}
			candidates = kept
		}
		return inner(candidates)
	}, nil
}

func compilePickfirst(alts []*node, mergeExtension string) (SelectorFunc, error) {
	funcs := make([]SelectorFunc, 0, len(alts))
	for _, alt := range alts {
		fn, err := compile(alt, mergeExtension)
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, fn)
	}

	return func(formats []model.Format) ([]model.Format, error) {
		for _, fn := range funcs {
			picked, err := fn(formats)
			if err != nil {
				return nil, err
			}
			if len(picked) > 0 {
				return picked, nil
			}
		}
		return nil, nil
	}, nil
}

func compileSingle(spec string) SelectorFunc {
	return func(formats []model.Format) ([]model.Format, error) {
		switch spec {
		case "all":
			return formats, nil
		case "best", "":
			return lastMatch(formats, model.IsMuxed), nil
		case "worst":
			return firstMatch(formats, model.IsMuxed), nil
		case "bestaudio":
			return lastMatch(formats, isAudioOnly), nil
		case "worstaudio":
			return firstMatch(formats, isAudioOnly), nil
		case "bestvideo":
			return lastMatch(formats, isVideoOnly), nil
		case "worstvideo":
			return firstMatch(formats, isVideoOnly), nil
		}

		if isKnownExtension(spec) {
			return lastMatch(formats, func(f model.Format) bool {
				return f.Common().Extension == spec
			}), nil
		}
		return lastMatch(formats, func(f model.Format) bool {
			return f.Common().FormatID == spec
		}), nil
	}
}

func compileMerge(videoSel, audioSel *node, mergeExtension string) (SelectorFunc, error) {
	videoFn, err := compile(videoSel, mergeExtension)
	if err != nil {
		return nil, err
	}
	audioFn, err := compile(audioSel, mergeExtension)
	if err != nil {
		return nil, err
	}

	return func(formats []model.Format) ([]model.Format, error) {
		videoSide, err := videoFn(formats)
		if err != nil {
			return nil, err
		}
		audioSide, err := audioFn(formats)
		if err != nil {
			return nil, err
		}

		var merged []model.Format
		for _, vf := range videoSide {
			for _, af := range audioSide {
				if !vf.HasVideo() {
					return nil, &SelectionError{Reason: fmt.Sprintf(
						"the first format must contain the video, try using \"-f %s+%s\"",
						af.Common().FormatID, vf.Common().FormatID)}
				}
				if !af.HasAudio() {
					return nil, &SelectionError{Reason: fmt.Sprintf(
						"both formats %s and %s are video-only, you must specify \"-f video+audio\"",
						vf.Common().FormatID, af.Common().FormatID)}
				}

				composite := model.NewCompositeFormat(vf, af)
				if mergeExtension != "" {
					composite.Extension = mergeExtension
				}
				merged = append(merged, composite)
			}
		}
		return merged, nil
	}, nil
}

func isAudioOnly(f model.Format) bool { return f.HasAudio() && !f.HasVideo() }
func isVideoOnly(f model.Format) bool { return f.HasVideo() && !f.HasAudio() }

func isKnownExtension(spec string) bool {
	for _, ext := range knownExtensions {
		if spec == ext {
			return true
		}
	}
	return false
}

func lastMatch(formats []model.Format, match func(model.Format) bool) []model.Format {
	for i := len(formats) - 1; i >= 0; i-- {
		if match(formats[i]) {
			return []model.Format{formats[i]}
		}
	}
	return nil
}

func firstMatch(formats []model.Format, match func(model.Format) bool) []model.Format {
	for _, f := range formats {
		if match(f) {
			return []model.Format{f}
		}
	}
	return nil
}
