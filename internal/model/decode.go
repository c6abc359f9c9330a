package model

// FromDict decodes a raw extractor result into its concrete variant based on
// the "_type" tag. Records without a tag are treated as videos, matching the
// convention of extractor output.
func FromDict(dict map[string]any) Record {
	switch Kind(asString(dict["_type"])) {
	case KindPlaylist:
		return playlistFromDict(dict)
	case KindURL:
		u := &ContentURL{}
		decodeFlat(u, dict)
		return u
	case KindURLTransparent:
		u := &TransparentURL{}
		decodeFlat(u, dict)
		return u
	case KindFormat:
		return FormatFromDict(dict)
	case KindThumbnail:
		t := &Thumbnail{}
		decodeFlat(t, dict)
		return t
	case KindSubtitleFormat:
		s := &SubtitleFormat{}
		decodeFlat(s, dict)
		return s
	default:
		return videoFromDict(dict)
	}
}

// decodeFlat fills a record that has no nested collections.
func decodeFlat(r Record, dict map[string]any) {
	for key, value := range dict {
		if key == "_type" {
			continue
		}
		AddExtraInfo(r, map[string]any{key: value}, true)
	}
}
