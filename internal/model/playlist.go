package model

// Playlist is an ordered collection of entry records. Entries are commonly
// ContentURL redirects from flat extraction, or fully resolved videos. The
// entries slice is replaced during orchestration (windowing, shuffle,
// reversal, resolution).
type Playlist struct {
	Info `json:"-"`

	ID         string `json:"id"`
	Title      string `json:"title,omitempty"`
	Uploader   string `json:"uploader,omitempty"`
	UploaderID string `json:"uploader_id,omitempty"`

	Entries []Record `json:"entries"`
}

// Kind implements Record.
func (p *Playlist) Kind() Kind { return KindPlaylist }

// Field implements Record.
func (p *Playlist) Field(key string) (any, bool) {
	switch key {
	case "id", "ID":
		return p.ID, true
	case "title", "Title":
		return p.Title, true
	case "uploader", "Uploader":
		return p.Uploader, true
	case "uploader_id", "UploaderID":
		return p.UploaderID, true
	}
	return p.infoField(key)
}

// SetField implements Record.
func (p *Playlist) SetField(key string, value any) bool {
	switch key {
	case "id":
		p.ID = asString(value)
	case "title":
		p.Title = asString(value)
	case "uploader":
		p.Uploader = asString(value)
	case "uploader_id":
		p.UploaderID = asString(value)
	default:
		return p.setInfoField(key, value)
	}
	return true
}

func playlistFromDict(dict map[string]any) *Playlist {
	p := &Playlist{}
	for key, value := range dict {
		switch key {
		case "_type":
		case "entries":
			if list, ok := value.([]any); ok {
				p.Entries = make([]Record, 0, len(list))
				for _, item := range list {
					if entryDict, ok := item.(map[string]any); ok {
						p.Entries = append(p.Entries, FromDict(entryDict))
					}
				}
			}
		default:
			AddExtraInfo(p, map[string]any{key: value}, true)
		}
	}
	return p
}
