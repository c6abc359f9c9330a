package model

import (
	"sort"
	"strconv"
	"time"
)

// Video is a fully resolved video with its downloadable formats, thumbnails
// and subtitle collections. All collections are rebuilt fresh on each decode
// and owned exclusively by the video.
type Video struct {
	Info `json:"-"`

	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Annotations string        `json:"annotations,omitempty"`
	Duration    time.Duration `json:"-"`
	UploadedAt  time.Time     `json:"-"`

	Uploader    string `json:"uploader,omitempty"`
	UploaderID  string `json:"uploader_id,omitempty"`
	UploaderURL string `json:"uploader_url,omitempty"`
	Channel     string `json:"channel,omitempty"`
	ChannelID   string `json:"channel_id,omitempty"`
	ChannelURL  string `json:"channel_url,omitempty"`

	Views         int     `json:"view_count,omitempty"`
	Likes         int     `json:"like_count,omitempty"`
	Dislikes      int     `json:"dislike_count,omitempty"`
	AverageRating float64 `json:"average_rating,omitempty"`

	PlaylistIndex int `json:"playlist_index,omitempty"`

	Formats            []Format          `json:"formats"`
	Thumbnails         []*Thumbnail      `json:"thumbnails,omitempty"`
	Subtitles          []*Subtitle       `json:"subtitles,omitempty"`
	AutomaticSubtitles []*Subtitle       `json:"automatic_captions,omitempty"`
}

// Kind implements Record.
func (v *Video) Kind() Kind { return KindVideo }

// Field implements Record.
func (v *Video) Field(key string) (any, bool) {
	switch key {
	case "id", "ID":
		return v.ID, true
	case "title", "Title":
		return v.Title, true
	case "description", "Description":
		return v.Description, true
	case "annotations", "Annotations":
		return v.Annotations, true
	case "duration", "Duration":
		return v.Duration, true
	case "uploader", "Uploader":
		return v.Uploader, true
	case "uploader_id", "UploaderID":
		return v.UploaderID, true
	case "uploader_url", "UploaderURL":
		return v.UploaderURL, true
	case "channel", "Channel":
		return v.Channel, true
	case "channel_id", "ChannelID":
		return v.ChannelID, true
	case "channel_url", "ChannelURL":
		return v.ChannelURL, true
	case "view_count", "Views":
		return v.Views, true
	case "like_count", "Likes":
		return v.Likes, true
	case "dislike_count", "Dislikes":
		return v.Dislikes, true
	case "average_rating", "AverageRating":
		return v.AverageRating, true
	case "playlist_index", "PlaylistIndex":
		return v.PlaylistIndex, true
	}
	return v.infoField(key)
}

// SetField implements Record.
func (v *Video) SetField(key string, value any) bool {
	switch key {
	case "id":
		v.ID = asString(value)
	case "title":
		v.Title = asString(value)
	case "description":
		v.Description = asString(value)
	case "annotations":
		v.Annotations = asString(value)
	case "duration":
		v.Duration = time.Duration(asFloat(value) * float64(time.Second))
	case "uploader":
		v.Uploader = asString(value)
	case "uploader_id":
		v.UploaderID = asString(value)
	case "uploader_url":
		v.UploaderURL = asString(value)
	case "channel":
		v.Channel = asString(value)
	case "channel_id":
		v.ChannelID = asString(value)
	case "channel_url":
		v.ChannelURL = asString(value)
	case "view_count":
		v.Views = asInt(value)
	case "like_count":
		v.Likes = asInt(value)
	case "dislike_count":
		v.Dislikes = asInt(value)
	case "average_rating":
		v.AverageRating = asFloat(value)
	case "playlist_index":
		v.PlaylistIndex = asInt(value)
	case "timestamp":
		v.UploadedAt = time.Unix(asInt64(value), 0).UTC()
	default:
		return v.setInfoField(key, value)
	}
	return true
}

// videoFromDict decodes a video map, recursing into the formats, thumbnails
// and subtitle collections.
func videoFromDict(dict map[string]any) *Video {
	v := &Video{}

	for key, value := range dict {
		switch key {
		case "_type":
		case "formats":
			v.Formats = decodeFormats(value)
		case "thumbnails":
			v.Thumbnails = decodeThumbnails(value)
		case "thumbnail":
			if url := asString(value); url != "" {
				t := &Thumbnail{}
				t.SetField("url", url)
				v.Thumbnails = append(v.Thumbnails, t)
			}
		case "subtitles":
			v.Subtitles = decodeSubtitles(value)
		case "automatic_captions":
			v.AutomaticSubtitles = decodeSubtitles(value)
		default:
			AddExtraInfo(v, map[string]any{key: value}, true)
		}
	}

	sortThumbnails(v.Thumbnails)

	// A bare video record without a formats list is itself one format.
	if v.Formats == nil {
		v.Formats = []Format{FormatFromDict(dict)}
	}
	return v
}

func decodeFormats(value any) []Format {
	list, ok := value.([]any)
	if !ok {
		return nil
	}
	formats := make([]Format, 0, len(list))
	for _, item := range list {
		if dict, ok := item.(map[string]any); ok {
			formats = append(formats, FormatFromDict(dict))
		}
	}
	return formats
}

func decodeThumbnails(value any) []*Thumbnail {
	list, ok := value.([]any)
	if !ok {
		return nil
	}
	thumbnails := make([]*Thumbnail, 0, len(list))
	for _, item := range list {
		dict, ok := item.(map[string]any)
		if !ok {
			continue
		}
		t := &Thumbnail{}
		for key, v := range dict {
			AddExtraInfo(t, map[string]any{key: v}, true)
		}
		thumbnails = append(thumbnails, t)
	}
	return thumbnails
}

// sortThumbnails orders the slice ascending by preference and assigns
// index-derived ids to thumbnails that have none.
func sortThumbnails(thumbnails []*Thumbnail) {
	sort.SliceStable(thumbnails, func(i, j int) bool {
		return thumbnails[i].Less(thumbnails[j])
	})
	for i, t := range thumbnails {
		if t.ID == "" {
			t.ID = strconv.Itoa(i)
		}
	}
}

func decodeSubtitles(value any) []*Subtitle {
	byLang, ok := value.(map[string]any)
	if !ok {
		return nil
	}

	langs := make([]string, 0, len(byLang))
	for lang := range byLang {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	subtitles := make([]*Subtitle, 0, len(langs))
	for _, lang := range langs {
		list, ok := byLang[lang].([]any)
		if !ok {
			continue
		}
		sub := &Subtitle{Lang: lang}
		for _, item := range list {
			dict, ok := item.(map[string]any)
			if !ok {
				continue
			}
			sf := &SubtitleFormat{}
			for key, v := range dict {
				AddExtraInfo(sf, map[string]any{key: v}, true)
			}
			sub.Formats = append(sub.Formats, sf)
		}
		subtitles = append(subtitles, sub)
	}
	return subtitles
}
