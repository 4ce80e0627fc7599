package model

import (
	"encoding/json"
)

// Stage names an output store
type Stage string

const (
	StageChannels     Stage = "channels"
	StageVideos       Stage = "videos"
	StageComments     Stage = "comments"
	StageVideoDetails Stage = "video_details"
)

// ErrorRecord captures one failed seed, item or batch
type ErrorRecord struct {
	EntityType EntityType
	EntityID   string
	Exception  string
}

// IDKey returns the JSON key the entity id is stored under, e.g. "user_id"
func (e ErrorRecord) IDKey() string {
	return ErrorKey(e.EntityType)
}

// ErrorKey returns the id key for an entity type
func ErrorKey(t EntityType) string {
	if t == EntityVideoBatch {
		return "video_ids"
	}
	return string(t) + "_id"
}

// MarshalJSON renders the record as {"<entity>_id": id, "exception": msg}
func (e ErrorRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		e.IDKey():   e.EntityID,
		"exception": e.Exception,
	})
}
