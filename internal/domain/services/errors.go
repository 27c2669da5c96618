package services

import "errors"

// Sentinel errors returned by the services. Match with errors.Is.
var (
	ErrBookNotFound          = errors.New("book not found")
	ErrChapterNotFound       = errors.New("chapter not found")
	ErrCharacterNotFound     = errors.New("character not found")
	ErrRelationshipNotFound  = errors.New("relationship not found")
	ErrRelationshipExists    = errors.New("relationship already exists")
	ErrSelfRelationship      = errors.New("a character cannot be related to itself")
	ErrCrossBookRelationship = errors.New("characters belong to different books")
	ErrInvalidRelationType   = errors.New("relationship type is required")
	ErrInvalidName           = errors.New("name is required")
	ErrStaleTimeline         = errors.New("timeline superseded by a newer refresh")
	ErrInvalidImport         = errors.New("parsing import")
)
