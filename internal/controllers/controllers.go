package controllers

import "errors"

var (
	ErrBadRequest  = errors.New("bad request")
	ErrInvalidID   = errors.New("invalid game id")
	ErrSearch      = errors.New("failed to search games")
	ErrTrending    = errors.New("failed to get trending games")
	ErrGameDetails = errors.New("failed to get game details")
	ErrGameNews    = errors.New("failed to get game news")
	ErrGetLibrary  = errors.New("failed to get library")
	ErrSaveGame    = errors.New("failed to save game")
	ErrRemoveGame  = errors.New("failed to remove game")
	ErrPinGame     = errors.New("failed to pin game")
	ErrGetUpdates  = errors.New("failed to get updates")
	ErrPreferences = errors.New("failed to get preferences")
	ErrExport      = errors.New("failed to export library")
	ErrImport      = errors.New("failed to import library")
	ErrBackups     = errors.New("failed to list backups")
	ErrRestore     = errors.New("failed to restore backup")
	ErrEncoding    = errors.New("failed to encode")
	ErrExists      = errors.New("already exists")
)
