package ui

// TUI is an interface for terminal user interfaces
type TUI interface {
	StartPage(page int)
	CompletePage(page, records, media int)
	FailPage(page int, err error)
	StartFetch(id, key, filename string, size int64)
	CompleteFetch(id string)
	FailFetch(id string, err error)
	ChallengeDetected(page int, location string)
	ChallengeCleared(page int)
	LogInfo(format string, args ...interface{})
	LogSuccess(format string, args ...interface{})
	LogWarning(format string, args ...interface{})
	LogError(format string, args ...interface{})
	IsPaused() bool
}
