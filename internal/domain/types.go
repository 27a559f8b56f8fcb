package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Language selects both the prompt templates and the user-facing copy.
type Language string

const (
	English Language = "en"
	Nepali  Language = "np"
)

var ErrUnsupportedLanguage = errors.New("unsupported language")

// Languages lists every supported language in display order.
var Languages = []Language{English, Nepali}

// ParseLanguage maps a language code to a Language. An empty code is rejected;
// callers that want a default should substitute it before calling.
func ParseLanguage(code string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(code))) {
	case English:
		return English, nil
	case Nepali:
		return Nepali, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type ScanStatus string

const (
	ScanPending  ScanStatus = "pending"
	ScanAnalyzed ScanStatus = "analyzed"
	ScanError    ScanStatus = "error"
)

// AnalysisResult is persisted as JSON alongside a scan.
type AnalysisResult struct {
	InitialAnalysis string `json:"initial_analysis"`
}

// Scan is one captured medicine photo and its analysis state.
type Scan struct {
	ID             string
	UserID         string
	FileName       string
	ImageKey       string
	MimeType       string
	Status         ScanStatus
	AnalysisResult *AnalysisResult
	CreatedAt      time.Time
}

// InitialAnalysis returns the stored analysis text, or "" if the scan has none.
func (s *Scan) InitialAnalysis() string {
	if s == nil || s.AnalysisResult == nil {
		return ""
	}
	return s.AnalysisResult.InitialAnalysis
}

// HistoryEntry is a Scan decorated with fields derived on every fetch.
// MedicineName and Timestamp are never stored.
type HistoryEntry struct {
	*Scan
	MedicineName string
	Timestamp    int64
}
