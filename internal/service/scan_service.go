package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/vbonduro/aushadhi/internal/analysis"
	"github.com/vbonduro/aushadhi/internal/chat"
	"github.com/vbonduro/aushadhi/internal/completion"
	"github.com/vbonduro/aushadhi/internal/domain"
	"github.com/vbonduro/aushadhi/internal/events"
	"github.com/vbonduro/aushadhi/internal/extract"
	"github.com/vbonduro/aushadhi/internal/imagedata"
	"github.com/vbonduro/aushadhi/internal/imagestore"
)

var (
	ErrScanNotFound = errors.New("scan not found")
	ErrChatNotFound = errors.New("chat not found")
	ErrNoAnalysis   = errors.New("scan has no analysis to continue")
)

// scanRepository is the subset of store.ScanStore that ScanService requires.
type scanRepository interface {
	Create(ctx context.Context, userID, fileName, imageKey, mimeType string) (*domain.Scan, error)
	GetByID(ctx context.Context, id string) (*domain.Scan, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Scan, error)
	UpdateAnalysis(ctx context.Context, id string, status domain.ScanStatus, result *domain.AnalysisResult) error
	Delete(ctx context.Context, id string) error
}

type eventPublisher interface {
	Publish(ctx context.Context, ev events.ScanEvent) error
}

type sectionAnalyzer interface {
	Analyze(ctx context.Context, imageDataURL string, lang domain.Language, observe analysis.Observer) (*analysis.Report, error)
}

// sessionForgetter is implemented by completers that keep per-session state
// on the client side.
type sessionForgetter interface {
	Forget(sessionID string)
}

// activeChat is a registered session, the user allowed to use it and the scan
// it discusses.
type activeChat struct {
	userID  string
	scanID  string
	session *chat.Session
}

type ScanService struct {
	scans     scanRepository
	images    imagestore.ImageStore
	completer completion.Completer
	analyzer  sectionAnalyzer
	feed      eventPublisher
	chats     *cache.Cache
	logger    *slog.Logger
}

// NewScanService wires the capture, history and chat flows. Chats idle for
// longer than chatTTL are closed and forgotten.
func NewScanService(
	scans scanRepository,
	images imagestore.ImageStore,
	completer completion.Completer,
	feed eventPublisher,
	chatTTL time.Duration,
	logger *slog.Logger,
) *ScanService {
	chats := cache.New(chatTTL, chatTTL/2)
	chats.OnEvicted(func(id string, v interface{}) {
		if ac, ok := v.(*activeChat); ok {
			ac.session.Close()
		}
		if f, ok := completer.(sessionForgetter); ok {
			f.Forget(id)
		}
		logger.Debug("chat session released", "session_id", id)
	})
	return &ScanService{
		scans:     scans,
		images:    images,
		completer: completer,
		analyzer:  analysis.NewOrchestrator(completer, logger),
		feed:      feed,
		chats:     chats,
		logger:    logger,
	}
}

// Capture stores the photo as a pending scan, runs the initial analysis as the
// opening turn of a new chat and records the outcome on the scan. A failed
// analysis leaves the scan in the error state and returns it together with a
// *chat.StartError.
func (s *ScanService) Capture(ctx context.Context, userID, fileName string, data []byte, lang domain.Language) (*domain.Scan, *chat.Session, error) {
	s.logger.Info("capture started", "user_id", userID, "bytes", len(data), "language", lang)

	img, err := imagedata.New(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read image: %w", err)
	}
	session, err := chat.New(s.completer, lang, s.logger)
	if err != nil {
		return nil, nil, err
	}

	key, err := s.images.Save(ctx, "scan", img.MIMEType, bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to save image: %w", err)
	}

	scan, err := s.scans.Create(ctx, userID, fileName, key, img.MIMEType)
	if err != nil {
		if derr := s.images.Delete(ctx, key); derr != nil {
			s.logger.Error("failed to remove image after scan insert error", "image_key", key, "error", derr)
		}
		return nil, nil, fmt.Errorf("failed to create scan: %w", err)
	}
	s.publish(ctx, events.Insert, scan)

	if err := session.Start(ctx, img.DataURL()); err != nil {
		if uerr := s.scans.UpdateAnalysis(ctx, scan.ID, domain.ScanError, nil); uerr != nil {
			s.logger.Error("failed to mark scan failed", "scan_id", scan.ID, "error", uerr)
		} else {
			scan.Status = domain.ScanError
			s.publish(ctx, events.Update, scan)
		}
		return scan, nil, err
	}

	result := &domain.AnalysisResult{InitialAnalysis: session.InitialAnalysis()}
	if err := s.scans.UpdateAnalysis(ctx, scan.ID, domain.ScanAnalyzed, result); err != nil {
		session.Close()
		return nil, nil, fmt.Errorf("failed to store analysis: %w", err)
	}
	scan.Status = domain.ScanAnalyzed
	scan.AnalysisResult = result
	s.publish(ctx, events.Update, scan)

	s.register(userID, scan.ID, session)
	s.logger.Info("capture complete", "scan_id", scan.ID, "session_id", session.ID())
	return scan, session, nil
}

// Analyze produces the sectioned report for an image without storing it.
func (s *ScanService) Analyze(ctx context.Context, data []byte, lang domain.Language, observe analysis.Observer) (*analysis.Report, error) {
	img, err := imagedata.New(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return s.analyzer.Analyze(ctx, img.DataURL(), lang, observe)
}

// History lists the user's scans, newest first, with display fields derived
// from the stored analysis.
func (s *ScanService) History(ctx context.Context, userID string, lang domain.Language) ([]domain.HistoryEntry, error) {
	scans, err := s.scans.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.HistoryEntry, 0, len(scans))
	for _, scan := range scans {
		entries = append(entries, domain.HistoryEntry{
			Scan:         scan,
			MedicineName: extract.MedicineName(scan.InitialAnalysis(), lang),
			Timestamp:    scan.CreatedAt.UnixMilli(),
		})
	}
	return entries, nil
}

func (s *ScanService) DeleteScan(ctx context.Context, userID, scanID string) error {
	scan, err := s.ownedScan(ctx, userID, scanID)
	if err != nil {
		return err
	}
	if err := s.scans.Delete(ctx, scan.ID); err != nil {
		return fmt.Errorf("failed to delete scan: %w", err)
	}
	if err := s.images.Delete(ctx, scan.ImageKey); err != nil {
		s.logger.Warn("failed to delete scan image", "scan_id", scan.ID, "image_key", scan.ImageKey, "error", err)
	}
	s.closeScanChats(scan.ID)
	s.publish(ctx, events.Delete, scan)
	s.logger.Info("scan deleted", "scan_id", scan.ID)
	return nil
}

// Reopen continues the conversation for a stored scan. The scan id becomes the
// session id and no backend call is made.
func (s *ScanService) Reopen(ctx context.Context, userID, scanID string, lang domain.Language) (*chat.Session, error) {
	scan, err := s.ownedScan(ctx, userID, scanID)
	if err != nil {
		return nil, err
	}
	if scan.InitialAnalysis() == "" {
		return nil, ErrNoAnalysis
	}
	session, err := chat.Resume(s.completer, scan.ID, scan.InitialAnalysis(), lang, s.logger)
	if err != nil {
		return nil, err
	}
	// A reopened scan replaces any earlier session under the same id.
	s.chats.Delete(scan.ID)
	s.register(userID, scan.ID, session)
	return session, nil
}

func (s *ScanService) Chat(userID, chatID string) (*chat.Session, error) {
	ac, err := s.lookup(userID, chatID)
	if err != nil {
		return nil, err
	}
	return ac.session, nil
}

// SendMessage posts a question to an open chat and refreshes its idle timer.
func (s *ScanService) SendMessage(ctx context.Context, userID, chatID, text string) (chat.Message, error) {
	ac, err := s.lookup(userID, chatID)
	if err != nil {
		return chat.Message{}, err
	}
	s.chats.SetDefault(chatID, ac)
	return ac.session.Send(ctx, text)
}

func (s *ScanService) CloseChat(userID, chatID string) error {
	if _, err := s.lookup(userID, chatID); err != nil {
		return err
	}
	s.chats.Delete(chatID)
	return nil
}

// ScanImage opens the stored photo of a scan.
func (s *ScanService) ScanImage(ctx context.Context, userID, scanID string) (io.ReadCloser, string, error) {
	scan, err := s.ownedScan(ctx, userID, scanID)
	if err != nil {
		return nil, "", err
	}
	return s.images.Get(ctx, scan.ImageKey)
}

func (s *ScanService) register(userID, scanID string, session *chat.Session) {
	s.chats.SetDefault(session.ID(), &activeChat{userID: userID, scanID: scanID, session: session})
}

// closeScanChats closes every chat about scanID, captured or reopened.
func (s *ScanService) closeScanChats(scanID string) {
	for id, item := range s.chats.Items() {
		if ac, ok := item.Object.(*activeChat); ok && ac.scanID == scanID {
			s.chats.Delete(id)
		}
	}
}

func (s *ScanService) lookup(userID, chatID string) (*activeChat, error) {
	v, ok := s.chats.Get(chatID)
	if !ok {
		return nil, ErrChatNotFound
	}
	ac := v.(*activeChat)
	if ac.userID != userID {
		return nil, ErrChatNotFound
	}
	return ac, nil
}

// ownedScan hides other users' scans behind ErrScanNotFound.
func (s *ScanService) ownedScan(ctx context.Context, userID, scanID string) (*domain.Scan, error) {
	scan, err := s.scans.GetByID(ctx, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan: %w", err)
	}
	if scan == nil || scan.UserID != userID {
		return nil, ErrScanNotFound
	}
	return scan, nil
}

// publish reports a history change. Delivery failures are logged because the
// feed only prompts clients to re-fetch.
func (s *ScanService) publish(ctx context.Context, typ events.EventType, scan *domain.Scan) {
	ev := events.ScanEvent{Type: typ, ScanID: scan.ID, UserID: scan.UserID}
	if err := s.feed.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish scan event", "scan_id", scan.ID, "type", typ, "error", err)
	}
}
