package service

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"unicode"

	"github.com/kiezhub-dev/kiezhub/shared/config"
	"github.com/kiezhub-dev/kiezhub/shared/domain"
	"github.com/kiezhub-dev/kiezhub/shared/errors"
	"github.com/kiezhub-dev/kiezhub/shared/logger"
)

var urlRegex = regexp.MustCompile(`https?://\S+`)

type ModerationService interface {
	Check(content string) domain.ModerationResult
	Queue(page domain.Page) ([]domain.ModerationItem, error)
	Resolve(id int64, action string, admin *domain.User) error
	CheckUser(userId domain.UserId) (domain.ModerationReport, error)
}

type ModerationStorage interface {
	SaveModerationItem(item domain.ModerationItem) (int64, error)
	ModerationItem(id int64) (domain.ModerationItem, error)
	ModerationQueue(page domain.Page) ([]domain.ModerationItem, error)
	ResolveModerationItem(id int64, status domain.ModerationStatus, resolvedBy domain.UserId) error
	RecentContentBy(userId domain.UserId, limit int) ([]domain.FlaggedContent, error)

	DeleteComment(id domain.CommentId) error
	DeletePost(id domain.PostId) error
	DeleteService(id domain.ServiceId) error
}

type Moderation struct {
	storage ModerationStorage
	cfg     *config.Moderation
}

func NewModeration(storage ModerationStorage, cfg *config.Moderation) *Moderation {
	return &Moderation{storage: storage, cfg: cfg}
}

// Check scores one piece of text. Each signal adds to the confidence,
// flagging kicks in at the configured threshold.
func (m *Moderation) Check(content string) domain.ModerationResult {
	var result domain.ModerationResult
	lowered := strings.ToLower(content)

	for _, word := range m.cfg.BannedWords {
		if strings.Contains(lowered, strings.ToLower(word)) {
			result.Confidence += 0.5
			result.Reasons = append(result.Reasons, "banned_word: "+word)
		}
	}

	if links := urlRegex.FindAllString(content, -1); len(links) > 2 {
		result.Confidence += 0.3
		result.Reasons = append(result.Reasons, fmt.Sprintf("excessive_links: %d", len(links)))
	}

	if upper, letters := countCase(content); letters > 20 && float64(upper)/float64(letters) > 0.7 {
		result.Confidence += 0.2
		result.Reasons = append(result.Reasons, "excessive_caps")
	}

	if digits := countDigits(content); len(content) > 0 && float64(digits)/float64(len(content)) > 0.5 {
		result.Confidence += 0.2
		result.Reasons = append(result.Reasons, "excessive_digits")
	}

	if longestRun(content) >= 6 {
		result.Confidence += 0.2
		result.Reasons = append(result.Reasons, "repeated_characters")
	}

	if result.Confidence > 1 {
		result.Confidence = 1
	}
	result.Flagged = result.Confidence >= m.cfg.FlagThreshold
	result.RequiresReview = result.Confidence >= m.cfg.ReviewThreshold
	return result
}

// Screen checks saved content and queues it for admin review when the
// score warrants it. Failures are logged, never surfaced to the caller.
func (m *Moderation) Screen(contentType string, contentId int64, userId domain.UserId, content string) {
	if !m.cfg.Enabled {
		return
	}
	result := m.Check(content)
	if !result.RequiresReview {
		return
	}

	_, err := m.storage.SaveModerationItem(domain.ModerationItem{
		ContentType: contentType,
		ContentId:   contentId,
		UserId:      userId,
		Reasons:     result.Reasons,
		Confidence:  result.Confidence,
		Status:      domain.ModerationPending,
	})
	if err != nil {
		logger.Log.Warn("failed to queue content for moderation",
			"content_type", contentType,
			"content_id", contentId,
			"error", err)
		return
	}
	logger.Log.Info("content queued for moderation",
		"content_type", contentType,
		"content_id", contentId,
		"confidence", result.Confidence)
}

func (m *Moderation) Queue(page domain.Page) ([]domain.ModerationItem, error) {
	return m.storage.ModerationQueue(page)
}

// Resolve closes a pending queue item. "remove" also deletes the content
// itself, "approve" just clears the entry.
func (m *Moderation) Resolve(id int64, action string, admin *domain.User) error {
	item, err := m.storage.ModerationItem(id)
	if err != nil {
		return err
	}

	var status domain.ModerationStatus
	switch action {
	case "approve":
		status = domain.ModerationApproved
	case "remove":
		status = domain.ModerationRemoved
	default:
		return &errors.ErrorWithStatusCode{Message: "Unknown action", StatusCode: http.StatusBadRequest}
	}

	if err := m.storage.ResolveModerationItem(id, status, admin.Id); err != nil {
		return err
	}

	if status == domain.ModerationRemoved {
		if err := m.deleteContent(item); err != nil && !errors.IsNotFound(err) {
			return err
		}
	}
	return nil
}

func (m *Moderation) deleteContent(item domain.ModerationItem) error {
	switch item.ContentType {
	case "comment":
		return m.storage.DeleteComment(item.ContentId)
	case "forum_post":
		return m.storage.DeletePost(item.ContentId)
	case "service":
		return m.storage.DeleteService(item.ContentId)
	}
	return &errors.ErrorWithStatusCode{Message: "Unknown content type", StatusCode: http.StatusBadRequest}
}

// CheckUser re-scores a user's recent content and summarizes the risk.
func (m *Moderation) CheckUser(userId domain.UserId) (domain.ModerationReport, error) {
	const recentLimit = 50

	items, err := m.storage.RecentContentBy(userId, recentLimit)
	if err != nil {
		return domain.ModerationReport{}, err
	}

	report := domain.ModerationReport{
		UserId:     userId,
		TotalItems: len(items),
	}
	var totalScore float64
	for _, item := range items {
		result := m.Check(item.Preview)
		totalScore += result.Confidence
		if result.Flagged {
			item.Result = result
			report.Flagged = append(report.Flagged, item)
			report.FlaggedItems++
		}
	}
	if len(items) > 0 {
		report.AverageRiskScore = totalScore / float64(len(items))
	}
	report.NeedsAdminReview = report.FlaggedItems > 0 || report.AverageRiskScore >= m.cfg.ReviewThreshold
	return report, nil
}

func countCase(s string) (upper, letters int) {
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	return upper, letters
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

// longestRun finds the longest run of one repeated character.
func longestRun(s string) int {
	var prev rune
	run, best := 0, 0
	for _, r := range s {
		if r == prev {
			run++
		} else {
			run = 1
			prev = r
		}
		if run > best {
			best = run
		}
	}
	return best
}
