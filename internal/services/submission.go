// internal/services/submission.go
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"questlab/internal/config"
	"questlab/internal/feedback"
	"questlab/internal/models"
	"questlab/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"gorm.io/gorm"
)

// SubmissionService runs the submission pipeline: upload validation, atomic
// persistence and best-effort feedback generation.
type SubmissionService struct {
	db        *gorm.DB
	cfg       config.Config
	store     storage.Store
	generator feedback.Generator
	quests    *QuestService
}

func NewSubmissionService(db *gorm.DB, cfg config.Config, store storage.Store, gen feedback.Generator) *SubmissionService {
	return &SubmissionService{
		db:        db,
		cfg:       cfg,
		store:     store,
		generator: gen,
		quests:    NewQuestService(db, store),
	}
}

// Upload is one media file attached to a submission. Open must be callable
// more than once; the content is read once for sniffing and once for storage.
type Upload struct {
	FileName string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// SubmitResult carries the created submission plus a non-fatal warning when
// feedback generation failed. The submission stands either way.
type SubmitResult struct {
	Submission *models.Submission
	// FeedbackErr is set when the generator failed; wraps ErrFeedbackUnavailable.
	FeedbackErr error
}

// Submit validates and persists a learner's reflection with its media files.
// All files are validated before anything is stored; a single bad file
// rejects the whole submission and leaves no Media rows behind.
func (s *SubmissionService) Submit(ctx context.Context, taskID string, user *models.User, reflection string, uploads []Upload) (*SubmitResult, error) {
	if !user.Role.CanSubmit() {
		return nil, ErrPermission
	}

	task, quest, err := s.quests.GetTask(taskID)
	if err != nil {
		return nil, err
	}

	reflection = sanitizeText(reflection)
	if reflection == "" {
		return nil, validationErr("reflection_text", "a reflection is required")
	}
	if len(uploads) == 0 {
		return nil, validationErr("media", "at least one media file is required")
	}

	contentTypes := make([]string, len(uploads))
	for i, up := range uploads {
		ct, err := s.validateUpload(up)
		if err != nil {
			return nil, err
		}
		contentTypes[i] = ct
	}

	// Objects first, rows second: a failed transaction can clean up objects,
	// a lost object would leave a dangling Media row.
	media := make([]models.Media, 0, len(uploads))
	stored := make([]string, 0, len(uploads))
	cleanup := func() {
		for _, key := range stored {
			if err := s.store.Remove(ctx, key); err != nil {
				log.Printf("submission: failed to clean up object %s: %v", key, err)
			}
		}
	}

	for i, up := range uploads {
		key := storage.ObjectKey(user.ID, up.FileName)
		if err := s.saveUpload(ctx, key, up, contentTypes[i]); err != nil {
			cleanup()
			return nil, err
		}
		stored = append(stored, key)
		media = append(media, models.Media{
			ID:          models.NewID(),
			ObjectKey:   key,
			FileName:    up.FileName,
			ContentType: contentTypes[i],
			SizeBytes:   up.Size,
		})
	}

	submission := &models.Submission{
		ID:             models.NewID(),
		QuestID:        quest.ID,
		TaskID:         task.ID,
		UserID:         user.ID,
		ReflectionText: reflection,
	}
	for i := range media {
		media[i].SubmissionID = submission.ID
	}
	submission.Media = media

	if err := s.db.Create(submission).Error; err != nil {
		cleanup()
		return nil, err
	}

	result := &SubmitResult{Submission: submission}
	if err := s.attachFeedback(ctx, submission, quest.TagList()); err != nil {
		log.Printf("submission %s: feedback generation failed: %v", submission.ID, err)
		result.FeedbackErr = fmt.Errorf("%w: %v", ErrFeedbackUnavailable, err)
	}
	return result, nil
}

// RetryFeedback regenerates feedback for an existing submission, overwriting
// any previous value. Only the submitter (or an admin) may retry.
func (s *SubmissionService) RetryFeedback(ctx context.Context, submissionID string, actor *models.User) (*models.Submission, error) {
	submission, err := s.Get(submissionID)
	if err != nil {
		return nil, err
	}
	if submission.UserID != actor.ID && !actor.Admin {
		return nil, ErrPermission
	}
	quest, err := s.quests.GetQuest(submission.QuestID)
	if err != nil {
		return nil, err
	}
	if err := s.attachFeedback(ctx, submission, quest.TagList()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedbackUnavailable, err)
	}
	return submission, nil
}

// Get loads a submission with its media.
func (s *SubmissionService) Get(submissionID string) (*models.Submission, error) {
	var submission models.Submission
	err := s.db.Preload("Media").First(&submission, "id = ?", submissionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &submission, nil
}

// ByQuest lists submissions against a quest. Restricted to the quest owner
// or an admin.
func (s *SubmissionService) ByQuest(questID string, actor *models.User) ([]models.Submission, error) {
	quest, err := s.quests.GetQuest(questID)
	if err != nil {
		return nil, err
	}
	if quest.OwnerID != actor.ID && !actor.Admin {
		return nil, ErrPermission
	}
	var submissions []models.Submission
	err = s.db.Preload("Media").
		Where("quest_id = ?", questID).
		Order("created_at DESC").
		Find(&submissions).Error
	return submissions, err
}

// validateUpload enforces the size cap and the allowed content-type set,
// sniffing the actual bytes rather than trusting the declared type.
func (s *SubmissionService) validateUpload(up Upload) (string, error) {
	if up.FileName == "" {
		return "", validationErr("media", "file name is missing")
	}
	if up.Size <= 0 {
		return "", validationErr(up.FileName, "file is empty")
	}
	if up.Size > s.cfg.MaxUploadBytes {
		return "", validationErr(up.FileName, "file exceeds the %d byte limit", s.cfg.MaxUploadBytes)
	}

	r, err := up.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload %s: %w", up.FileName, err)
	}
	defer r.Close()

	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to sniff upload %s: %w", up.FileName, err)
	}
	if !s.cfg.MIMEAllowed(mtype.String()) {
		return "", validationErr(up.FileName, "file type %s is not allowed", mtype.String())
	}
	return mtype.String(), nil
}

func (s *SubmissionService) saveUpload(ctx context.Context, key string, up Upload, contentType string) error {
	r, err := up.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload %s: %w", up.FileName, err)
	}
	defer r.Close()
	return s.store.Save(ctx, key, r, up.Size, contentType)
}

func (s *SubmissionService) attachFeedback(ctx context.Context, submission *models.Submission, tags []string) error {
	text, err := s.generator.Generate(ctx, submission.ReflectionText, tags)
	if err != nil {
		return err
	}
	submission.Feedback = &text
	return s.db.Model(submission).Update("feedback", text).Error
}
