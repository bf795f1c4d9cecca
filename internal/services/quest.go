// internal/services/quest.go
package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"questlab/internal/models"
	"questlab/internal/storage"

	"gorm.io/gorm"
)

// QuestService owns the quest catalog: creation, editing, publishing and the
// public gallery. The store is used to drop media objects when a quest is
// deleted.
type QuestService struct {
	db    *gorm.DB
	store storage.Store
}

func NewQuestService(db *gorm.DB, store storage.Store) *QuestService {
	return &QuestService{db: db, store: store}
}

// TaskInput describes one task in a create or update request.
type TaskInput struct {
	Title        string `json:"title" binding:"required"`
	Prompt       string `json:"prompt" binding:"required"`
	Instructions string `json:"instructions"`
}

// QuestInput describes a quest being created or edited.
type QuestInput struct {
	Title       string      `json:"title" binding:"required"`
	Description string      `json:"description"`
	Tags        []string    `json:"tags"`
	Tasks       []TaskInput `json:"tasks"`
}

// GalleryFilter narrows the public listing. Tags match case-insensitively;
// a quest qualifies when it carries at least one of the requested tags.
type GalleryFilter struct {
	Tags   []string
	Limit  int
	Offset int
}

// CreateQuest creates a quest in Draft state along with its ordered tasks.
func (s *QuestService) CreateQuest(owner *models.User, input QuestInput) (*models.Quest, error) {
	if !owner.Role.CanCreate() {
		return nil, ErrPermission
	}
	title := sanitizeText(input.Title)
	if title == "" {
		return nil, validationErr("title", "quest title is required")
	}
	if len(input.Tasks) == 0 {
		return nil, validationErr("tasks", "a quest needs at least one task")
	}

	quest := &models.Quest{
		ID:          models.NewID(),
		OwnerID:     owner.ID,
		Title:       title,
		Description: sanitizeText(input.Description),
		Status:      models.QuestDraft,
	}
	quest.SetTags(normalizeTags(input.Tags))

	tasks, err := buildTasks(quest.ID, input.Tasks)
	if err != nil {
		return nil, err
	}
	quest.Tasks = tasks

	if err := s.db.Create(quest).Error; err != nil {
		return nil, err
	}
	return quest, nil
}

// UpdateQuest replaces a quest's content. Allowed in both states, but only
// for the owner or an admin. Tasks keep their identity by position so
// submissions against them stay attached; a task that already has
// submissions cannot be removed.
func (s *QuestService) UpdateQuest(questID string, actor *models.User, input QuestInput) (*models.Quest, error) {
	quest, err := s.GetQuest(questID)
	if err != nil {
		return nil, err
	}
	if quest.OwnerID != actor.ID && !actor.Admin {
		return nil, ErrPermission
	}
	title := sanitizeText(input.Title)
	if title == "" {
		return nil, validationErr("title", "quest title is required")
	}
	if len(input.Tasks) == 0 {
		return nil, validationErr("tasks", "a quest needs at least one task")
	}

	tasks, err := buildTasks(quest.ID, input.Tasks)
	if err != nil {
		return nil, err
	}
	keep := len(quest.Tasks)
	if len(tasks) < keep {
		keep = len(tasks)
	}
	for i := 0; i < keep; i++ {
		tasks[i].ID = quest.Tasks[i].ID
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, dropped := range quest.Tasks[keep:] {
			var count int64
			if err := tx.Model(&models.Submission{}).Where("task_id = ?", dropped.ID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return validationErr("tasks", "task %q has submissions and cannot be removed", dropped.Title)
			}
			if err := tx.Delete(&models.Task{}, "id = ?", dropped.ID).Error; err != nil {
				return err
			}
		}
		for i := range tasks {
			var err error
			if i < keep {
				err = tx.Save(&tasks[i]).Error
			} else {
				err = tx.Create(&tasks[i]).Error
			}
			if err != nil {
				return err
			}
		}
		quest.Title = title
		quest.Description = sanitizeText(input.Description)
		quest.SetTags(normalizeTags(input.Tags))
		return tx.Omit("Tasks").Save(quest).Error
	})
	if err != nil {
		return nil, err
	}
	quest.Tasks = tasks
	return quest, nil
}

// Publish transitions a quest from Draft to Published. Publishing twice is an
// error and leaves the quest unchanged.
func (s *QuestService) Publish(questID string, actor *models.User) (*models.Quest, error) {
	quest, err := s.GetQuest(questID)
	if err != nil {
		return nil, err
	}
	if quest.OwnerID != actor.ID && !actor.Admin {
		return nil, ErrPermission
	}
	if quest.Published() {
		return nil, ErrAlreadyPublished
	}
	quest.Status = models.QuestPublished
	if err := s.db.Save(quest).Error; err != nil {
		return nil, err
	}
	return quest, nil
}

// DeleteQuest removes a quest with its tasks, submissions and media. Owner or
// admin only. Stored media objects are removed best-effort after the rows are
// gone.
func (s *QuestService) DeleteQuest(ctx context.Context, questID string, actor *models.User) error {
	quest, err := s.GetQuest(questID)
	if err != nil {
		return err
	}
	if quest.OwnerID != actor.ID && !actor.Admin {
		return ErrPermission
	}

	var subIDs []string
	err = s.db.Model(&models.Submission{}).
		Where("quest_id = ?", quest.ID).
		Pluck("id", &subIDs).Error
	if err != nil {
		return err
	}
	var media []models.Media
	if len(subIDs) > 0 {
		if err := s.db.Where("submission_id IN ?", subIDs).Find(&media).Error; err != nil {
			return err
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(subIDs) > 0 {
			if err := tx.Where("submission_id IN ?", subIDs).Delete(&models.Media{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.Submission{}, "id IN ?", subIDs).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("quest_id = ?", quest.ID).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		return tx.Delete(quest).Error
	})
	if err != nil {
		return err
	}

	for _, m := range media {
		if err := s.store.Remove(ctx, m.ObjectKey); err != nil {
			log.Printf("quest %s: failed to remove object %s: %v", quest.ID, m.ObjectKey, err)
		}
	}
	return nil
}

// GetQuest loads a quest with its tasks in order.
func (s *QuestService) GetQuest(questID string) (*models.Quest, error) {
	var quest models.Quest
	err := s.db.Preload("Tasks", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&quest, "id = ?", questID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &quest, nil
}

// GetTask loads a task together with its parent quest.
func (s *QuestService) GetTask(taskID string) (*models.Task, *models.Quest, error) {
	var task models.Task
	if err := s.db.First(&task, "id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	quest, err := s.GetQuest(task.QuestID)
	if err != nil {
		return nil, nil, err
	}
	return &task, quest, nil
}

// Gallery lists published quests, newest first. When tags are requested the
// full published list is filtered first, so limit/offset page through the
// matching quests.
func (s *QuestService) Gallery(filter GalleryFilter) ([]models.Quest, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := s.db.Preload("Tasks", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).
		Where("status = ?", models.QuestPublished).
		Order("created_at DESC")

	wanted := normalizeTags(filter.Tags)
	if len(wanted) == 0 {
		var quests []models.Quest
		err := query.Limit(limit).Offset(offset).Find(&quests).Error
		return quests, err
	}

	// Tags live in a JSON text column, so tag filtering happens here rather
	// than with database-specific JSON operators.
	var quests []models.Quest
	if err := query.Find(&quests).Error; err != nil {
		return nil, err
	}
	filtered := quests[:0]
	for _, q := range quests {
		if tagsIntersect(q.TagList(), wanted) {
			filtered = append(filtered, q)
		}
	}
	if offset >= len(filtered) {
		return nil, nil
	}
	filtered = filtered[offset:]
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

func buildTasks(questID string, inputs []TaskInput) ([]models.Task, error) {
	tasks := make([]models.Task, 0, len(inputs))
	for i, in := range inputs {
		title := sanitizeText(in.Title)
		prompt := sanitizeText(in.Prompt)
		if title == "" || prompt == "" {
			return nil, validationErr("tasks", "task %d needs a title and a prompt", i)
		}
		tasks = append(tasks, models.Task{
			ID:           models.NewID(),
			QuestID:      questID,
			Title:        title,
			Prompt:       prompt,
			Instructions: sanitizeText(in.Instructions),
			Position:     i,
		})
	}
	return tasks, nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func tagsIntersect(have, want []string) bool {
	for _, h := range have {
		h = strings.ToLower(h)
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}
