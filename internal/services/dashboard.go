// internal/services/dashboard.go
package services

import (
	"questlab/internal/models"

	"gorm.io/gorm"
)

// DashboardService aggregates a user's authored quests and own submissions.
// Read-only; everything comes from committed state at request time.
type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// QuestSummary is one owned quest with its submission count.
type QuestSummary struct {
	Quest           models.Quest `json:"quest"`
	SubmissionCount int64        `json:"submission_count"`
}

// SubmissionSummary is one of the user's submissions with feedback status
// and the parent quest/task titles.
type SubmissionSummary struct {
	Submission     models.Submission `json:"submission"`
	QuestTitle     string            `json:"quest_title"`
	TaskTitle      string            `json:"task_title"`
	FeedbackStatus string            `json:"feedback_status"`
}

// Dashboard is the aggregate returned to one user. Sections are populated
// according to the user's role.
type Dashboard struct {
	CreatedQuests []QuestSummary      `json:"created_quests,omitempty"`
	Submissions   []SubmissionSummary `json:"submissions,omitempty"`
}

// GetDashboard builds the per-user view: owned quests with submission counts
// for creators, own submissions with feedback status for questers.
func (s *DashboardService) GetDashboard(user *models.User) (*Dashboard, error) {
	dash := &Dashboard{}

	if user.Role.CanCreate() {
		var quests []models.Quest
		err := s.db.Where("owner_id = ?", user.ID).
			Order("created_at DESC").
			Find(&quests).Error
		if err != nil {
			return nil, err
		}
		for _, q := range quests {
			var count int64
			if err := s.db.Model(&models.Submission{}).Where("quest_id = ?", q.ID).Count(&count).Error; err != nil {
				return nil, err
			}
			dash.CreatedQuests = append(dash.CreatedQuests, QuestSummary{Quest: q, SubmissionCount: count})
		}
	}

	if user.Role.CanSubmit() {
		var submissions []models.Submission
		err := s.db.Preload("Media").
			Where("user_id = ?", user.ID).
			Order("created_at DESC").
			Find(&submissions).Error
		if err != nil {
			return nil, err
		}
		for _, sub := range submissions {
			summary := SubmissionSummary{
				Submission:     sub,
				FeedbackStatus: sub.FeedbackStatus(),
			}
			var quest models.Quest
			if err := s.db.Select("title").First(&quest, "id = ?", sub.QuestID).Error; err == nil {
				summary.QuestTitle = quest.Title
			}
			var task models.Task
			if err := s.db.Select("title").First(&task, "id = ?", sub.TaskID).Error; err == nil {
				summary.TaskTitle = task.Title
			}
			dash.Submissions = append(dash.Submissions, summary)
		}
	}

	return dash, nil
}
