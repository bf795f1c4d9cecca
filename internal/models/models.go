// internal/models/models.go
package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role controls which operations a user may invoke.
type Role string

const (
	RoleCreator Role = "creator"
	RoleQuester Role = "quester"
	RoleBoth    Role = "both"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	return r == RoleCreator || r == RoleQuester || r == RoleBoth
}

// CanCreate reports whether the role permits quest authoring.
func (r Role) CanCreate() bool {
	return r == RoleCreator || r == RoleBoth
}

// CanSubmit reports whether the role permits task submissions.
func (r Role) CanSubmit() bool {
	return r == RoleQuester || r == RoleBoth
}

// Quest lifecycle states. Draft transitions to Published exactly once;
// there is no reverse transition.
const (
	QuestDraft     = "draft"
	QuestPublished = "published"
)

type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Username     string         `gorm:"unique;not null" json:"username"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Role         Role           `gorm:"not null;default:'quester'" json:"role"`
	Admin        bool           `gorm:"default:false" json:"admin"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Quests      []Quest      `gorm:"foreignKey:OwnerID" json:"quests,omitempty"`
	Submissions []Submission `gorm:"foreignKey:UserID" json:"submissions,omitempty"`
}

type Quest struct {
	ID          string    `gorm:"primarykey;size:36" json:"id"`
	OwnerID     uint      `gorm:"not null;index" json:"owner_id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `json:"description"`
	Tags        string    `json:"-"` // JSON-encoded list, see TagList
	Status      string    `gorm:"size:20;not null;default:'draft'" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Owner User   `gorm:"foreignKey:OwnerID" json:"-"`
	Tasks []Task `gorm:"foreignKey:QuestID;constraint:OnDelete:CASCADE" json:"tasks,omitempty"`
}

// TagList decodes the stored tags. Tags are kept as JSON text so the column
// behaves the same on SQLite and Postgres; a legacy comma separated value is
// still understood.
func (q *Quest) TagList() []string {
	if q.Tags == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(q.Tags), &tags); err == nil {
		return tags
	}
	for _, t := range strings.Split(q.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// SetTags encodes the given tags into the stored JSON form.
func (q *Quest) SetTags(tags []string) {
	if len(tags) == 0 {
		q.Tags = "[]"
		return
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		q.Tags = "[]"
		return
	}
	q.Tags = string(raw)
}

// Published reports whether the quest is visible in the gallery.
func (q *Quest) Published() bool {
	return q.Status == QuestPublished
}

type Task struct {
	ID           string `gorm:"primarykey;size:36" json:"id"`
	QuestID      string `gorm:"size:36;not null;uniqueIndex:idx_quest_position" json:"quest_id"`
	Title        string `gorm:"size:200;not null" json:"title"`
	Prompt       string `gorm:"not null" json:"prompt"`
	Instructions string `json:"instructions"`
	Position     int    `gorm:"not null;uniqueIndex:idx_quest_position" json:"position"`
}

type Submission struct {
	ID             string    `gorm:"primarykey;size:36" json:"id"`
	QuestID        string    `gorm:"size:36;not null;index" json:"quest_id"`
	TaskID         string    `gorm:"size:36;not null;index" json:"task_id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	ReflectionText string    `gorm:"not null" json:"reflection_text"`
	Feedback       *string   `json:"feedback,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	User  User    `gorm:"foreignKey:UserID" json:"-"`
	Media []Media `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE" json:"media,omitempty"`
}

// FeedbackStatus is "complete" once feedback has been attached, otherwise
// "pending" (the generator failed or has not run yet).
func (s *Submission) FeedbackStatus() string {
	if s.Feedback != nil && *s.Feedback != "" {
		return "complete"
	}
	return "pending"
}

type Media struct {
	ID           string    `gorm:"primarykey;size:36" json:"id"`
	SubmissionID string    `gorm:"size:36;not null;index" json:"submission_id"`
	ObjectKey    string    `gorm:"not null" json:"-"`
	FileName     string    `gorm:"size:255;not null" json:"file_name"`
	ContentType  string    `gorm:"size:100;not null" json:"content_type"`
	SizeBytes    int64     `gorm:"not null" json:"size_bytes"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewID returns a fresh uuid string primary key.
func NewID() string {
	return uuid.New().String()
}
