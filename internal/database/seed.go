// internal/database/seed.go
package database

import (
	"errors"
	"fmt"
	"log"

	"questlab/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seed bootstraps a default admin account and two sample quests when the
// store is empty. Safe to run repeatedly; existing data is left alone.
// Meant for local development only.
func Seed(db *gorm.DB) error {
	var admin models.User
	err := db.Where("username = ?", "admin").First(&admin).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte("Password123!"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash seed password: %w", err)
		}
		admin = models.User{
			Username:     "admin",
			PasswordHash: string(hash),
			Role:         models.RoleCreator,
			Admin:        true,
		}
		if err := db.Create(&admin).Error; err != nil {
			return fmt.Errorf("failed to create admin: %w", err)
		}
		log.Println("seed: created admin account")
	case err != nil:
		return err
	}

	var count int64
	if err := db.Model(&models.Quest{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, q := range sampleQuests(admin.ID) {
		if err := db.Create(q).Error; err != nil {
			return fmt.Errorf("failed to seed quest %q: %w", q.Title, err)
		}
	}
	log.Println("seed: created sample quests")
	return nil
}

func sampleQuests(ownerID uint) []*models.Quest {
	newton := &models.Quest{
		ID:          models.NewID(),
		OwnerID:     ownerID,
		Title:       "Exploring Newton's Laws",
		Description: "A series of physics tasks exploring motion and forces in everyday life.",
		Status:      models.QuestPublished,
	}
	newton.SetTags([]string{"science", "physics", "energy"})
	newton.Tasks = []models.Task{{
		ID:           models.NewID(),
		QuestID:      newton.ID,
		Title:        "Observe Motion",
		Prompt:       "Find moving objects and describe the forces acting on them",
		Instructions: "Use everyday examples",
		Position:     0,
	}}

	micro := &models.Quest{
		ID:          models.NewID(),
		OwnerID:     ownerID,
		Title:       "Kitchen Microbiology",
		Description: "Investigate the hidden world of microorganisms in your kitchen.",
		Status:      models.QuestPublished,
	}
	micro.SetTags([]string{"biology", "microbiology", "kitchen"})
	micro.Tasks = []models.Task{{
		ID:           models.NewID(),
		QuestID:      micro.ID,
		Title:        "Grow Cultures",
		Prompt:       "Observe growth patterns over several days",
		Instructions: "Document daily",
		Position:     0,
	}}

	return []*models.Quest{newton, micro}
}
