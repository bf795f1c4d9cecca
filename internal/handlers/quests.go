// internal/handlers/quests.go
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"questlab/internal/models"
	"questlab/internal/services"

	"github.com/gin-gonic/gin"
)

// questJSON adds the decoded tag list to the serialized quest; the model
// keeps tags as JSON text internally.
type questJSON struct {
	models.Quest
	Tags []string `json:"tags"`
}

func questView(q models.Quest) questJSON {
	return questJSON{Quest: q, Tags: q.TagList()}
}

func questViews(list []models.Quest) []questJSON {
	out := make([]questJSON, len(list))
	for i, q := range list {
		out[i] = questView(q)
	}
	return out
}

// Gallery lists published quests. Guest accessible.
// Query params: tags (comma separated), page, limit.
func Gallery(quests *services.QuestService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		if page < 1 {
			page = 1
		}

		var tags []string
		if raw := c.Query("tags"); raw != "" {
			tags = strings.Split(raw, ",")
		}

		list, err := quests.Gallery(services.GalleryFilter{
			Tags:   tags,
			Limit:  limit,
			Offset: (page - 1) * limit,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"quests": questViews(list), "page": page})
	}
}

// GetQuest returns one quest with its ordered tasks. Drafts are visible only
// to their owner or an admin.
func GetQuest(quests *services.QuestService, users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		quest, err := quests.GetQuest(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		if !quest.Published() {
			user, err := users.Get(c.GetUint("userID"))
			if err != nil || (quest.OwnerID != user.ID && !user.Admin) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
				return
			}
		}
		c.JSON(http.StatusOK, questView(*quest))
	}
}

func CreateQuest(quests *services.QuestService, users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, users)
		if !ok {
			return
		}

		var input services.QuestInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		quest, err := quests.CreateQuest(user, input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, questView(*quest))
	}
}

func UpdateQuest(quests *services.QuestService, users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, users)
		if !ok {
			return
		}

		var input services.QuestInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		quest, err := quests.UpdateQuest(c.Param("id"), user, input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, questView(*quest))
	}
}

func PublishQuest(quests *services.QuestService, users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, users)
		if !ok {
			return
		}

		quest, err := quests.Publish(c.Param("id"), user)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, questView(*quest))
	}
}

func DeleteQuest(quests *services.QuestService, users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, users)
		if !ok {
			return
		}

		if err := quests.DeleteQuest(c.Request.Context(), c.Param("id"), user); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
