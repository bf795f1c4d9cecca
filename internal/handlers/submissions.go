// internal/handlers/submissions.go
package handlers

import (
	"context"
	"io"
	"log"
	"net/http"

	"questlab/internal/models"
	"questlab/internal/services"
	"questlab/internal/storage"

	"github.com/gin-gonic/gin"
)

// mediaJSON decorates a media record with a fetchable link: a presigned URL
// when MinIO backs the store, a /media path for the local store.
type mediaJSON struct {
	models.Media
	URL string `json:"url,omitempty"`
}

type submissionJSON struct {
	models.Submission
	Media          []mediaJSON `json:"media"`
	FeedbackStatus string      `json:"feedback_status"`
}

func submissionView(ctx context.Context, store storage.Store, sub models.Submission) submissionJSON {
	view := submissionJSON{
		Submission:     sub,
		Media:          make([]mediaJSON, 0, len(sub.Media)),
		FeedbackStatus: sub.FeedbackStatus(),
	}
	for _, m := range sub.Media {
		link, err := store.URL(ctx, m.ObjectKey)
		if err != nil {
			log.Printf("media %s: failed to build URL: %v", m.ID, err)
		}
		view.Media = append(view.Media, mediaJSON{Media: m, URL: link})
	}
	return view
}

// Submit accepts a multipart form with a reflection_text field and any
// number of media files. The whole submission is rejected if any file fails
// validation; feedback generation failure is reported as a warning, not an
// error.
func Submit(submissions *services.SubmissionService, users *services.UserService, store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, users)
		if !ok {
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
			return
		}

		reflection := c.PostForm("reflection_text")

		uploads := make([]services.Upload, 0, len(form.File["media"]))
		for _, fh := range form.File["media"] {
			fh := fh
			uploads = append(uploads, services.Upload{
				FileName: fh.Filename,
				Size:     fh.Size,
				Open: func() (io.ReadCloser, error) {
					return fh.Open()
				},
			})
		}

		result, err := submissions.Submit(c.Request.Context(), c.Param("id"), user, reflection, uploads)
		if err != nil {
			respondError(c, err)
			return
		}

		resp := gin.H{"submission": submissionView(c.Request.Context(), store, *result.Submission)}
		if result.FeedbackErr != nil {
			resp["feedback_warning"] = "Feedback could not be generated yet; retry later"
		}
		c.JSON(http.StatusCreated, resp)
	}
}

// RetryFeedback regenerates feedback for one of the caller's submissions.
func RetryFeedback(submissions *services.SubmissionService, users *services.UserService, store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, users)
		if !ok {
			return
		}

		submission, err := submissions.RetryFeedback(c.Request.Context(), c.Param("id"), user)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, submissionView(c.Request.Context(), store, *submission))
	}
}

// QuestSubmissions lets a quest owner review learner submissions.
func QuestSubmissions(submissions *services.SubmissionService, users *services.UserService, store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, users)
		if !ok {
			return
		}

		list, err := submissions.ByQuest(c.Param("id"), user)
		if err != nil {
			respondError(c, err)
			return
		}

		views := make([]submissionJSON, 0, len(list))
		for _, sub := range list {
			views = append(views, submissionView(c.Request.Context(), store, sub))
		}
		c.JSON(http.StatusOK, gin.H{"submissions": views})
	}
}
