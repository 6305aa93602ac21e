package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	app "memocal/src/app"
	cfg "memocal/src/configuration"
	db "memocal/src/repository"
)

type (
	EntriesHandler struct {
		dataStore db.EntryDB
	}

	UpsertEntryBody struct {
		Date    string   `json:"date"`
		Kind    string   `json:"kind"`
		Caption string   `json:"caption"`
		Media   []string `json:"media"`
	}

	DeleteEntryBody struct {
		Date string `json:"date"`
	}
)

func NewEntriesHandler(config *cfg.Properties, dataStore db.EntryDB) *EntriesHandler {

	return &EntriesHandler{
		dataStore: dataStore,
	}

}

// GetEntries returns every calendar entry sorted ascending by date.
func (e *EntriesHandler) GetEntries(c *gin.Context) {
	entries, err := e.dataStore.ListEntries()
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError,
			gin.H{"message": "error", "error": fmt.Errorf("can not fetch entries: %v", err).Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": entries})
}

// PutEntry inserts or replaces the entry keyed by its date.
func (e *EntriesHandler) PutEntry(c *gin.Context) {
	var requestBody UpsertEntryBody
	if err := c.BindJSON(&requestBody); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"message": "error", "error": "bad entry body"})
		return
	}
	if requestBody.Date == "" {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"message": "error", "error": "no date in request"})
		return
	}
	if requestBody.Kind == "" {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"message": "error", "error": "no kind in request"})
		return
	}
	kind := app.EntryKind(requestBody.Kind)
	if kind != app.KindText && kind != app.KindPhoto && kind != app.KindGallery {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"message": "error", "error": "unknown kind in request"})
		return
	}

	entry := app.Entry{
		Date:    requestBody.Date,
		Kind:    kind,
		Caption: requestBody.Caption,
		Media:   requestBody.Media,
	}
	if err := e.dataStore.UpsertEntry(entry); err != nil {
		c.IndentedJSON(http.StatusInternalServerError,
			gin.H{"message": "error", "error": fmt.Errorf("can not save entry: %v", err).Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": entry})
}

// DeleteEntry removes the entry keyed by the given date.
func (e *EntriesHandler) DeleteEntry(c *gin.Context) {
	var requestBody DeleteEntryBody
	if err := c.BindJSON(&requestBody); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"message": "error", "error": "bad delete body"})
		return
	}
	if requestBody.Date == "" {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"message": "error", "error": "no date in request"})
		return
	}
	if err := e.dataStore.DeleteEntry(requestBody.Date); err != nil {
		c.IndentedJSON(http.StatusInternalServerError,
			gin.H{"message": "error", "error": fmt.Errorf("can not delete entry: %v", err).Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
