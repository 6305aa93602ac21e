package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	app "memocal/src/app"
	cfg "memocal/src/configuration"
)

// External storage services cap multi-object deletion at this many keys.
const maxBulkDeleteKeys = 1000

type (
	MediaHandler struct {
		s3              *app.MinioS3Client
		indexer         *app.DateIndexer
		processedPrefix string
		originalsPrefix string
	}

	BulkDeleteBody struct {
		Keys []string `json:"keys"`
	}
)

func NewMediaHandler(config *cfg.Properties, s3Client *app.MinioS3Client, indexer *app.DateIndexer) *MediaHandler {

	return &MediaHandler{
		s3:              s3Client,
		indexer:         indexer,
		processedPrefix: config.S3.ProcessedPrefix,
		originalsPrefix: config.S3.OriginalsPrefix,
	}

}

// GetMediaByDate serves the URL list for one calendar day from the
// persisted index. An unreadable index fails the request; an absent date
// is a normal empty day.
func (m *MediaHandler) GetMediaByDate(c *gin.Context) {
	date, ok := c.GetQuery("date")
	if !ok || date == "" {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"message": "error", "error": "no date in query"})
		return
	}
	urls, err := m.indexer.Lookup(date)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError,
			gin.H{"message": "error", "error": fmt.Errorf("can not read date index: %v", err).Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": gin.H{"date": date, "urls": urls}})
}

// GetPhotos lists bucket media for the admin browser. source selects the
// processed copies (index fast path), the originals, or both.
func (m *MediaHandler) GetPhotos(c *gin.Context) {
	source := c.DefaultQuery("source", "processed")

	var items []app.BrowseItem
	var err error
	switch source {
	case "processed":
		items, err = m.indexer.BrowseProcessed()
	case "originals":
		items, err = m.indexer.BrowsePrefix(m.originalsPrefix + "/")
	case "all":
		var processed, originals []app.BrowseItem
		processed, err = m.indexer.BrowsePrefix(m.processedPrefix + "/")
		if err == nil {
			originals, err = m.indexer.BrowsePrefix(m.originalsPrefix + "/")
		}
		items = append(processed, originals...)
		app.SortBrowseItems(items)
	default:
		c.IndentedJSON(http.StatusBadRequest, gin.H{"message": "error", "error": "unknown source in query"})
		return
	}
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError,
			gin.H{"message": "error", "error": fmt.Errorf("can not browse media: %v", err).Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": items})
}

// DeleteObjects removes up to 1000 bucket objects and reports per-key
// success or failure.
func (m *MediaHandler) DeleteObjects(c *gin.Context) {
	var requestBody BulkDeleteBody
	if err := c.BindJSON(&requestBody); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"message": "error", "error": "bad delete body"})
		return
	}
	if len(requestBody.Keys) == 0 {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"message": "error", "error": "no keys in request"})
		return
	}
	if len(requestBody.Keys) > maxBulkDeleteKeys {
		c.IndentedJSON(http.StatusBadRequest,
			gin.H{"message": "error", "error": fmt.Sprintf("too many keys, limit is %d", maxBulkDeleteKeys)})
		return
	}

	results := m.s3.DeleteMany(requestBody.Keys)
	deleted, failed := 0, 0
	for _, result := range results {
		if result.Ok {
			deleted++
		} else {
			failed++
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": gin.H{
		"deleted": deleted,
		"failed":  failed,
		"results": results,
	}})
}

// BuildIndex rebuilds the date index in full. preview=true computes the
// index without persisting it.
func (m *MediaHandler) BuildIndex(c *gin.Context) {
	preview := c.Query("preview") == "true"
	index, err := m.indexer.Build(preview)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError,
			gin.H{"message": "error", "error": fmt.Errorf("can not build index: %v", err).Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": gin.H{
		"preview": preview,
		"dates":   len(index),
		"index":   index,
	}})
}

// PruneIndex drops index entries whose backing objects are gone.
// preview=true reports removals without persisting them.
func (m *MediaHandler) PruneIndex(c *gin.Context) {
	preview := c.Query("preview") == "true"
	index, removed, err := m.indexer.Prune(preview)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError,
			gin.H{"message": "error", "error": fmt.Errorf("can not prune index: %v", err).Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": gin.H{
		"preview": preview,
		"removed": removed,
		"dates":   len(index),
		"index":   index,
	}})
}
