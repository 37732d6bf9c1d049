package api

import (
	"io"
	"net/http"
	"path/filepath"

	"github.com/brandforge/gen-server/internal/app"
	"github.com/brandforge/gen-server/internal/config"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

// UploadFileHandler stores a caller-supplied reference image and returns
// its public URL, so front ends can upload once and reuse the URL across
// generation requests.
func UploadFileHandler(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "failed to parse request body"})
		return
	}

	content, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "failed to open file"})
		return
	}
	defer content.Close()

	fileBytes, err := io.ReadAll(content)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "failed to read file"})
		return
	}

	url := make(chan string, 1)
	app := c.MustGet("app").(*app.App)

	name := file.Filename[:len(file.Filename)-len(filepath.Ext(file.Filename))]
	app.Uploader().UploadBytes(fileBytes, name, filepath.Ext(file.Filename), false, url)

	uploadedUrl, ok := <-url
	if !ok || uploadedUrl == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to store file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"data": map[string]string{
			"url": uploadedUrl,
		},
	})
}

func GetFile(c *gin.Context) {
	filename := c.Param("filename")
	app := c.MustGet("app").(*app.App)

	storage := app.Uploader().Storage()

	if app.Config().FilesystemType == config.FilesystemLocal {
		file, err := storage.ResolveFile(filename, "", false)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "file not found"})
			return
		}

		c.File(file)
		return
	}

	file, err := storage.GetFile(filename)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "file not found"})
		return
	}

	c.Data(http.StatusOK, mimetype.Detect(file.Content).String(), file.Content)
}
