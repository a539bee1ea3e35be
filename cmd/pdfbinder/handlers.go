package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lgulliver/pdfbinder/internal/middleware"
	"github.com/lgulliver/pdfbinder/internal/workspace"
	"github.com/lgulliver/pdfbinder/pkg/types"
	"github.com/lgulliver/pdfbinder/pkg/utils"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Flash messages shown on the index page
const (
	msgNoFilePart      = "No file part"
	msgNoFileSelected  = "No file selected"
	msgOnlyPDF         = "Only PDF files are allowed"
	msgTooLarge        = "File is too large"
	msgUploaded        = "Uploaded %s"
	msgMissingDocument = "That document no longer exists, the list has been refreshed"
	msgUnknownDocument = "Unknown document"
	msgBadOrder        = "Invalid order, please try again"
	msgNothingToMerge  = "Upload at least one PDF before merging"
	msgCleared         = "All documents removed"
	msgFailed          = "Something went wrong, please try again"
)

func handleIndex(manager *workspace.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		flashes := middleware.Flashes(c)

		docs, err := manager.List(c.Request.Context(), middleware.SessionID(c))
		if err != nil {
			logFailure(c, "list", err)
			flashes = append(flashes, msgFailed)
		}

		c.HTML(http.StatusOK, "index.html", gin.H{
			"Documents": documentViews(docs),
			"Flashes":   flashes,
		})
	}
}

func handleListDocuments(manager *workspace.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		docs, err := manager.List(c.Request.Context(), middleware.SessionID(c))
		if err != nil {
			logFailure(c, "list", err)
			c.JSON(http.StatusInternalServerError, types.APIResponse{
				Success: false,
				Error:   "Failed to list documents",
			})
			return
		}

		c.JSON(http.StatusOK, types.APIResponse{
			Success: true,
			Data:    documentViews(docs),
		})
	}
}

func handleUpload(manager *workspace.Manager, maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

		header, err := c.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			switch {
			case errors.As(err, &tooLarge):
				redirectHome(c, msgTooLarge)
			case errors.Is(err, http.ErrMissingFile):
				redirectHome(c, msgNoFilePart)
			default:
				logFailure(c, "upload", err)
				redirectHome(c, msgFailed)
			}
			return
		}
		if header.Filename == "" {
			redirectHome(c, msgNoFileSelected)
			return
		}
		if !utils.IsAllowedDocument(header.Filename) {
			redirectHome(c, msgOnlyPDF)
			return
		}

		file, err := header.Open()
		if err != nil {
			logFailure(c, "upload", err)
			redirectHome(c, msgFailed)
			return
		}
		defer file.Close()

		doc, err := manager.Insert(c.Request.Context(), middleware.SessionID(c), header.Filename, file)
		if err != nil {
			logFailure(c, "upload", err)
			switch {
			case errors.Is(err, workspace.ErrInvalidInput):
				redirectHome(c, msgOnlyPDF)
			default:
				redirectHome(c, msgFailed)
			}
			return
		}

		redirectHome(c, fmt.Sprintf(msgUploaded, doc.OriginalName))
	}
}

func handleThumbnail(manager *workspace.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")

		file, err := manager.OpenThumbnail(c.Request.Context(), middleware.SessionID(c), name)
		if err != nil {
			logFailure(c, "thumbnail", err)
			redirectHome(c, "")
			return
		}
		defer file.Close()

		info, err := file.Stat()
		if err != nil {
			logFailure(c, "thumbnail", err)
			redirectHome(c, "")
			return
		}

		c.Header("Content-Type", "image/png")
		c.Header("Cache-Control", "no-cache")
		http.ServeContent(c.Writer, c.Request, name+types.ThumbnailExtension, info.ModTime(), file)
	}
}

func handleDelete(manager *workspace.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := manager.DeleteDocument(c.Request.Context(), middleware.SessionID(c), c.Param("name"))
		if err != nil {
			logFailure(c, "delete", err)
			redirectHome(c, failureMessage(err, msgUnknownDocument))
			return
		}
		redirectHome(c, "")
	}
}

func handleReorder(manager *workspace.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		positions, err := parseOrder(c)
		if err != nil {
			log.Warn().Err(err).Str("session_id", middleware.SessionID(c)).Msg("malformed reorder request")
			redirectHome(c, msgBadOrder)
			return
		}

		if err := manager.Reorder(c.Request.Context(), middleware.SessionID(c), positions); err != nil {
			logFailure(c, "reorder", err)
			redirectHome(c, failureMessage(err, msgBadOrder))
			return
		}
		redirectHome(c, "")
	}
}

func handleMerge(manager *workspace.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Merge into a file first so a failure can still redirect
		out, err := os.CreateTemp("", "pdfbinder-merge-*.pdf")
		if err != nil {
			logFailure(c, "merge", err)
			redirectHome(c, msgFailed)
			return
		}
		defer os.Remove(out.Name())

		_, err = manager.Merge(c.Request.Context(), middleware.SessionID(c), out)
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			logFailure(c, "merge", err)
			redirectHome(c, failureMessage(err, msgFailed))
			return
		}

		c.FileAttachment(out.Name(), "merged-"+time.Now().Format("20060102-150405")+types.DocumentExtension)
	}
}

func handleCleanup(manager *workspace.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := manager.Purge(c.Request.Context(), middleware.SessionID(c)); err != nil {
			logFailure(c, "cleanup", err)
			redirectHome(c, msgFailed)
			return
		}
		redirectHome(c, msgCleared)
	}
}

// parseOrder reads "order[]=3&order[]=1..." from the path, falling back to the query string
func parseOrder(c *gin.Context) ([]int, error) {
	raw := c.QueryArray("order[]")
	if encoded := c.Param("order"); encoded != "" {
		values, err := url.ParseQuery(encoded)
		if err != nil {
			return nil, err
		}
		raw = values["order[]"]
	}

	positions := make([]int, len(raw))
	for i, s := range raw {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, err
		}
		positions[i] = n
	}
	return positions, nil
}

func documentViews(docs []types.Document) []types.DocumentView {
	views := make([]types.DocumentView, len(docs))
	for i, doc := range docs {
		name := doc.FileName()
		views[i] = types.DocumentView{
			Index:        doc.Index,
			Name:         name,
			OriginalName: doc.OriginalName,
			Size:         utils.FormatBytes(doc.Size),
			ThumbnailURL: "/shots/" + url.PathEscape(name),
			DeleteURL:    "/delete/" + url.PathEscape(name),
		}
	}
	return views
}

// failureMessage turns a workspace error into text fit for the user
func failureMessage(err error, invalidInput string) string {
	switch {
	case errors.Is(err, workspace.ErrNotFound):
		return msgMissingDocument
	case errors.Is(err, workspace.ErrInvalidInput):
		return invalidInput
	case errors.Is(err, workspace.ErrEmptyWorkspace):
		return msgNothingToMerge
	default:
		return msgFailed
	}
}

func logFailure(c *gin.Context, op string, err error) {
	kind := workspace.Kind(err)

	var event *zerolog.Event
	switch kind {
	case "invalid_input", "not_found", "empty":
		event = log.Warn()
	default:
		event = log.Error()
	}
	event.
		Err(err).
		Str("operation", op).
		Str("kind", kind).
		Str("session_id", middleware.SessionID(c)).
		Msg("workspace request failed")
}

// redirectHome sends the browser back to the index, optionally with a flash message
func redirectHome(c *gin.Context, message string) {
	if message != "" {
		middleware.AddFlash(c, message)
		middleware.SaveSession(c)
	}
	c.Redirect(http.StatusFound, "/")
}
