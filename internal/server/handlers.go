package server

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pdfqa/internal/domain"
	"pdfqa/internal/uploads"
)

const uploadField = "pdfs"

type askRequest struct {
	Question string `json:"question"`
}

func (s *Server) listPDFs(c *gin.Context) {
	files, err := s.uploads.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list PDF files."})
		return
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	c.JSON(http.StatusOK, gin.H{"files": names})
}

func (s *Server) uploadPDFs(c *gin.Context) {
	// room for every file plus multipart framing
	limit := int64(s.config.MaxFiles)*s.config.MaxFileBytes + 1<<20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Upload is larger than %d bytes.", limit)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No PDF files were uploaded."})
		return
	}
	headers := form.File[uploadField]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No PDF files were uploaded."})
		return
	}
	if len(headers) > s.config.MaxFiles {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("At most %d files can be uploaded at once.", s.config.MaxFiles)})
		return
	}

	names := make([]string, len(headers))
	for i, fh := range headers {
		name, problem := s.checkUpload(fh)
		if problem != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": problem})
			return
		}
		names[i] = name
	}

	for i, fh := range headers {
		if err := s.saveUpload(c.Request.Context(), names[i], fh); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store the uploaded file: " + err.Error()})
			return
		}
	}
	s.logger.Info("files uploaded", zap.Strings("files", names), zap.String("request_id", c.GetString(requestIDKey)))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("%d PDF files uploaded successfully.", len(names)),
		"files":   names,
	})
}

// checkUpload validates one part before anything is written. It returns the
// stored name, or a message for the client.
func (s *Server) checkUpload(fh *multipart.FileHeader) (string, string) {
	mediaType, _, err := mime.ParseMediaType(fh.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/pdf" {
		return "", fmt.Sprintf("Only PDF files can be uploaded: %s", fh.Filename)
	}
	if fh.Size > s.config.MaxFileBytes {
		return "", fmt.Sprintf("%s is larger than %d bytes.", fh.Filename, s.config.MaxFileBytes)
	}
	name, err := uploads.CleanName(fh.Filename)
	if err != nil {
		return "", fmt.Sprintf("Invalid file name: %q", fh.Filename)
	}
	return name, ""
}

func (s *Server) saveUpload(ctx context.Context, name string, fh *multipart.FileHeader) error {
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	return s.uploads.Save(ctx, name, f)
}

func (s *Server) initialize(c *gin.Context) {
	// a client hanging up must not turn the rebuild into zero vectors
	ctx := context.WithoutCancel(c.Request.Context())
	res, err := s.pipeline.Initialize(ctx)
	if err != nil {
		_ = c.Error(err)
		msg := "Failed to build the vector index: " + err.Error()
		if errors.Is(err, domain.ErrNoDocuments) {
			msg = "The vector index could not be built: no readable PDF documents were found."
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": msg})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Vector index built successfully.",
		"files":       res.Files,
		"chunks":      res.Chunks,
		"empty_files": nonNil(res.EmptyFiles),
	})
}

func (s *Server) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body must be JSON with a question field."})
		return
	}
	answer, err := s.pipeline.Ask(c.Request.Context(), req.Question)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No question was sent."})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to answer the question: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, answer)
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.pipeline.Status())
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
