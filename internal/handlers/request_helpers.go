package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"storefront/internal/session"
)

const requestTimeout = 5 * time.Second

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		log.Printf("[%s] panic recovered: %v", route, r)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// readBody reads the request body, failing with *http.MaxBytesError past limit.
func readBody(c *gin.Context, limit int64) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, limit))
}

// respondBodyError answers 413 for an oversized body and 400 otherwise.
func respondBodyError(c *gin.Context, route string, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondWithError(c, http.StatusRequestEntityTooLarge, route, fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit))
		return
	}
	respondWithError(c, http.StatusBadRequest, route, "unreadable body")
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	log.Printf("[%s] returning error %d: %s", route, status, message)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// respondValidationError answers 400 with one message per failed field and
// echoes the submitted values so the form can be filled in again.
func respondValidationError(c *gin.Context, err error, values any) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make(map[string]string, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := lowerCamel(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				fields[field] = fmt.Sprintf("%s is required", field)
			case "max":
				fields[field] = fmt.Sprintf("%s must be at most %s characters", field, fieldError.Param())
			default:
				fields[field] = fmt.Sprintf("%s is invalid", field)
			}
		}
		respondFormErrors(c, fields, values)
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body", "details": err.Error(), "values": values})
}

func respondFormErrors(c *gin.Context, fields map[string]string, values any) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":  "There was an error with your form. Please double check your information.",
		"fields": fields,
		"values": values,
	})
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// redirectWithMessage queues a flash message and redirects. The session is
// written before any body so the cookie is sent.
func redirectWithMessage(c *gin.Context, sessions *session.Store, sess session.Data, level, text, location string) {
	sess.AddMessage(level, text)
	if err := sessions.Save(c, sess); err != nil {
		log.Println("[SESSION] [ERROR] save failed:", err)
	}
	c.Redirect(http.StatusFound, location)
}

// Health reports whether the order store is reachable.
func Health(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := ping(ctx); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, "GET /healthz", "database unavailable")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
