package handler

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MuthuAjay/contracts-v3/middleware"
	"github.com/MuthuAjay/contracts-v3/model"
	"github.com/MuthuAjay/contracts-v3/service"
	"github.com/gin-gonic/gin"
)

type ContractHandler struct {
	registry *service.Registry
}

func NewContractHandler(registry *service.Registry) *ContractHandler {
	return &ContractHandler{registry: registry}
}

// Upload handles contract file upload
func (h *ContractHandler) Upload(c *gin.Context) {
	user := middleware.GetUsername(c)

	// Get file from form
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	// Validate file type - PDF, DOCX and TXT allowed
	ext := strings.ToLower(filepath.Ext(header.Filename))
	defaultTypes := map[string]string{
		".pdf":  "application/pdf",
		".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		".txt":  "text/plain",
	}
	defaultType, ok := defaultTypes[ext]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF, DOCX and TXT files are allowed"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = defaultType
	}

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	doc, err := h.registry.Upload(c.Request.Context(), user, header.Filename, data, contentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process upload: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, doc)
}

// List returns the user's contract registry
func (h *ContractHandler) List(c *gin.Context) {
	user := middleware.GetUsername(c)

	contracts, err := h.registry.List(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load contracts"})
		return
	}
	if contracts == nil {
		contracts = []model.ContractDocument{}
	}

	c.JSON(http.StatusOK, gin.H{"contracts": contracts})
}

// Get returns a single contract by file name
func (h *ContractHandler) Get(c *gin.Context) {
	user := middleware.GetUsername(c)
	fileName := c.Param("fileName")

	doc, err := h.registry.Get(c.Request.Context(), user, fileName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load contract"})
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	c.JSON(http.StatusOK, doc)
}

// Delete removes a contract and every stored snapshot that references it.
// Deletion is destructive and must be explicitly confirmed.
func (h *ContractHandler) Delete(c *gin.Context) {
	user := middleware.GetUsername(c)
	fileName := c.Param("fileName")

	if c.Query("confirm") != "true" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Deletion requires confirm=true"})
		return
	}

	if err := h.registry.Delete(c.Request.Context(), user, fileName); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Contract deleted"})
}

type AnalyzeRequest struct {
	Type        string `json:"type" binding:"required"`
	CustomQuery string `json:"custom_query"`
}

// Analyze runs one analysis type against a contract and reports the view
// that should present the result.
func (h *ContractHandler) Analyze(c *gin.Context) {
	user := middleware.GetUsername(c)
	fileName := c.Param("fileName")

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	typ := model.AnalysisType(req.Type)
	if !typ.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown analysis type: " + req.Type})
		return
	}

	result, view, err := h.registry.RunAnalysis(c.Request.Context(), user, fileName, typ, req.CustomQuery)
	if errors.Is(err, service.ErrContractNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"type":   req.Type,
		"result": result,
		"view":   view,
	})
}

// Original returns a presigned download URL for the stored original document
func (h *ContractHandler) Original(c *gin.Context) {
	user := middleware.GetUsername(c)
	fileName := c.Param("fileName")

	url, err := h.registry.OriginalURL(c.Request.Context(), user, fileName)
	if errors.Is(err, service.ErrContractNotFound) || errors.Is(err, service.ErrNoOriginal) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate download URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// History returns a contract's archived analyses
func (h *ContractHandler) History(c *gin.Context) {
	user := middleware.GetUsername(c)
	fileName := c.Param("fileName")

	history, err := h.registry.History(c.Request.Context(), user, fileName)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if history == nil {
		history = []model.AnalysisRecord{}
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

// ViewHistoryEntry loads one archived analysis into the current view state
func (h *ContractHandler) ViewHistoryEntry(c *gin.Context) {
	user := middleware.GetUsername(c)
	fileName := c.Param("fileName")

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid history index"})
		return
	}

	view, err := h.registry.ViewHistory(c.Request.Context(), user, fileName, index)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"view": view})
}
