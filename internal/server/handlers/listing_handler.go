package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/warehouse/internal/domain/models"
	"github.com/mamadbah2/warehouse/internal/listing"
)

// ListingHandler exposes incremental listing sessions. A client opens a
// session, renders the returned page and signals near-end when the user
// scrolls close to the last loaded row.
type ListingHandler struct {
	sessions *listing.SessionManager
	logger   *zap.Logger
}

// NewListingHandler constructs the HTTP handler adapter.
func NewListingHandler(sessions *listing.SessionManager, logger *zap.Logger) *ListingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingHandler{sessions: sessions, logger: logger}
}

type openListingRequest struct {
	Collection models.Collection `json:"collection"`
}

type listingResponse struct {
	ID         string            `json:"id"`
	Collection models.Collection `json:"collection"`
	listing.Page[models.ListItem]
}

func newListingResponse(s *listing.Session, page listing.Page[models.ListItem]) listingResponse {
	return listingResponse{ID: s.ID, Collection: s.Collection, Page: page}
}

// Open starts a session and returns its first page.
func (h *ListingHandler) Open(c *gin.Context) {
	var req openListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	session, err := h.sessions.Open(c.Request.Context(), req.Collection)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, newListingResponse(session, session.Controller.Snapshot()))
}

// Get returns the session's current contents without fetching.
func (h *ListingHandler) Get(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newListingResponse(session, session.Controller.Snapshot()))
}

// NearEnd forwards the near-end signal and returns the resulting contents.
func (h *ListingHandler) NearEnd(c *gin.Context) {
	id := c.Param("id")
	page, err := h.sessions.NearEnd(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	session, err := h.sessions.Get(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newListingResponse(session, page))
}

// Close discards a session.
func (h *ListingHandler) Close(c *gin.Context) {
	h.sessions.Close(c.Param("id"))
	c.Status(http.StatusNoContent)
}
