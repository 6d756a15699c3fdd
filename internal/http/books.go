package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/catalog"
)

type BooksController struct {
	catalog *catalog.Service
	strict  bool
}

func NewBooksController(svc *catalog.Service, strictStatus bool) *BooksController {
	return &BooksController{
		catalog: svc,
		strict:  strictStatus,
	}
}

// actingUser builds the caller identity from the authenticated context.
func actingUser(c *gin.Context) catalog.ActingUser {
	return catalog.ActingUser{
		UserID:      auth.GetUserID(c),
		PublisherID: auth.GetPublisherID(c),
		IPAddress:   c.ClientIP(),
	}
}

// bindBook decodes the request body. A body that is not a JSON object is
// treated as empty so that validation reports the missing fields.
func bindBook(c *gin.Context) catalog.BookInput {
	var in catalog.BookInput
	if err := c.ShouldBindJSON(&in); err != nil {
		return catalog.BookInput{}
	}
	return in
}

// ListBooks handles GET /api/books.
func (bc *BooksController) ListBooks(c *gin.Context) {
	views, err := bc.catalog.ListBooks(c.Request.Context())
	if err != nil {
		respondCatalogError(c, err, true)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": views})
}

// CreateBook handles POST /api/books.
func (bc *BooksController) CreateBook(c *gin.Context) {
	view, err := bc.catalog.CreateBook(c.Request.Context(), actingUser(c), bindBook(c))
	if err != nil {
		respondCatalogError(c, err, bc.strict)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// GetBook handles GET /api/books/:id and returns the stored record.
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.catalog.GetBook(c.Request.Context(), id)
	if err != nil {
		respondCatalogError(c, err, bc.strict)
		return
	}
	c.JSON(http.StatusOK, book)
}

// UpdateBook handles PUT /api/books/:id.
func (bc *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	view, err := bc.catalog.UpdateBook(c.Request.Context(), actingUser(c), id, bindBook(c))
	if err != nil {
		respondCatalogError(c, err, bc.strict)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// DeleteBook handles DELETE /api/books/:id.
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := bc.catalog.DeleteBook(c.Request.Context(), actingUser(c), id); err != nil {
		respondCatalogError(c, err, bc.strict)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "delete book success"})
}
