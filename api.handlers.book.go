package main

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// BookSearchResult is the reduced book view returned by the search endpoint.
type BookSearchResult struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	ISBN      string `json:"isbn"`
	Available bool   `json:"available"`
}

// GetAllBooks serves every book of the catalog sorted by title.
//
//	@Summary	List all books
//	@Produce	json
//	@Success	200	{array}	Book
//	@Router		/api/books [get]
func (api *APIHandler) GetAllBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	books := api.library.ListAllBooks()
	api.logger.Info("success to get all books", zap.String("request.id", requestID), zap.Int("books.total", len(books)))
	if err := WriteJSON(r.Context(), w, http.StatusOK, books); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// SearchBooks serves the books whose title, author or genre contains the `q` query value.
//
//	@Summary	Search books
//	@Produce	json
//	@Param		q	query	string	true	"substring to look for"
//	@Success	200	{array}	BookSearchResult
//	@Router		/api/books/search [get]
func (api *APIHandler) SearchBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	query := r.URL.Query().Get("q")
	books := api.library.SearchBooks(query)
	results := make([]BookSearchResult, 0, len(books))
	for _, b := range books {
		results = append(results, BookSearchResult{
			Title:     b.Title,
			Author:    b.Author,
			ISBN:      b.ISBN,
			Available: b.Available,
		})
	}
	api.logger.Info("success to search books", zap.String("request.id", requestID),
		zap.String("search.query", query), zap.Int("books.total", len(results)))
	if err := WriteJSON(r.Context(), w, http.StatusOK, results); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// CreateBook adds a new available book to the catalog. It is an ops
// endpoint since the public api only reads the catalog.
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var book Book
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	if err := DecodeCreateBookRequestBody(r, &book); err != nil {
		api.logger.Error("failed to decode book", zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, NewAPIError(requestID, http.StatusBadRequest, "invalid book request", err.Error()))
		return
	}

	err := api.library.AddBook(r.Context(), book)
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidInput):
		api.logger.Error("invalid book", zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, NewAPIError(requestID, http.StatusBadRequest, "invalid book request", err.Error()))
		return
	case errors.Is(err, ErrDuplicateISBN):
		api.logger.Error("book already exists", zap.String("request.id", requestID), zap.String("book.isbn", book.ISBN))
		api.sendError(w, r, NewAPIError(requestID, http.StatusConflict, "book already exists", nil))
		return
	default:
		api.logger.Error("failed to save book", zap.String("request.id", requestID), zap.String("book.isbn", book.ISBN), zap.Error(err))
		api.sendError(w, r, NewAPIError(requestID, http.StatusInternalServerError, "book added but library data could not be saved", nil))
		return
	}

	created, _ := api.library.FindBookByISBN(book.ISBN)
	api.logger.Info("success to create book", zap.String("request.id", requestID), zap.String("book.isbn", created.ISBN))
	if err = WriteJSON(r.Context(), w, http.StatusCreated, created); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}
