package handler

import (
	"strconv"

	"trip-finance-ledger/internal/adapter/http/dto"
	"trip-finance-ledger/internal/adapter/http/middleware"
	"trip-finance-ledger/pkg/apperror"
	"trip-finance-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// actor returns the authenticated caller or writes AUTH_001.
func actor(c *gin.Context) (middleware.Actor, bool) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return middleware.Actor{}, false
	}
	return a, true
}

// uuidParam parses a path parameter or writes VAL_001.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Error(c, apperror.Validation("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// bind decodes and validates the JSON body into req, then sanitizes it.
func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return false
	}
	dto.SanitizeStruct(req)
	return true
}

// bindOptional is bind for bodies that may be omitted entirely.
func bindOptional(c *gin.Context, req interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bind(c, req)
}

// selfOrAdmin allows admins and the user the resource belongs to.
func selfOrAdmin(c *gin.Context, a middleware.Actor, owner uuid.UUID, entity string) bool {
	if a.IsAdmin() || a.UserID == owner {
		return true
	}
	response.Error(c, apperror.ErrForbidden(entity))
	return false
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return page, pageSize
}

func optionalUUID(s *string) *uuid.UUID {
	if s == nil || *s == "" {
		return nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil
	}
	return &id
}
