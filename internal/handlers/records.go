package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmbarbier/blueprint/internal/services"
)

const schemaCacheTTL = 5 * time.Minute

// SchemaCache caches rendered schema responses; the Redis client satisfies
// it. May be nil.
type SchemaCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// RecordHandler exposes the generic CRUD routes over the registered models.
type RecordHandler struct {
	records services.RecordServiceInterface
	cache   SchemaCache
}

func NewRecordHandler(records services.RecordServiceInterface, cache SchemaCache) *RecordHandler {
	return &RecordHandler{
		records: records,
		cache:   cache,
	}
}

// Create inserts a new record into the model named in the URL.
func (h *RecordHandler) Create(c *gin.Context) {
	data, ok := bindRecordBody(c, "Invalid JSON, can't create new record")
	if !ok {
		return
	}

	record, err := h.records.Create(c.Request.Context(), c.Param("model"), data)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	RespondData(c, record)
}

// GetRecord fetches a single record. Filters come from the JSON body, or
// from query parameters when no body is sent.
func (h *RecordHandler) GetRecord(c *gin.Context) {
	filter, err := recordFilter(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "Invalid JSON, can't get the record")
		return
	}

	record, err := h.records.Get(c.Request.Context(), c.Param("model"), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	RespondData(c, record)
}

// GetRecords fetches every record of a model, optionally filtered by query
// parameters.
func (h *RecordHandler) GetRecords(c *gin.Context) {
	filter := queryFilter(c)

	records, err := h.records.List(c.Request.Context(), c.Param("model"), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	RespondData(c, records)
}

// Update modifies the record identified by the primary key values in the
// body.
func (h *RecordHandler) Update(c *gin.Context) {
	data, ok := bindRecordBody(c, "Invalid JSON, can't update the record")
	if !ok {
		return
	}

	record, err := h.records.Update(c.Request.Context(), c.Param("model"), data)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	RespondData(c, record)
}

// Delete removes the record identified by the primary key values in the
// body and answers 204.
func (h *RecordHandler) Delete(c *gin.Context) {
	keys, ok := bindRecordBody(c, "Invalid JSON, can't delete the record")
	if !ok {
		return
	}

	if err := h.records.Delete(c.Request.Context(), c.Param("model"), keys); err != nil {
		respondServiceError(c, err)
		return
	}

	RespondNoContent(c)
}

// Schema returns the column schema of a model. Responses are cached in
// Redis for a few minutes since the schema rarely changes.
func (h *RecordHandler) Schema(c *gin.Context) {
	model := c.Param("model")
	cacheKey := "schema:" + strings.ToLower(model)

	if h.cache != nil {
		if cached, err := h.cache.Get(c.Request.Context(), cacheKey); err == nil && cached != "" {
			RespondData(c, json.RawMessage(cached))
			return
		}
	}

	schema, err := h.records.Schema(model)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if h.cache != nil {
		if encoded, err := json.Marshal(schema); err == nil {
			// Cache failures only cost the next request a lookup
			_ = h.cache.Set(c.Request.Context(), cacheKey, string(encoded), schemaCacheTTL)
		}
	}

	RespondData(c, schema)
}

// bindRecordBody decodes a JSON object body; an empty or malformed body is
// a 400.
func bindRecordBody(c *gin.Context, message string) (map[string]interface{}, bool) {
	var data map[string]interface{}
	if err := c.ShouldBindJSON(&data); err != nil || len(data) == 0 {
		RespondError(c, http.StatusBadRequest, message)
		return nil, false
	}
	return data, true
}

// recordFilter reads filters from the JSON body when one is present,
// falling back to query parameters.
func recordFilter(c *gin.Context) (map[string]interface{}, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}

	if len(body) > 0 {
		var filter map[string]interface{}
		if err := json.Unmarshal(body, &filter); err != nil {
			return nil, err
		}
		return filter, nil
	}

	return queryFilter(c), nil
}

func queryFilter(c *gin.Context) map[string]interface{} {
	filter := make(map[string]interface{})
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			filter[key] = values[0]
		}
	}
	return filter
}

// respondServiceError maps record service errors onto the envelope: missing
// models and records are 404, validation failures 400, duplicates 409.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrModelNotFound), errors.Is(err, services.ErrRecordNotFound):
		RespondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrValidation):
		RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrDuplicate):
		RespondError(c, http.StatusConflict, err.Error())
	default:
		RespondError(c, http.StatusInternalServerError, "internal server error")
	}
}
