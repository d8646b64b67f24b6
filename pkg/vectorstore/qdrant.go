package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/config"
)

// Ensure QdrantStore implements the interface.
var _ Store = (*QdrantStore)(nil)

const maxErrorBodyBytes = 1024

// QdrantStore talks to the Qdrant REST API
type QdrantStore struct {
	logger  *zap.Logger
	baseURL string
	apiKey  string
	http    *http.Client
}

type qdrantEnvelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
	Time   float64         `json:"time"`
}

type qdrantSearchResultItem struct {
	ID      json.RawMessage        `json:"id"`
	Score   float64                `json:"score"`
	Payload map[string]interface{} `json:"payload"`
}

// NewQdrantStore creates a Qdrant client. No request is made until first use.
func NewQdrantStore(cfg config.QdrantConfig, logger *zap.Logger) *QdrantStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &QdrantStore{
		logger:  logger.Named("qdrant"),
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient replaces the HTTP client
func (s *QdrantStore) WithHTTPClient(client *http.Client) *QdrantStore {
	if client != nil {
		s.http = client
	}
	return s
}

// CollectionExists reports whether the collection exists
func (s *QdrantStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	const op = "collection_exists"
	if strings.TrimSpace(name) == "" {
		return false, opErr(op, OperationErrorValidation, "collection name is required", nil)
	}

	var result struct {
		Exists bool `json:"exists"`
	}
	if err := s.doJSON(ctx, op, http.MethodGet, collectionPath(name, "/exists"), nil, &result); err != nil {
		return false, err
	}
	return result.Exists, nil
}

// CreateCollection creates a collection with the given vector size and distance
func (s *QdrantStore) CreateCollection(ctx context.Context, spec CollectionSpec) error {
	const op = "create_collection"
	if strings.TrimSpace(spec.Name) == "" {
		return opErr(op, OperationErrorValidation, "collection name is required", nil)
	}
	if spec.VectorSize <= 0 {
		return opErr(op, OperationErrorValidation, fmt.Sprintf("invalid vector size %d", spec.VectorSize), nil)
	}
	distance := spec.Distance
	if distance == "" {
		distance = DistanceCosine
	}

	req := make(map[string]interface{}, len(spec.Tuning)+1)
	for k, v := range spec.Tuning {
		req[k] = v
	}
	req["vectors"] = map[string]interface{}{
		"size":     spec.VectorSize,
		"distance": distance,
	}

	if err := s.doJSON(ctx, op, http.MethodPut, collectionPath(spec.Name, ""), req, nil); err != nil {
		return err
	}

	s.logger.Info("Created collection",
		zap.String("collection", spec.Name),
		zap.Int("vectorSize", spec.VectorSize),
		zap.String("distance", distance))
	return nil
}

// Upsert writes points and waits until they are indexed
func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []Point) error {
	const op = "upsert"
	if len(points) == 0 {
		return nil
	}

	items := make([]map[string]interface{}, 0, len(points))
	for _, p := range points {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return opErr(op, OperationErrorValidation, "point id is required", nil)
		}
		if len(p.Vector) == 0 {
			return opErr(op, OperationErrorValidation, fmt.Sprintf("point %q has empty vector", id), nil)
		}
		items = append(items, map[string]interface{}{
			"id":      id,
			"vector":  p.Vector,
			"payload": clonePayload(p.Payload),
		})
	}

	req := map[string]interface{}{"points": items}
	return s.doJSON(ctx, op, http.MethodPut, collectionPath(collection, "/points?wait=true"), req, nil)
}

// Search returns the limit nearest points with their payloads
func (s *QdrantStore) Search(ctx context.Context, collection string, vector []float32, limit int) ([]ScoredPoint, error) {
	const op = "search"
	if len(vector) == 0 {
		return nil, opErr(op, OperationErrorValidation, "query vector required", nil)
	}
	if limit <= 0 {
		limit = 10
	}

	req := map[string]interface{}{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
		"with_vector":  false,
	}
	var raw []qdrantSearchResultItem
	if err := s.doJSON(ctx, op, http.MethodPost, collectionPath(collection, "/points/search"), req, &raw); err != nil {
		return nil, err
	}

	out := make([]ScoredPoint, 0, len(raw))
	for _, item := range raw {
		out = append(out, ScoredPoint{
			ID:      decodePointID(item.ID),
			Score:   item.Score,
			Payload: item.Payload,
		})
	}
	return out, nil
}

// Count returns the exact number of points in a collection
func (s *QdrantStore) Count(ctx context.Context, collection string) (int64, error) {
	const op = "count"
	var result struct {
		Count int64 `json:"count"`
	}
	req := map[string]interface{}{"exact": true}
	if err := s.doJSON(ctx, op, http.MethodPost, collectionPath(collection, "/points/count"), req, &result); err != nil {
		return 0, err
	}
	return result.Count, nil
}

// Ready checks the readiness endpoint
func (s *QdrantStore) Ready(ctx context.Context) error {
	const op = "ready"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/readyz", http.NoBody)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build ready request failed", err)
	}
	s.authorize(req)

	resp, err := s.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant ready check failed", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant ready check returned status=%d", resp.StatusCode),
		}
	}
	return nil
}

func (s *QdrantStore) authorize(req *http.Request) {
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
}

func (s *QdrantStore) doJSON(ctx context.Context, op, method, path string, in interface{}, out interface{}) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	s.authorize(req)

	resp, err := s.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant request failed", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}

	var envelope qdrantEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant envelope failed", err)
	}
	if statusErr := parseEnvelopeStatus(envelope.Status); statusErr != "" {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    statusErr,
		}
	}

	if out == nil {
		return nil
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant result failed", err)
	}
	return nil
}

func parseEnvelopeStatus(raw json.RawMessage) string {
	status := strings.TrimSpace(string(raw))
	if status == "" || status == "null" {
		return ""
	}

	var statusString string
	if err := json.Unmarshal(raw, &statusString); err == nil {
		if strings.EqualFold(statusString, "ok") || strings.EqualFold(statusString, "acknowledged") ||
			strings.EqualFold(statusString, "completed") {
			return ""
		}
		return fmt.Sprintf("qdrant status=%q", statusString)
	}

	var statusObject struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &statusObject); err == nil {
		if strings.TrimSpace(statusObject.Error) != "" {
			return strings.TrimSpace(statusObject.Error)
		}
	}

	return fmt.Sprintf("qdrant status=%s", status)
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}

func clonePayload(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func collectionPath(name, suffix string) string {
	return "/collections/" + url.PathEscape(name) + suffix
}

func decodePointID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var idString string
	if err := json.Unmarshal(raw, &idString); err == nil {
		return strings.TrimSpace(idString)
	}
	var idNumber int64
	if err := json.Unmarshal(raw, &idNumber); err == nil {
		return fmt.Sprintf("%d", idNumber)
	}
	return strings.TrimSpace(string(raw))
}
