package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/headshot-gladiators/teamops-api/models"
)

// Store is the authoritative side of the reconciliation protocol. The
// session predicts locally, then calls one of these and replaces its
// prediction with the response.
type Store interface {
	Init(ctx context.Context) (*models.InitResponse, error)
	CreateEvent(ctx context.Context, req models.CreateEventRequest) (*models.Event, error)
	SetRSVP(ctx context.Context, eventID, status string) (*models.SetRSVPResponse, error)
	RecordTransaction(ctx context.Context, req models.RecordTransactionRequest) (*models.RecordTransactionResponse, error)
	AppendSchedule(ctx context.Context, eventID string, req models.AppendScheduleRequest) ([]models.ScheduleEntry, error)
}

// HTTPStore talks to the team API over HTTP. Transport failures come back
// as TransientNetworkError; error statuses are mapped back onto the same
// typed taxonomy the server raises.
type HTTPStore struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewHTTPStore(baseURL, token string) *HTTPStore {
	return &HTTPStore{
		BaseURL: baseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPStore) Init(ctx context.Context) (*models.InitResponse, error) {
	var resp models.InitResponse
	if err := s.do(ctx, http.MethodGet, "/init", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *HTTPStore) CreateEvent(ctx context.Context, req models.CreateEventRequest) (*models.Event, error) {
	var resp struct {
		Event models.Event `json:"event"`
	}
	if err := s.do(ctx, http.MethodPost, "/events", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Event, nil
}

func (s *HTTPStore) SetRSVP(ctx context.Context, eventID, status string) (*models.SetRSVPResponse, error) {
	var resp models.SetRSVPResponse
	body := models.SetRSVPRequest{Status: status}
	if err := s.do(ctx, http.MethodPost, "/events/"+eventID+"/rsvp", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *HTTPStore) RecordTransaction(ctx context.Context, req models.RecordTransactionRequest) (*models.RecordTransactionResponse, error) {
	var resp models.RecordTransactionResponse
	if err := s.do(ctx, http.MethodPost, "/transactions", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *HTTPStore) AppendSchedule(ctx context.Context, eventID string, req models.AppendScheduleRequest) ([]models.ScheduleEntry, error) {
	var resp models.ScheduleResponse
	if err := s.do(ctx, http.MethodPost, "/events/"+eventID+"/schedule", req, &resp); err != nil {
		return nil, err
	}
	return resp.Schedule, nil
}

func (s *HTTPStore) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return &models.TransientNetworkError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	msg := resp.Status
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		msg = body.Error
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return &models.ValidationError{Msg: msg}
	case http.StatusNotFound:
		return &models.NotFoundError{Msg: msg}
	case http.StatusForbidden, http.StatusUnauthorized:
		return &models.AuthorizationError{Msg: msg}
	case http.StatusUnprocessableEntity:
		return &models.InvalidStateError{Msg: msg}
	case http.StatusConflict:
		return &models.ConflictError{Msg: msg}
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return &models.TransientNetworkError{Cause: fmt.Errorf("%s", msg)}
	default:
		return fmt.Errorf("store error: %s", msg)
	}
}
