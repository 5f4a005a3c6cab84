package analytics

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	apperrors "pulse/internal/pkg/errors"
	"pulse/internal/platform/models"
)

// CollectRequest is the ingestion payload. Only the event type is required;
// pointer fields distinguish absent values so they persist as NULL.
type CollectRequest struct {
	Event     string          `json:"event"`
	URL       *string         `json:"url"`
	Referrer  *string         `json:"referrer"`
	Device    *string         `json:"device"`
	IPAddress *string         `json:"ipAddress"`
	Timestamp string          `json:"timestamp"`
	Metadata  json.RawMessage `json:"metadata"`
	UserID    *string         `json:"userId"`
}

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Collect validates and persists a single event scoped to the tenant.
func (s *Service) Collect(appID int64, req *CollectRequest) (*models.Event, error) {
	if req.Event == "" {
		return nil, apperrors.Validation("event is required")
	}

	metadata := req.Metadata
	if len(metadata) == 0 {
		metadata = json.RawMessage(`{}`)
	} else if !json.Valid(metadata) {
		return nil, apperrors.Validation("metadata must be valid JSON")
	}

	timestamp := req.Timestamp
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	event := &models.Event{
		ID:        "evt_" + uuid.NewString(),
		AppID:     appID,
		EventType: req.Event,
		URL:       req.URL,
		Referrer:  req.Referrer,
		Device:    req.Device,
		IPAddress: req.IPAddress,
		Timestamp: timestamp,
		Metadata:  metadata,
		UserID:    req.UserID,
	}

	if err := s.repo.InsertEvent(event); err != nil {
		return nil, err
	}
	return event, nil
}

// EventSummary aggregates the tenant's events of one type: total count,
// distinct user count and the device breakdown over the same scope.
func (s *Service) EventSummary(appID int64, eventType string, f Filters) (*models.EventSummary, error) {
	if eventType == "" {
		return nil, apperrors.Validation("event query param required")
	}

	count, uniqueUsers, err := s.repo.CountEvents(appID, eventType, f)
	if err != nil {
		return nil, err
	}

	devices, err := s.repo.DeviceBreakdown(appID, eventType, f)
	if err != nil {
		return nil, err
	}

	return &models.EventSummary{
		Event:       eventType,
		Count:       count,
		UniqueUsers: uniqueUsers,
		DeviceData:  devices,
	}, nil
}

func (s *Service) UserStats(appID int64, userID string) (*models.UserStats, error) {
	if userID == "" {
		return nil, apperrors.Validation("userId query param required")
	}
	return s.repo.UserStats(appID, userID)
}
