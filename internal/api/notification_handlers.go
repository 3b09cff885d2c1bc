package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerNotificationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listNotifications",
		Method:      http.MethodGet,
		Path:        "/api/v1/notifications",
		Summary:     "List notifications",
		Description: "Returns the authenticated user's notifications, newest first",
		Tags:        []string{"Notifications"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListNotifications)

	huma.Register(s.api, huma.Operation{
		OperationID: "markNotificationRead",
		Method:      http.MethodPost,
		Path:        "/api/v1/notifications/{id}/read",
		Summary:     "Mark notification read",
		Description: "Marks a notification as read",
		Tags:        []string{"Notifications"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMarkNotificationRead)
}

// === DTOs ===

// ListNotificationsInput contains parameters for listing notifications.
type ListNotificationsInput struct {
	Authorization string `header:"Authorization"`
}

// NotificationResponse contains notification data in API responses.
type NotificationResponse struct {
	ID        string    `json:"id" doc:"Notification ID"`
	Type      string    `json:"type" doc:"Notification type"`
	Title     string    `json:"title" doc:"Short title"`
	Message   string    `json:"message" doc:"Notification body"`
	Link      string    `json:"link,omitempty" doc:"Related resource link"`
	Read      bool      `json:"read" doc:"Whether the notification was read"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
}

// ListNotificationsResponse contains a list of notifications.
type ListNotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications" doc:"Notifications, newest first"`
}

// ListNotificationsOutput wraps the notification list for Huma.
type ListNotificationsOutput struct {
	Body ListNotificationsResponse
}

// MarkNotificationReadInput contains parameters for marking a notification read.
type MarkNotificationReadInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Notification ID"`
}

// MarkNotificationReadOutput is the empty success response.
type MarkNotificationReadOutput struct {
	Status int
}

// === Handlers ===

func (s *Server) handleListNotifications(ctx context.Context, input *ListNotificationsInput) (*ListNotificationsOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	notifications, err := s.store.ListNotificationsForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	resp := make([]NotificationResponse, len(notifications))
	for i, n := range notifications {
		resp[i] = NotificationResponse{
			ID:        n.ID,
			Type:      string(n.Type),
			Title:     n.Title,
			Message:   n.Message,
			Link:      n.Link,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		}
	}

	return &ListNotificationsOutput{Body: ListNotificationsResponse{Notifications: resp}}, nil
}

func (s *Server) handleMarkNotificationRead(ctx context.Context, input *MarkNotificationReadInput) (*MarkNotificationReadOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.store.MarkNotificationRead(ctx, input.ID, user.ID); err != nil {
		return nil, err
	}

	return &MarkNotificationReadOutput{Status: http.StatusNoContent}, nil
}
