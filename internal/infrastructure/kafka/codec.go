package kafka

import (
	"bytes"
	"fmt"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"streak-service/internal/domain/entity"
)

// decodePayload accepts a protobuf-encoded google.protobuf.Struct or its JSON form
func decodePayload(value []byte) (map[string]any, error) {
	s := &structpb.Struct{}

	trimmed := bytes.TrimSpace(value)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := s.UnmarshalJSON(trimmed); err != nil {
			return nil, fmt.Errorf("failed to unmarshal json payload: %w", err)
		}
		return s.AsMap(), nil
	}

	if err := proto.Unmarshal(value, s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return s.AsMap(), nil
}

// encodeNotification marshals a notification as a protobuf google.protobuf.Struct
func encodeNotification(n *entity.Notification) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		"id":       n.ID,
		"kind":     string(n.Kind),
		"habit_id": n.HabitID,
		"user_id":  n.UserID,
		"title":    n.Title,
		"streak":   n.Streak,
		"subject":  n.Subject,
		"text":     n.Text,
		"created":  n.Created.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build notification payload: %w", err)
	}

	data, err := proto.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification: %w", err)
	}
	return data, nil
}
