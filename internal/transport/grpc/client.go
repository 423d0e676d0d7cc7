package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls a remote streak service
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a client for the service at target
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

// WithAccessToken attaches a bearer token to outgoing calls made with ctx
func WithAccessToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, authorizationKey, "Bearer "+token)
}

// WithUserID attaches a trusted user ID to outgoing calls made with ctx
func WithUserID(ctx context.Context, userID string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, userIDKey, userID)
}

func (c *Client) ToggleHabit(ctx context.Context, habitID string, completed bool) (map[string]any, error) {
	return c.invoke(ctx, MethodToggleHabit, map[string]any{
		"habit_id":  habitID,
		"completed": completed,
	})
}

func (c *Client) GetHabit(ctx context.Context, habitID string) (map[string]any, error) {
	return c.invoke(ctx, MethodGetHabit, map[string]any{"habit_id": habitID})
}

func (c *Client) RegisterHabit(ctx context.Context, habitID, title string, timezoneOffsetHours int) (map[string]any, error) {
	return c.invoke(ctx, MethodRegisterHabit, map[string]any{
		"habit_id":              habitID,
		"title":                 title,
		"timezone_offset_hours": timezoneOffsetHours,
	})
}

func (c *Client) invoke(ctx context.Context, method string, req map[string]any) (map[string]any, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

// Close closes the underlying connection
func (c *Client) Close() error {
	return c.conn.Close()
}
