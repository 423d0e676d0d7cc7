package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"streak-service/internal/app"
	"streak-service/internal/domain/entity"
	"streak-service/internal/domain/service"
	"streak-service/internal/transport/dto"
	"streak-service/internal/transport/grpc"
)

// HabitOptions holds flags shared by the habit subcommands.
type HabitOptions struct {
	*RootOptions
	UserID string
	Token  string
	Remote string
}

// habitBackend is either a local coordinator over the configured storage or a remote service
type habitBackend interface {
	toggle(ctx context.Context, habitID string, complete bool) (map[string]any, error)
	describe(ctx context.Context, habitID string) (map[string]any, error)
	register(ctx context.Context, habitID, title string, offset int) (map[string]any, error)
	close()
}

// NewHabitCommand creates the habit command and its subcommands.
func NewHabitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HabitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "habit",
		Short: "Complete, inspect and register habits",
		Long: `Complete, inspect and register habits.

Without --remote the command works directly on the configured storage.
With --remote it calls a running service over gRPC.

Example:
  streak-service habit complete read --user u1
  streak-service habit show read --remote localhost:50053 --token $TOKEN`,
	}

	cmd.PersistentFlags().StringVarP(&opts.UserID, "user", "u", "", "user ID owning the habit")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", "", "access token, used with --remote")
	cmd.PersistentFlags().StringVar(&opts.Remote, "remote", "", "gRPC address of a running service")

	cmd.AddCommand(newToggleCommand(opts, "complete", true))
	cmd.AddCommand(newToggleCommand(opts, "uncomplete", false))
	cmd.AddCommand(newShowCommand(opts))
	cmd.AddCommand(newRegisterCommand(opts))

	return cmd
}

func newToggleCommand(opts *HabitOptions, use string, complete bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <habit-id>",
		Short: fmt.Sprintf("Mark a habit as %sd for today", use),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := opts.backend(cmd.Context())
			if err != nil {
				return err
			}
			defer backend.close()

			result, err := backend.toggle(cmd.Context(), args[0], complete)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), opts.Format, result, formatOutcome)
		},
	}
}

func newShowCommand(opts *HabitOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <habit-id>",
		Short: "Show a habit's streak and statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := opts.backend(cmd.Context())
			if err != nil {
				return err
			}
			defer backend.close()

			result, err := backend.describe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), opts.Format, result, formatHabit)
		},
	}
}

func newRegisterCommand(opts *HabitOptions) *cobra.Command {
	var (
		title  string
		offset int
	)

	cmd := &cobra.Command{
		Use:   "register [habit-id]",
		Short: "Register a new habit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			habitID := ""
			if len(args) == 1 {
				habitID = args[0]
			}

			backend, err := opts.backend(cmd.Context())
			if err != nil {
				return err
			}
			defer backend.close()

			result, err := backend.register(cmd.Context(), habitID, title, offset)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), opts.Format, result, formatHabit)
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "habit title")
	cmd.Flags().IntVar(&offset, "tz", 0, "timezone offset in hours from UTC")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func (o *HabitOptions) backend(ctx context.Context) (habitBackend, error) {
	if o.Remote != "" {
		client, err := grpc.Dial(o.Remote)
		if err != nil {
			return nil, err
		}
		return &remoteBackend{client: client, userID: o.UserID, token: o.Token}, nil
	}

	if o.UserID == "" {
		return nil, fmt.Errorf("--user is required without --remote")
	}

	// local use needs only storage and the log channel
	cfg := *o.Config
	cfg.GRPC.Enabled = false
	cfg.HTTP.Enabled = false
	cfg.Kafka.Enabled = false
	cfg.Reminders.Enabled = false

	a, err := app.New(ctx, &cfg)
	if err != nil {
		return nil, err
	}
	return &localBackend{app: a, coordinator: a.Coordinator(), userID: o.UserID}, nil
}

type localBackend struct {
	app         *app.App
	coordinator service.CompletionCoordinator
	userID      string
}

func (b *localBackend) toggle(ctx context.Context, habitID string, complete bool) (map[string]any, error) {
	outcome := b.coordinator.Toggle(ctx, habitID, b.userID, complete)
	if outcome.Kind == entity.OutcomeError {
		return nil, outcome.Err
	}
	return dto.Outcome(outcome), nil
}

func (b *localBackend) describe(ctx context.Context, habitID string) (map[string]any, error) {
	habit, stats, err := b.coordinator.Describe(ctx, habitID, b.userID)
	if err != nil {
		return nil, err
	}
	return dto.Habit(habit, stats), nil
}

func (b *localBackend) register(ctx context.Context, habitID, title string, offset int) (map[string]any, error) {
	habit, err := b.coordinator.Register(ctx, b.userID, habitID, title, int32(offset))
	if err != nil {
		return nil, err
	}
	return dto.Habit(habit, entity.HabitStats{}), nil
}

func (b *localBackend) close() {
	b.app.Close()
}

type remoteBackend struct {
	client *grpc.Client
	userID string
	token  string
}

func (b *remoteBackend) context(ctx context.Context) context.Context {
	if b.token != "" {
		ctx = grpc.WithAccessToken(ctx, b.token)
	}
	if b.userID != "" {
		ctx = grpc.WithUserID(ctx, b.userID)
	}
	return ctx
}

func (b *remoteBackend) toggle(ctx context.Context, habitID string, complete bool) (map[string]any, error) {
	return b.client.ToggleHabit(b.context(ctx), habitID, complete)
}

func (b *remoteBackend) describe(ctx context.Context, habitID string) (map[string]any, error) {
	return b.client.GetHabit(b.context(ctx), habitID)
}

func (b *remoteBackend) register(ctx context.Context, habitID, title string, offset int) (map[string]any, error) {
	return b.client.RegisterHabit(b.context(ctx), habitID, title, offset)
}

func (b *remoteBackend) close() {
	_ = b.client.Close()
}
