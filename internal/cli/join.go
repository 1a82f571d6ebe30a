package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dkeye/Voice/internal/adapters/rtc"
	"github.com/dkeye/Voice/internal/client"
	"github.com/dkeye/Voice/internal/domain"
)

func newJoinCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "join <room>",
		Short: "Join a room and stay until interrupted",
		Long: `Join a room as a speaker or listener.

A speaker sends audio read from an Ogg/Opus file given with --audio; without
one the session continues receive-only.

Examples:
  voicectl join lobby --token $TOKEN
  voicectl join lobby --role speaker --audio speech.ogg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runJoin(ctx, v, args[0], cmd.OutOrStdout())
		},
	}
	fs := cmd.Flags()
	fs.String("role", string(domain.RoleListener), "speaker or listener")
	fs.String("audio", "", "Ogg/Opus file used as the microphone")
	fs.StringSlice("stun", []string{"stun:stun.l.google.com:19302"}, "STUN server URLs")
	fs.Duration("negotiation-timeout", client.DefaultNegotiationTimeout, "give up when no peer connects within this time")
	bindFlags(v, fs)
	return cmd
}

func runJoin(ctx context.Context, v *viper.Viper, room string, out io.Writer) error {
	roomID, err := domain.ParseRoomID(room)
	if err != nil {
		return err
	}
	role, err := domain.ParseRole(v.GetString("role"))
	if err != nil {
		return err
	}
	wsURL, err := signalURL(v.GetString("server"), roomID)
	if err != nil {
		return err
	}
	engine, err := rtc.NewEngine(rtc.DefaultWebRTCConfig(v.GetStringSlice("stun")...))
	if err != nil {
		return err
	}

	cfg := client.Config{
		Role:               role,
		Dialer:             client.WSDialer{URL: wsURL, Token: v.GetString("token")},
		Engine:             engine,
		NegotiationTimeout: v.GetDuration("negotiation-timeout"),
	}
	if path := v.GetString("audio"); path != "" {
		cfg.Capture = rtc.OggDevice{Path: path}
	}

	session := client.NewSession(cfg)
	defer session.Close()

	if err := session.Connect(ctx); err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		_ = session.Close()
	}()
	return watch(roomID, session.Events(), out)
}

// watch prints session events until the session closes and returns the
// reason it closed, nil for a local close.
func watch(room domain.RoomID, events <-chan client.Event, out io.Writer) error {
	var closeErr error
	for ev := range events {
		switch ev.Kind {
		case client.EventPhase:
			fmt.Fprintln(out, PhaseView(room, ev.Phase))
			if ev.Phase == client.PhaseClosed {
				closeErr = ev.Err
			}
		case client.EventRoster:
			fmt.Fprintln(out, RosterView(ev.Self, ev.Roster))
		case client.EventCaptureError:
			printWarning(out, "no microphone, continuing receive-only")
		case client.EventLinkState:
			fmt.Fprintln(out, MutedStyle.Render(fmt.Sprintf("  link %s: %s", ev.Peer, ev.Link)))
		case client.EventRemoteError:
			printWarning(out, ev.Err.Error())
		case client.EventNegotiationFailed:
			closeErr = ev.Err
		}
	}
	return closeErr
}

// signalURL turns the server base URL into the room websocket URL.
func signalURL(server string, room domain.RoomID) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid server URL: unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/v1/rooms/" + url.PathEscape(string(room)) + "/ws"
	return u.String(), nil
}
