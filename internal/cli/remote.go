package cli

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/bufbuild/connect-go"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"

	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/host"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/host/terminal"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/rpc"
	coachrpc "github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/rpc/coach"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/rpc/connectjson"
)

// NewRemoteCmd runs an explain interaction on the daemon, with this terminal as the host.
func NewRemoteCmd(opts *Options) *cobra.Command {
	var src sourceFlags
	var input string
	var yes bool
	var addr string

	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Explain an error through the daemon and stream the answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			sources, err := src.sources()
			if err != nil {
				return err
			}
			th := terminal.New(cmd.InOrStdin(), cmd.OutOrStdout(), sources, yes)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			baseURL := daemonURL(firstNonEmpty(addr, cfg.Server.Addr))
			sessionID := uuid.NewString()
			switch strings.ToLower(strings.TrimSpace(cfg.Server.Transport)) {
			case "ndjson":
				hc, err := sources.Load()
				if err != nil {
					return err
				}
				req := rpc.ExplainRequest{SessionID: sessionID, Context: hc}
				if cmd.Flags().Changed("input") {
					req.Input = &input
				}
				return runNDJSON(ctx, baseURL+coachrpc.ExplainPath, req, th)
			default:
				return runConnect(ctx, baseURL+coachrpc.ConnectSessionProcedure, sessionID, th)
			}
		},
	}

	src.bind(cmd)
	cmd.Flags().StringVar(&input, "input", "", "Answer to the paste prompt (ndjson transport only; omitted means cancel)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Accept the explain tooltip without asking")
	cmd.Flags().StringVar(&addr, "addr", "", "Daemon address, overrides server.addr")
	return cmd
}

func daemonURL(addr string) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimSuffix(addr, "/")
	}
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func runNDJSON(ctx context.Context, url string, reqBody rpc.ExplainRequest, th *terminal.Host) error {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("daemon returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var evt rpc.SessionEvent
		if err := json.Unmarshal(scanner.Bytes(), &evt); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		if err := renderEvent(th, evt); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// runConnect plays the host side of a session: it announces the error (or opens the
// explain action), answers context and input requests from th, and stops at the first
// done or error event.
func runConnect(ctx context.Context, url, sessionID string, th *terminal.Host) error {
	client := connect.NewClient[rpc.SessionMessage, rpc.SessionEvent](buildH2CClient(), url, connect.WithCodec(connectjson.Codec{}))
	stream := client.CallBidiStream(ctx)

	hc, err := th.Context(ctx)
	if err != nil {
		return err
	}
	first := &rpc.SessionMessage{Type: rpc.MsgOpen, SessionID: sessionID}
	if hc.Error.Text != "" {
		first = &rpc.SessionMessage{
			Type:      rpc.MsgErrorState,
			SessionID: sessionID,
			Signal:    &host.ErrorSignal{IsError: true, Text: hc.Error.Text},
		}
	}
	if err := stream.Send(first); err != nil {
		return err
	}

	finish := func(result error) error {
		_ = stream.CloseRequest()
		if err := stream.CloseResponse(); err != nil && result == nil {
			return err
		}
		return result
	}

	for {
		evt, err := stream.Receive()
		if errors.Is(err, io.EOF) {
			return finish(nil)
		}
		if err != nil {
			return finish(err)
		}

		var reply *rpc.SessionMessage
		switch evt.Type {
		case rpc.EventTooltip:
			accepted := false
			th.ShowTooltip(evt.Text, func() { accepted = true })
			if !accepted {
				return finish(nil)
			}
			reply = &rpc.SessionMessage{Type: rpc.MsgAcceptTooltip, TooltipID: evt.TooltipID}
		case rpc.EventContextRequest:
			hc, err := th.Context(ctx)
			if err != nil {
				return finish(err)
			}
			reply = &rpc.SessionMessage{Type: rpc.MsgContext, RequestID: evt.RequestID, Context: &hc}
		case rpc.EventInputRequest:
			text, err := th.Input(ctx, evt.Prompt)
			switch {
			case errors.Is(err, host.ErrCancelled):
				reply = &rpc.SessionMessage{Type: rpc.MsgInputCancel, RequestID: evt.RequestID}
			case err != nil:
				return finish(err)
			default:
				reply = &rpc.SessionMessage{Type: rpc.MsgInput, RequestID: evt.RequestID, Text: text}
			}
		case rpc.EventDone:
			return finish(nil)
		case rpc.EventError:
			return finish(fmt.Errorf("daemon error: %s", evt.Error))
		default:
			if err := renderEvent(th, *evt); err != nil {
				return finish(err)
			}
		}
		if reply != nil {
			if err := stream.Send(reply); err != nil {
				return finish(err)
			}
		}
	}
}

// renderEvent prints display events through the terminal host.
func renderEvent(th *terminal.Host, evt rpc.SessionEvent) error {
	switch evt.Type {
	case rpc.EventTooltip:
		th.Write(evt.Text, host.RoleAssistant)
	case rpc.EventMessage:
		th.Write(evt.Text, evt.Role)
	case rpc.EventToken:
		th.WriteChunk(evt.Token)
	case rpc.EventStreamEnd:
		th.EndStream()
	case rpc.EventMenu:
		for _, a := range evt.Actions {
			th.RegisterAction(a.ID, a.Label, func(context.Context, string) error { return nil })
		}
		th.ShowMenu()
	case rpc.EventInputRequest:
		th.Write(evt.Prompt, host.RoleAssistant)
	case rpc.EventError:
		return fmt.Errorf("daemon error: %s", evt.Error)
	}
	return nil
}

func buildH2CClient() *http.Client {
	return &http.Client{
		Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		},
	}
}
