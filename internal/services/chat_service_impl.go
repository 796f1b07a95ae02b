package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/ajharbinger/refibot/internal/assistant"
	"github.com/ajharbinger/refibot/internal/errors"
	"github.com/ajharbinger/refibot/internal/logger"
	"github.com/ajharbinger/refibot/internal/metrics"
	"github.com/ajharbinger/refibot/internal/session"
)

// MsgStreamFailed is returned when a streaming reply could not be started
const MsgStreamFailed = "Failed to process message"

// ChatReply is the assistant's answer to one borrower message
type ChatReply struct {
	Message   session.ChatMessage  `json:"message"`
	Citations []assistant.Citation `json:"citations,omitempty"`
	Fallback  bool                 `json:"fallback"`
}

// StreamSink receives a relayed event stream. Start is called once, before the first
// write, after the assistant has accepted the request.
type StreamSink interface {
	io.Writer
	Start()
	Flush()
}

type chatServiceImpl struct {
	docs      *documentReader
	sessions  session.Store
	assistant AssistantClient
	tracker   *upstreamTracker
	log       logger.Logger
}

func newChatService(deps Dependencies, docs *documentReader, tracker *upstreamTracker) ChatService {
	return &chatServiceImpl{
		docs:      docs,
		sessions:  deps.Sessions,
		assistant: deps.Assistant,
		tracker:   tracker,
		log:       deps.Logger.With("component", "chat"),
	}
}

// History returns the session transcript, oldest first
func (s *chatServiceImpl) History(sess *session.Session) []session.ChatMessage {
	out := make([]session.ChatMessage, len(sess.Chat))
	copy(out, sess.Chat)
	return out
}

// prepare validates the message and assembles the conversation sent upstream
func (s *chatServiceImpl) prepare(ctx context.Context, sess *session.Session, message string) ([]assistant.Message, error) {
	if strings.TrimSpace(message) == "" {
		return nil, errors.InvalidInput("Message is required", nil)
	}
	info, _, err := s.docs.loanInfo(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}

	history := make([]assistant.Message, 0, len(sess.Chat))
	for _, m := range sess.Chat {
		role := "assistant"
		if m.IsUser {
			role = "user"
		}
		history = append(history, assistant.Message{Role: role, Content: m.Text})
	}
	return assistant.BuildMessages(*info, history, message), nil
}

// Send answers a message. Any assistant failure is answered with the apology text.
func (s *chatServiceImpl) Send(ctx context.Context, sess *session.Session, message string) (*ChatReply, error) {
	messages, err := s.prepare(ctx, sess, message)
	if err != nil {
		return nil, err
	}

	reply := &ChatReply{}
	start := time.Now()
	resp, err := s.assistant.Chat(ctx, messages)
	if s.assistant.Configured() {
		s.tracker.observe(metrics.ServiceAssistant, "assistant.chat", start, err)
	}
	text := assistant.Apology
	if err != nil {
		s.log.Warn("assistant call failed, answering with apology", "user_id", sess.UserID, "error", err.Error())
		metrics.ChatFallbacks.Inc()
		reply.Fallback = true
	} else {
		text = resp.Message.Content
		reply.Citations = resp.Citations
	}

	now := time.Now().UTC()
	reply.Message = session.ChatMessage{Text: text, Timestamp: now}
	userMsg := session.ChatMessage{Text: message, IsUser: true, Timestamp: now}
	err = updateSession(ctx, s.sessions, sess, func(latest *session.Session) error {
		latest.AppendChat(userMsg, reply.Message)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// Stream relays the assistant's event stream to sink as it arrives and records the
// assembled reply in the transcript afterwards.
func (s *chatServiceImpl) Stream(ctx context.Context, sess *session.Session, message string, sink StreamSink) error {
	messages, err := s.prepare(ctx, sess, message)
	if err != nil {
		return err
	}

	start := time.Now()
	body, err := s.assistant.Stream(ctx, messages)
	if s.assistant.Configured() {
		s.tracker.observe(metrics.ServiceAssistant, "assistant.stream", start, err)
	}
	if err != nil {
		return errors.InternalError(MsgStreamFailed, err).WithOperation("chat.stream")
	}
	defer body.Close()

	sink.Start()
	text, copyErr := relayEvents(body, sink)

	if text == "" {
		text = assistant.Apology
		metrics.ChatFallbacks.Inc()
	}
	now := time.Now().UTC()
	exchange := []session.ChatMessage{
		{Text: message, IsUser: true, Timestamp: now},
		{Text: text, Timestamp: now},
	}
	// the client may already be gone; the transcript is still kept
	err = updateSession(context.WithoutCancel(ctx), s.sessions, sess, func(latest *session.Session) error {
		latest.AppendChat(exchange...)
		return nil
	})
	if err != nil {
		s.log.Error("failed to save chat transcript", err, "user_id", sess.UserID)
	}
	if copyErr != nil {
		s.log.Warn("chat stream interrupted", "user_id", sess.UserID, "error", copyErr.Error())
	}
	return nil
}

// streamEvent covers the content-bearing fields of an assistant stream event
type streamEvent struct {
	Delta *struct {
		Content string `json:"content"`
	} `json:"delta"`
	Message *struct {
		Content string `json:"content"`
	} `json:"message"`
}

// relayEvents copies the stream line by line, flushing at event boundaries, and returns
// the concatenated content deltas.
func relayEvents(r io.Reader, sink StreamSink) (string, error) {
	var content strings.Builder
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			if _, werr := sink.Write(line); werr != nil {
				return content.String(), werr
			}
			if len(bytes.TrimSpace(line)) == 0 {
				sink.Flush()
			}
			content.WriteString(eventContent(line))
		}
		if err == io.EOF {
			sink.Flush()
			return content.String(), nil
		}
		if err != nil {
			sink.Flush()
			return content.String(), err
		}
	}
}

func eventContent(line []byte) string {
	payload, ok := bytes.CutPrefix(bytes.TrimSpace(line), []byte("data:"))
	if !ok {
		return ""
	}
	var ev streamEvent
	if err := json.Unmarshal(bytes.TrimSpace(payload), &ev); err != nil {
		return ""
	}
	switch {
	case ev.Delta != nil:
		return ev.Delta.Content
	case ev.Message != nil:
		return ev.Message.Content
	}
	return ""
}
