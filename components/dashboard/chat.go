package dashboard

import (
	"errors"
	"sync"
)

// ErrStaleResponse reports that a completion belonged to a superseded request.
var ErrStaleResponse = errors.New("dashboard: stale chat response discarded")

// chatSession holds the prompt text and the request state machine of one session.
//
// Transitions: idle|succeeded|failed --Begin--> pending(seq+1);
// pending(seq) --Complete(seq)--> succeeded|failed. Completions carrying an older
// seq are dropped so the most recent submission always wins.
type chatSession struct {
	mu        sync.Mutex
	prompt    string
	state     ChatState
	rejection string
}

func newChatSession() *chatSession {
	return &chatSession{state: ChatState{Status: ChatIdle}}
}

func (c *chatSession) setPrompt(text string) {
	c.mu.Lock()
	c.prompt = text
	c.mu.Unlock()
}

func (c *chatSession) currentPrompt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prompt
}

func (c *chatSession) reject(labelKey string) {
	c.mu.Lock()
	c.rejection = labelKey
	c.mu.Unlock()
}

// begin moves the session to pending and returns the new request's state.
func (c *chatSession) begin(prompt string) ChatState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rejection = ""
	c.state = ChatState{
		Status: ChatPending,
		Seq:    c.state.Seq + 1,
		Prompt: prompt,
	}
	return c.state
}

// complete applies a result if seq is still the latest request.
func (c *chatSession) complete(seq uint64, response string, err error) (ChatState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.state.Seq || c.state.Status != ChatPending {
		return c.state, ErrStaleResponse
	}
	next := ChatState{Seq: seq, Prompt: c.state.Prompt}
	if err != nil {
		next.Status = ChatFailed
		next.Reason = ClassifyFailure(err)
	} else {
		next.Status = ChatSucceeded
		next.Response = response
	}
	c.state = next
	return next, nil
}

func (c *chatSession) snapshot() (string, ChatState, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prompt, c.state, c.rejection
}

// chatStatusText is the text shown for a chat state: the reply, a pending note, a
// localized error, or the idle placeholder.
func chatStatusText(state ChatState, labels Labels) string {
	switch state.Status {
	case ChatSucceeded:
		return state.Response
	case ChatPending:
		return labels.Get(LabelChatPending)
	case ChatFailed:
		return labels.Get(failureLabel(state.Reason))
	default:
		return labels.Get(LabelChatIdle)
	}
}

func failureLabel(reason FailureReason) string {
	switch reason {
	case FailureTransport:
		return LabelChatErrTransport
	case FailureStatus:
		return LabelChatErrStatus
	case FailureMalformed:
		return LabelChatErrMalformed
	default:
		return LabelChatErrUnknown
	}
}
