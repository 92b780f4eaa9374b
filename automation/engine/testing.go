package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/replyflow/replyflow/automation/acctcache"
	"github.com/replyflow/replyflow/automation/countstore"
	"github.com/replyflow/replyflow/automation/rulestore"
)

// Records platform API calls instead of making them. Failure injection is
// keyed on the message body, which keeps tests readable.
type MockPlatform struct {
	lk    sync.Mutex
	Calls []PlatformCall

	DMErrs    map[string]error
	ReplyErrs map[string]error
}

type PlatformCall struct {
	Kind     ActionKind
	TargetID string
	Body     string
	Token    string
}

var _ PlatformClient = (*MockPlatform)(nil)

func NewMockPlatform() *MockPlatform {
	return &MockPlatform{
		DMErrs:    make(map[string]error),
		ReplyErrs: make(map[string]error),
	}
}

func (m *MockPlatform) SendDirectMessage(ctx context.Context, recipientID, body, accessToken string) error {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.Calls = append(m.Calls, PlatformCall{Kind: ActionDirectMessage, TargetID: recipientID, Body: body, Token: accessToken})
	return m.DMErrs[body]
}

func (m *MockPlatform) ReplyToComment(ctx context.Context, commentID, body, accessToken string) error {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.Calls = append(m.Calls, PlatformCall{Kind: ActionCommentReply, TargetID: commentID, Body: body, Token: accessToken})
	return m.ReplyErrs[body]
}

func (m *MockPlatform) CallLog() []PlatformCall {
	m.lk.Lock()
	defer m.lk.Unlock()
	out := make([]PlatformCall, len(m.Calls))
	copy(out, m.Calls)
	return out
}

// Engine wired to in-memory collaborators, for tests. Access the concrete
// types via type assertion, eg eng.Store.(*rulestore.MemStore).
func EngineTestFixture() *Engine {
	return &Engine{
		Logger:   slog.Default(),
		Store:    rulestore.NewMemStore(),
		Platform: NewMockPlatform(),
		Cache:    acctcache.NewMemAccountCache(100, time.Hour),
		Counters: countstore.NewMemCountStore(),
	}
}
