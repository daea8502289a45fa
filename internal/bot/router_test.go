package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/joke-bot/internal/bot/handlers"
	"github.com/Proton-105/joke-bot/internal/bot/keyboard"
	"github.com/Proton-105/joke-bot/internal/domain"
	apperrors "github.com/Proton-105/joke-bot/internal/errors"
	"github.com/Proton-105/joke-bot/internal/i18n"
	"github.com/Proton-105/joke-bot/internal/idempotency"
	"github.com/Proton-105/joke-bot/internal/joke"
	"github.com/Proton-105/joke-bot/internal/state"
	"github.com/Proton-105/joke-bot/internal/testutil"
	"github.com/Proton-105/joke-bot/internal/updater"
)

const (
	adminID = int64(100)
	userID  = int64(200)
)

type failingJokes struct{}

func (failingJokes) Add(context.Context, domain.Author, string) (int, error) {
	return 0, apperrors.NewDatabaseError(assert.AnError)
}

func (failingJokes) Search(context.Context, string) ([]domain.Joke, error) {
	return nil, apperrors.NewDatabaseError(assert.AnError)
}

func (failingJokes) Count(context.Context) (int, error) {
	return 0, apperrors.NewDatabaseError(assert.AnError)
}

func (failingJokes) Random(context.Context) (domain.Joke, error) {
	return domain.Joke{}, apperrors.NewDatabaseError(assert.AnError)
}

type routerFixture struct {
	router   *Router
	session  *handlers.Session
	replier  *testutil.FakeReplier
	store    *joke.MemoryStore
	pipeline *testutil.FakePipeline
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	catalog, err := i18n.Load("en")
	require.NoError(t, err)
	tr := catalog.Translator("en")
	log := testutil.Logger()

	store := joke.NewMemoryStore()
	replier := &testutil.FakeReplier{}
	pipeline := &testutil.FakePipeline{Steps: updater.DefaultSteps(updater.Options{})}

	session := &handlers.Session{
		StartedAt: time.Now().Add(-time.Minute),
		AdminID:   adminID,
		FSM:       state.NewStateMachine(state.NewMemoryStorage(), log, nil, time.Hour),
		Jokes:     joke.NewService(store, log),
		Updater:   pipeline,
		Replier:   replier,
		Tr:        tr,
		Keyboard:  keyboard.NewBuilder(tr, log),
		Log:       log,
	}

	return &routerFixture{
		router:   BuildRouter(session, apperrors.NewHandler(log, false, tr)),
		session:  session,
		replier:  replier,
		store:    store,
		pipeline: pipeline,
	}
}

func (f *routerFixture) send(t *testing.T, from int64, text string) {
	t.Helper()
	require.NoError(t, f.router.Route(context.Background(), privateMessage(from, text)))
}

func (f *routerFixture) jokes(t *testing.T) []string {
	t.Helper()

	stored, err := f.store.Search(context.Background(), "")
	require.NoError(t, err)

	texts := make([]string, 0, len(stored))
	for _, j := range stored {
		texts = append(texts, j.Text)
	}
	return texts
}

func privateMessage(from int64, text string) *handlers.Update {
	return &handlers.Update{
		Kind:        handlers.KindMessage,
		ChatID:      from,
		ChatPrivate: true,
		Sender:      domain.Author{ID: from, Name: "tester"},
		Text:        text,
		Sent:        time.Now(),
	}
}

func TestRouter_AddFlow(t *testing.T) {
	testCases := []struct {
		name  string
		text  string
		jokes []string
	}{
		{name: "three jokes", text: "a\n\nb\n\nc", jokes: []string{"a", "b", "c"}},
		{name: "leading and repeated blank lines", text: "\n\na\n\n\n\nb", jokes: []string{"a", "b"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newRouterFixture(t)

			f.send(t, userID, "/add")
			f.send(t, userID, tc.text)

			assert.Equal(t, tc.jokes, f.jokes(t))
			texts := f.replier.Texts(userID)
			require.Len(t, texts, 2)
			assert.Contains(t, texts[0], "Send me a joke")
			assert.Contains(t, texts[1], "Added!")
		})
	}
}

func TestRouter_ContinuationConsumedOnce(t *testing.T) {
	f := newRouterFixture(t)

	f.send(t, userID, "/add")
	f.send(t, userID, "first")
	f.send(t, userID, "second")

	assert.Equal(t, []string{"first"}, f.jokes(t))
	assert.Len(t, f.replier.Texts(userID), 2)
}

func TestRouter_ContinuationTakesPriorityOverCommands(t *testing.T) {
	f := newRouterFixture(t)

	f.send(t, userID, "/add")
	f.send(t, userID, "/status")

	assert.Equal(t, []string{"/status"}, f.jokes(t))
	assert.Equal(t, "Added! Jokes saved: 1", f.replier.Texts(userID)[1])
}

func TestRouter_ContinuationIsPerChat(t *testing.T) {
	f := newRouterFixture(t)

	f.send(t, userID, "/add")
	f.send(t, adminID, "not a joke")

	assert.Empty(t, f.jokes(t))
	assert.Empty(t, f.replier.Texts(adminID))

	f.send(t, userID, "a joke")
	assert.Equal(t, []string{"a joke"}, f.jokes(t))
}

func TestRouter_RestartRefusedForOthers(t *testing.T) {
	f := newRouterFixture(t)

	f.send(t, userID, "/restart")

	assert.Zero(t, f.pipeline.Runs())
	assert.Equal(t, []string{"Nice try. Only my owner gets to restart me 😏"}, f.replier.Texts(userID))
}

func TestRouter_RestartRunsForAdmin(t *testing.T) {
	f := newRouterFixture(t)

	f.send(t, adminID, "/restart")

	assert.Equal(t, 1, f.pipeline.Runs())
	assert.Len(t, f.replier.Texts(adminID), 3)
}

func TestRouter_StaleMessagesHaveNoEffect(t *testing.T) {
	f := newRouterFixture(t)

	for _, text := range []string{"/add", "/status", "/restart", "/start"} {
		u := privateMessage(adminID, text)
		u.Sent = f.session.StartedAt.Add(-2 * time.Second)
		require.NoError(t, f.router.Route(context.Background(), u))
	}

	assert.Empty(t, f.replier.Replies())
	assert.Zero(t, f.pipeline.Runs())
	_, err := f.session.FSM.GetState(context.Background(), adminID)
	assert.ErrorIs(t, err, state.ErrStateNotFound)
}

func TestRouter_SameSecondAsStartIsNotStale(t *testing.T) {
	f := newRouterFixture(t)
	f.session.StartedAt = time.Date(2026, 10, 18, 12, 0, 0, 700_000_000, time.UTC)
	f.router.startedAt = f.session.StartedAt

	u := privateMessage(userID, "/status")
	u.Sent = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	require.NoError(t, f.router.Route(context.Background(), u))

	assert.Len(t, f.replier.Texts(userID), 1)
}

func TestRouter_IgnoresNonPrivateAndUnmatched(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	group := privateMessage(userID, "/status")
	group.ChatPrivate = false
	require.NoError(t, f.router.Route(ctx, group))

	f.send(t, userID, "hello there")
	f.send(t, userID, "")
	f.send(t, userID, " /status")

	assert.Empty(t, f.replier.Replies())
}

func TestRouter_CommandPrefixes(t *testing.T) {
	f := newRouterFixture(t)

	f.send(t, userID, "/statusquo")
	f.send(t, userID, "/help me")
	f.send(t, userID, "/start")

	texts := f.replier.Texts(userID)
	require.Len(t, texts, 3)
	assert.Contains(t, texts[0], "Jokes stored: 0")
	assert.Contains(t, texts[1], "/help")
	assert.Contains(t, texts[2], "I collect jokes")
}

func TestRouter_Inline(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	require.NoError(t, f.router.Route(ctx, &handlers.Update{Kind: handlers.KindInline, QueryID: "q0", Sender: domain.Author{ID: userID}}))
	require.NoError(t, f.store.Insert(ctx, domain.Author{ID: userID}, "cats are great", "dogs are fine", "my cat"))
	require.NoError(t, f.router.Route(ctx, &handlers.Update{Kind: handlers.KindInline, QueryID: "q1", Sender: domain.Author{ID: userID}}))
	require.NoError(t, f.router.Route(ctx, &handlers.Update{Kind: handlers.KindInline, QueryID: "q2", Text: "cat", Sender: domain.Author{ID: userID}}))

	answers := f.replier.Answers()
	require.Len(t, answers, 3)

	assert.Empty(t, answers[0].Results)
	assert.Equal(t, handlers.StartPayloadAdd, answers[0].SwitchPMParam)

	require.Len(t, answers[1].Results, 1)
	assert.Contains(t, f.jokes(t), answers[1].Results[0].Text)

	require.Len(t, answers[2].Results, 2)
	assert.Equal(t, "cats are great", answers[2].Results[0].Text)
	assert.Equal(t, "my cat", answers[2].Results[1].Text)
}

func TestRouter_InlineDoesNotConsumeContinuation(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	f.send(t, userID, "/add")
	require.NoError(t, f.router.Route(ctx, &handlers.Update{Kind: handlers.KindInline, ChatID: userID, QueryID: "q", Sender: domain.Author{ID: userID}}))
	f.send(t, userID, "still pending")

	assert.Equal(t, []string{"still pending"}, f.jokes(t))
}

func TestRouter_CancelCallback(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	f.send(t, userID, "/add")
	prompt := f.replier.Replies()[0]
	data := prompt.Markup.InlineKeyboard[0][0].Data

	require.NoError(t, f.router.Route(ctx, &handlers.Update{
		Kind:       handlers.KindCallback,
		ChatID:     userID,
		CallbackID: "cb",
		Data:       data,
		Sender:     domain.Author{ID: userID},
	}))
	require.NoError(t, f.router.Route(ctx, &handlers.Update{Kind: handlers.KindCallback, CallbackID: "other", Data: "unknown:x"}))

	assert.Equal(t, []testutil.Ack{{CallbackID: "cb", Text: "Adding cancelled."}}, f.replier.Acks())

	f.send(t, userID, "no longer a joke")
	assert.Empty(t, f.jokes(t))
}

func TestRouter_CallbackActionIsDecoded(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	f.send(t, userID, "/add")

	for _, data := range []string{"add:bogus", "add", "nope:cancel", ""} {
		require.NoError(t, f.router.Route(ctx, &handlers.Update{
			Kind:       handlers.KindCallback,
			ChatID:     userID,
			CallbackID: "cb",
			Data:       data,
			Sender:     domain.Author{ID: userID},
		}), data)
	}
	assert.NotContains(t, f.replier.Acks(), testutil.Ack{CallbackID: "cb", Text: "Adding cancelled."})

	f.send(t, userID, "still a joke")
	assert.Equal(t, []string{"still a joke"}, f.jokes(t))
}

func TestRouter_HandlerErrorIsReported(t *testing.T) {
	f := newRouterFixture(t)
	f.session.Jokes = failingJokes{}
	f.router = BuildRouter(f.session, apperrors.NewHandler(testutil.Logger(), false, f.session.Tr))

	f.send(t, userID, "/add")
	f.send(t, userID, "a joke")

	texts := f.replier.Texts(userID)
	require.Len(t, texts, 2)
	assert.Equal(t, "Temporary storage problem, nothing was saved. Please try again later.", texts[1])

	f.send(t, userID, "another")
	assert.Len(t, f.replier.Texts(userID), 2)
}

func TestRouter_RecoversFromPanic(t *testing.T) {
	f := newRouterFixture(t)
	f.router.RegisterCommand("/boom", func(context.Context, *handlers.Update) error {
		panic("boom")
	})

	f.send(t, userID, "/boom")

	assert.Equal(t, []string{"Something went wrong. Please try again later."}, f.replier.Texts(userID))
}

func TestRouter_DropsRedeliveredUpdates(t *testing.T) {
	f := newRouterFixture(t)
	guard := idempotency.NewGuard(idempotency.NewMemoryStore(), time.Hour, testutil.Logger())
	f.router = BuildRouter(f.session, apperrors.NewHandler(testutil.Logger(), false, f.session.Tr), DeduplicationMiddleware(guard))
	ctx := context.Background()

	add := privateMessage(userID, "/add")
	add.ID = 1
	submission := privateMessage(userID, "a joke")
	submission.ID = 2

	require.NoError(t, f.router.Route(ctx, add))
	require.NoError(t, f.router.Route(ctx, submission))
	require.NoError(t, f.router.Route(ctx, add))
	require.NoError(t, f.router.Route(ctx, submission))

	assert.Equal(t, []string{"a joke"}, f.jokes(t))
	assert.Len(t, f.replier.Texts(userID), 2)
	assert.Equal(t, "duplicate", add.Route)
}
