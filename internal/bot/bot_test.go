package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iconidentify/xgrabbot/internal/config"
	"github.com/iconidentify/xgrabbot/internal/domain"
	"github.com/iconidentify/xgrabbot/internal/service"
	"github.com/iconidentify/xgrabbot/internal/worker"
	"github.com/iconidentify/xgrabbot/pkg/twitter"
)

const (
	developerChat = int64(1000)
	userChat      = int64(42)
	groupChat     = int64(-500)
	tweetURL      = "https://x.com/alice/status/123456"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// =============================================================================
// Fakes
// =============================================================================

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  error
	reqErr   error

	updates chan tgbotapi.Update
	stopped bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 8)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reqErr != nil {
		return nil, f.reqErr
	}
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

type fakeGrabber struct {
	mu         sync.Mutex
	extractErr error
	result     *service.DispatchResult
	dispatch   error
	stats      domain.Stats
	statsErr   error
	requests   []service.DispatchRequest
	recorded   int
	resets     int
}

func (g *fakeGrabber) ExtractTweetIDs(ctx context.Context, origin domain.Origin, text string) ([]domain.TweetID, error) {
	if g.extractErr != nil {
		return nil, g.extractErr
	}
	ids := twitter.ExtractTweetIDs(text)
	if len(ids) == 0 {
		return nil, domain.ErrNoTweetIDs
	}
	return ids, nil
}

func (g *fakeGrabber) Dispatch(ctx context.Context, req service.DispatchRequest) (*service.DispatchResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.dispatch != nil {
		return nil, g.dispatch
	}
	if g.result != nil {
		return g.result, nil
	}
	return &service.DispatchResult{Mode: req.Mode}, nil
}

func (g *fakeGrabber) Stats(ctx context.Context) (domain.Stats, error) {
	return g.stats, g.statsErr
}

func (g *fakeGrabber) ResetStats(ctx context.Context) error {
	g.resets++
	g.stats = domain.Stats{}
	return nil
}

func (g *fakeGrabber) RecordRequest(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.recorded++
}

type fakePool struct {
	mu   sync.Mutex
	jobs []worker.Job
	err  error
}

func (p *fakePool) Submit(job worker.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, job)
	return nil
}

func (p *fakePool) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.jobs)
}

type fixture struct {
	api     *fakeAPI
	grabber *fakeGrabber
	pool    *fakePool
	bot     *Bot
}

func newFixture() *fixture {
	f := &fixture{
		api:     newFakeAPI(),
		grabber: &fakeGrabber{},
		pool:    &fakePool{},
	}
	cfg := config.TelegramConfig{
		DeveloperID: developerChat,
		DonateURL:   "https://example.com/coffee",
		PollTimeout: 1,
	}
	f.bot = New(f.api, tgbotapi.User{ID: 7, UserName: "XGrabBot", IsBot: true}, f.grabber, f.pool, cfg, testLogger())
	return f
}

func commandMessage(chatID int64, text string) *tgbotapi.Message {
	cmd := strings.Fields(text)[0]
	return &tgbotapi.Message{
		MessageID: 10,
		From:      &tgbotapi.User{ID: 42, FirstName: "Ada_L"},
		Chat:      &tgbotapi.Chat{ID: chatID, Type: "private"},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}
}

func textMessage(chatID int64, chatType, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 11,
		From:      &tgbotapi.User{ID: 42, FirstName: "Ada"},
		Chat:      &tgbotapi.Chat{ID: chatID, Type: chatType},
		Text:      text,
	}
}

// =============================================================================
// Commands
// =============================================================================

func TestBot_Start(t *testing.T) {
	f := newFixture()

	err := f.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(userChat, "/start")})
	require.NoError(t, err)

	require.Len(t, f.api.sent, 1)
	msg := f.api.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, msg.ParseMode)
	assert.Contains(t, msg.Text, `[Ada\_L](tg://user?id=42)`)
	assert.Equal(t, 10, msg.ReplyToMessageID)
	assert.Equal(t, 1, f.grabber.recorded)
}

func TestBot_HelpAndDonate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.bot.HandleUpdate(ctx, tgbotapi.Update{Message: commandMessage(userChat, "/help")}))
	require.NoError(t, f.bot.HandleUpdate(ctx, tgbotapi.Update{Message: commandMessage(userChat, "/donate")}))

	texts := f.api.texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "@XGrabBot")
	assert.Contains(t, texts[1], "https://example.com/coffee")
	assert.Equal(t, 2, f.grabber.recorded)
}

func TestBot_Grab(t *testing.T) {
	f := newFixture()

	err := f.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(userChat, "/grab "+tweetURL)})
	require.NoError(t, err)

	require.Len(t, f.api.sent, 1)
	echo := f.api.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, "tweet: "+tweetURL, echo.Text)
	assert.True(t, echo.DisableWebPagePreview)

	require.Len(t, f.grabber.requests, 1)
	req := f.grabber.requests[0]
	assert.Equal(t, domain.ModeCommandReply, req.Mode)
	assert.Equal(t, []domain.TweetID{"123456"}, req.TweetIDs)
	assert.NotNil(t, req.Transport)
	assert.Zero(t, req.Origin.MessageID, "replies must not point at the deleted command")

	require.Len(t, f.api.requests, 1)
	del := f.api.requests[0].(tgbotapi.DeleteMessageConfig)
	assert.Equal(t, userChat, del.ChatID)
	assert.Equal(t, 10, del.MessageID)
}

func TestBot_Grab_InvalidURL(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no argument", "/grab"},
		{"not a tweet", "/grab https://example.com/alice/status/1"},
		{"bare id", "/grab 123456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			err := f.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(userChat, tt.text)})
			require.NoError(t, err)

			assert.Equal(t, []string{MsgInvalidURL}, f.api.texts())
			assert.Empty(t, f.grabber.requests)
			assert.Empty(t, f.api.requests, "command must not be deleted")
			assert.Equal(t, 1, f.grabber.recorded)
		})
	}
}

func TestBot_Grab_DispatchFailure(t *testing.T) {
	f := newFixture()
	f.grabber.dispatch = service.ErrNoTransport

	err := f.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(userChat, "/grab "+tweetURL)})
	require.ErrorIs(t, err, service.ErrNoTransport)

	texts := f.api.texts()
	require.Len(t, texts, 2)
	assert.Equal(t, MsgGenericFailure, texts[1])
}

func TestBot_Stats(t *testing.T) {
	f := newFixture()
	f.grabber.stats = domain.Stats{IdentifiersResolved: 1234, MediaDelivered: 5, RequestsServed: 1000000}

	err := f.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(developerChat, "/stats")})
	require.NoError(t, err)

	require.Len(t, f.api.sent, 1)
	msg := f.api.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, msg.ParseMode)
	assert.Contains(t, msg.Text, "Identifiers resolved: *1,234*")
	assert.Contains(t, msg.Text, "Media delivered: *5*")
	assert.Contains(t, msg.Text, "Requests served: *1,000,000*")
}

func TestBot_OperatorCommandsIgnoredOutsideDeveloperChat(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.bot.HandleUpdate(ctx, tgbotapi.Update{Message: commandMessage(userChat, "/stats")}))
	require.NoError(t, f.bot.HandleUpdate(ctx, tgbotapi.Update{Message: commandMessage(userChat, "/resetstats")}))

	assert.Empty(t, f.api.sent)
	assert.Zero(t, f.grabber.resets)
}

func TestBot_ResetStats(t *testing.T) {
	f := newFixture()
	f.grabber.stats = domain.Stats{MediaDelivered: 9}

	err := f.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(developerChat, "/resetstats")})
	require.NoError(t, err)

	assert.Equal(t, 1, f.grabber.resets)
	assert.Equal(t, []string{MsgStatsReset}, f.api.texts())
}

func TestBot_Stats_Error(t *testing.T) {
	f := newFixture()
	f.grabber.statsErr = errors.New("database is locked")

	err := f.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(developerChat, "/stats")})
	require.Error(t, err)
	assert.Equal(t, []string{MsgGenericFailure}, f.api.texts())
}

func groupCommand(text string) *tgbotapi.Message {
	msg := commandMessage(groupChat, text)
	msg.Chat.Type = "supergroup"
	return msg
}

func TestBot_CommandsForOtherBotsIgnored(t *testing.T) {
	tests := []string{
		"/grab@OtherBot " + tweetURL,
		"/start@OtherBot",
		"/help@otherbot",
		"/stats@OtherBot",
	}

	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			f := newFixture()

			err := f.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: groupCommand(text)})
			require.NoError(t, err)

			assert.Empty(t, f.api.sent)
			assert.Empty(t, f.api.requests, "other users' messages must not be deleted")
			assert.Empty(t, f.grabber.requests)
			assert.Zero(t, f.grabber.recorded)
		})
	}
}

func TestBot_CommandAddressedToThisBot(t *testing.T) {
	f := newFixture()

	err := f.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: groupCommand("/grab@xgrabbot " + tweetURL)})
	require.NoError(t, err)

	require.Len(t, f.grabber.requests, 1)
	assert.Equal(t, groupChat, f.grabber.requests[0].Origin.ChatID)
	assert.Equal(t, []string{"tweet: " + tweetURL}, f.api.texts())
}

func TestBot_RejectedReplyIsNotReported(t *testing.T) {
	rejected := &tgbotapi.Error{Code: 400, Message: "Bad Request: message to reply not found"}

	t.Run("command reply", func(t *testing.T) {
		f := newFixture()
		f.api.sendErr = rejected

		err := f.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(userChat, "/help")})
		assert.NoError(t, err)
	})

	t.Run("inline answer", func(t *testing.T) {
		f := newFixture()
		f.api.reqErr = rejected
		f.grabber.result = &service.DispatchResult{Mode: domain.ModeInlineQuery}

		err := f.bot.HandleUpdate(context.Background(), tgbotapi.Update{InlineQuery: &tgbotapi.InlineQuery{
			ID:    "q1",
			From:  &tgbotapi.User{ID: 42},
			Query: tweetURL,
		}})
		assert.NoError(t, err)
		require.Len(t, f.grabber.requests, 1)
	})

	t.Run("expired deadline", func(t *testing.T) {
		f := newFixture()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := f.bot.HandleUpdate(ctx, tgbotapi.Update{InlineQuery: &tgbotapi.InlineQuery{ID: "q1", Query: "cats"}})
		assert.NoError(t, err)
		assert.Empty(t, f.api.requests)
	})
}

// =============================================================================
// Mentions
// =============================================================================

func TestBot_Mention(t *testing.T) {
	tests := []struct {
		name         string
		chatType     string
		text         string
		wantDispatch bool
		wantTexts    []string
	}{
		{"private with link", "private", "look " + tweetURL, true, nil},
		{"private without link", "private", "hello", false, []string{MsgNothingResolved}},
		{"group without mention", "group", "look " + tweetURL, false, nil},
		{"group with mention", "supergroup", "@xgrabbot " + tweetURL, true, nil},
		{"group mention without link", "group", "@XGrabBot hi", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			chatID := userChat
			if tt.chatType != "private" {
				chatID = groupChat
			}

			err := f.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: textMessage(chatID, tt.chatType, tt.text)})
			require.NoError(t, err)

			if tt.wantDispatch {
				require.Len(t, f.grabber.requests, 1)
				req := f.grabber.requests[0]
				assert.Equal(t, domain.ModeCommandReply, req.Mode)
				assert.Equal(t, domain.Origin{UserID: 42, ChatID: chatID, MessageID: 11}, req.Origin)
			} else {
				assert.Empty(t, f.grabber.requests)
			}
			assert.Equal(t, tt.wantTexts, f.api.texts())
		})
	}
}

// =============================================================================
// Inline queries
// =============================================================================

func inlineAnswer(t *testing.T, f *fixture) tgbotapi.InlineConfig {
	t.Helper()
	require.Len(t, f.api.requests, 1)
	answer, ok := f.api.requests[0].(tgbotapi.InlineConfig)
	require.True(t, ok, "expected an inline answer, got %T", f.api.requests[0])
	return answer
}

func TestBot_Inline_EmptyQueryIgnored(t *testing.T) {
	f := newFixture()

	err := f.bot.HandleUpdate(context.Background(), tgbotapi.Update{InlineQuery: &tgbotapi.InlineQuery{ID: "q1", Query: "   "}})
	require.NoError(t, err)
	assert.Empty(t, f.api.requests)
	assert.Zero(t, f.grabber.recorded)
}

func TestBot_Inline_NotATweetURL(t *testing.T) {
	f := newFixture()

	err := f.bot.HandleUpdate(context.Background(), tgbotapi.Update{InlineQuery: &tgbotapi.InlineQuery{
		ID:    "q1",
		From:  &tgbotapi.User{ID: 42},
		Query: "cats",
	}})
	require.NoError(t, err)

	answer := inlineAnswer(t, f)
	require.Len(t, answer.Results, 1)
	article := answer.Results[0].(tgbotapi.InlineQueryResultArticle)
	assert.Equal(t, service.MsgNothingFound, article.Title)
	assert.Empty(t, f.grabber.requests)
}

func TestBot_Inline_Results(t *testing.T) {
	f := newFixture()
	f.grabber.result = &service.DispatchResult{
		Mode: domain.ModeInlineQuery,
		Results: []domain.InlineResult{
			{Kind: domain.InlineResultPhoto, ID: "a", URL: "https://pbs.twimg.com/media/a.jpg?format=jpg&name=orig", ThumbnailURL: "https://pbs.twimg.com/media/a.jpg?format=jpg&name=orig"},
			{Kind: domain.InlineResultPhoto, ID: "b", URL: "https://pbs.twimg.com/media/b.jpg", ThumbnailURL: "https://pbs.twimg.com/media/b.jpg"},
		},
	}

	err := f.bot.HandleUpdate(context.Background(), tgbotapi.Update{InlineQuery: &tgbotapi.InlineQuery{
		ID:    "q1",
		From:  &tgbotapi.User{ID: 42},
		Query: tweetURL,
	}})
	require.NoError(t, err)

	require.Len(t, f.grabber.requests, 1)
	assert.Equal(t, domain.ModeInlineQuery, f.grabber.requests[0].Mode)
	assert.Nil(t, f.grabber.requests[0].Transport)

	answer := inlineAnswer(t, f)
	assert.Equal(t, "q1", answer.InlineQueryID)
	assert.Equal(t, inlineCacheTime, answer.CacheTime)
	require.Len(t, answer.Results, 2)
	first := answer.Results[0].(tgbotapi.InlineQueryResultPhoto)
	assert.Equal(t, "a", first.ID)
	assert.Equal(t, "https://pbs.twimg.com/media/a.jpg?format=jpg&name=orig", first.URL)
}

func TestBot_Inline_DispatchError(t *testing.T) {
	f := newFixture()
	f.grabber.dispatch = errors.New("boom")

	err := f.bot.HandleUpdate(context.Background(), tgbotapi.Update{InlineQuery: &tgbotapi.InlineQuery{
		ID:    "q1",
		Query: tweetURL,
	}})
	require.Error(t, err)

	answer := inlineAnswer(t, f)
	require.Len(t, answer.Results, 1)
	assert.IsType(t, tgbotapi.InlineQueryResultArticle{}, answer.Results[0])
}

func TestTelegramResults(t *testing.T) {
	results := telegramResults([]domain.InlineResult{
		{Kind: domain.InlineResultGIF, ID: "g", URL: "https://video.twimg.com/tweet_video/g.mp4", ThumbnailURL: "https://pbs.twimg.com/g.jpg"},
		{Kind: domain.InlineResultVideo, ID: "v", URL: "https://video.twimg.com/v.mp4", ThumbnailURL: "https://pbs.twimg.com/v.jpg", Title: "Video"},
		{Kind: domain.InlineResultArticle, ID: "x", Title: "Video too big!", Text: "Video too big"},
	})
	require.Len(t, results, 3)

	gif := results[0].(tgbotapi.InlineQueryResultGIF)
	assert.Equal(t, "https://pbs.twimg.com/g.jpg", gif.ThumbURL)

	video := results[1].(tgbotapi.InlineQueryResultVideo)
	assert.Equal(t, "video/mp4", video.MimeType)
	assert.Equal(t, "Video", video.Title)
	assert.Equal(t, "https://pbs.twimg.com/v.jpg", video.ThumbURL)

	article := results[2].(tgbotapi.InlineQueryResultArticle)
	assert.Equal(t, "Video too big!", article.Title)
}

// =============================================================================
// Polling
// =============================================================================

func TestBot_Run(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.bot.Run(ctx) }()

	f.api.updates <- tgbotapi.Update{UpdateID: 1, Message: textMessage(userChat, "private", tweetURL)}
	f.api.updates <- tgbotapi.Update{UpdateID: 2, Message: textMessage(userChat, "private", "hi")}

	require.Eventually(t, func() bool { return f.pool.count() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	f.api.mu.Lock()
	assert.True(t, f.api.stopped)
	_, registered := f.api.requests[0].(tgbotapi.SetMyCommandsConfig)
	f.api.mu.Unlock()
	assert.True(t, registered, "commands should be registered before polling")

	assert.Equal(t, "update-1", f.pool.jobs[0].Name)
	assert.IsType(t, tgbotapi.Update{}, f.pool.jobs[0].Payload)

	// Jobs run the handler.
	require.NoError(t, f.pool.jobs[0].Run(context.Background()))
	assert.Len(t, f.grabber.requests, 1)
}

func TestBot_Run_PoolFullDropsUpdate(t *testing.T) {
	f := newFixture()
	f.pool.err = worker.ErrQueueFull
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.bot.Run(ctx) }()

	f.api.updates <- tgbotapi.Update{UpdateID: 1, Message: textMessage(userChat, "private", tweetURL)}
	close(f.api.updates)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		cancel()
		t.Fatal("Run did not return when the updates channel closed")
	}
	cancel()
	assert.Zero(t, f.pool.count())
}
