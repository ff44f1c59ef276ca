package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"glossari/internal/capture"
	"glossari/internal/domain"
	"glossari/internal/extractor"
	"glossari/internal/page"
	"glossari/internal/service"
	"glossari/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
)

const (
	testUserID = int64(7)
	passage    = "Bonjour à tous.\nLe chat dort. Il est fatigué. Demain il jouera.\nLe chien aboie. Il est fatigué aussi."
)

// fakeContext records what the handler sends back
type fakeContext struct {
	tele.Context
	sender    *tele.User
	text      string
	callback  *tele.Callback
	sent      []string
	markups   []*tele.ReplyMarkup
	responses []*tele.CallbackResponse
}

func (c *fakeContext) Sender() *tele.User       { return c.sender }
func (c *fakeContext) Text() string             { return c.text }
func (c *fakeContext) Callback() *tele.Callback { return c.callback }

func (c *fakeContext) Send(what interface{}, opts ...interface{}) error {
	c.sent = append(c.sent, what.(string))
	var markup *tele.ReplyMarkup
	for _, opt := range opts {
		if m, ok := opt.(*tele.ReplyMarkup); ok {
			markup = m
		}
	}
	c.markups = append(c.markups, markup)
	return nil
}

func (c *fakeContext) Edit(what interface{}, opts ...interface{}) error {
	return c.Send(what, opts...)
}

func (c *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	if len(resp) > 0 {
		c.responses = append(c.responses, resp[0])
	}
	return nil
}

func (c *fakeContext) last() string {
	if len(c.sent) == 0 {
		return ""
	}
	return c.sent[len(c.sent)-1]
}

func (c *fakeContext) lastResponse() string {
	if len(c.responses) == 0 {
		return ""
	}
	return c.responses[len(c.responses)-1].Text
}

type fakeFetcher struct {
	snap page.Snapshot
	err  error
	urls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, pageURL string) (page.Snapshot, error) {
	f.urls = append(f.urls, pageURL)
	return f.snap, f.err
}

type fixture struct {
	handler    *Handler
	userRepo   *testutil.MockUserRepository
	deckRepo   *testutil.MockDeckRepository
	cardRepo   *testutil.MockCardRepository
	translator *testutil.MockTranslator
	fetcher    *fakeFetcher
}

// newFixture builds a handler for an authorized user. With withTranslator
// false no translator is configured.
func newFixture(t *testing.T, withTranslator bool) *fixture {
	t.Helper()
	logger := testutil.NewTestLogger()

	f := &fixture{
		userRepo: new(testutil.MockUserRepository),
		deckRepo: new(testutil.MockDeckRepository),
		cardRepo: new(testutil.MockCardRepository),
		fetcher:  &fakeFetcher{},
	}
	f.userRepo.On("EnsureUserExists", testUserID).Return(nil).Maybe()
	f.userRepo.On("IsAuthorized", testUserID).Return(true, nil).Maybe()

	var translator service.Translator
	if withTranslator {
		f.translator = new(testutil.MockTranslator)
		translator = f.translator
	}
	translation, err := service.NewTranslationService(translator, nil, 8, logger)
	require.NoError(t, err)

	f.handler = NewHandler(
		nil,
		service.NewAuthService(f.userRepo, "secret", ""),
		service.NewExtractionService(extractor.New(extractor.DefaultOptions(), logger), logger),
		translation,
		service.NewCardService(f.deckRepo, f.cardRepo, service.CardSettings{}, logger),
		service.NewStatsService(f.deckRepo, logger),
		f.fetcher,
		logger,
	)
	return f
}

func (f *fixture) text(t *testing.T, text string) *fakeContext {
	t.Helper()
	c := &fakeContext{sender: &tele.User{ID: testUserID}, text: text}
	require.NoError(t, f.handler.handleText(c))
	return c
}

func (f *fixture) press(t *testing.T, fn tele.HandlerFunc) *fakeContext {
	t.Helper()
	c := &fakeContext{sender: &tele.User{ID: testUserID}, callback: &tele.Callback{ID: "cb"}}
	require.NoError(t, fn(c))
	return c
}

func (f *fixture) command(t *testing.T, fn tele.HandlerFunc) *fakeContext {
	t.Helper()
	c := &fakeContext{sender: &tele.User{ID: testUserID}}
	require.NoError(t, fn(c))
	return c
}

func (f *fixture) session() *session {
	return f.handler.sessions[testUserID]
}

func TestHandleText_Password(t *testing.T) {
	userRepo := new(testutil.MockUserRepository)
	userRepo.On("EnsureUserExists", testUserID).Return(nil)
	userRepo.On("IsAuthorized", testUserID).Return(false, nil)
	userRepo.On("AuthorizeUser", testUserID).Return(nil).Once()

	f := newFixture(t, false)
	f.handler.authService = service.NewAuthService(userRepo, "secret", "")

	c := f.text(t, "guess")
	assert.Equal(t, "Wrong password", c.last())

	c = f.text(t, "secret")
	assert.Contains(t, c.last(), "Access granted")
	userRepo.AssertExpectations(t)
	assert.Empty(t, f.handler.sessions)
}

func TestHandleText_PassageThenPhrase(t *testing.T) {
	f := newFixture(t, true)

	c := f.text(t, passage)
	assert.Contains(t, c.last(), "Passage saved")
	require.True(t, f.session().loaded())

	c = f.text(t, "fatigué")
	assert.Equal(t, "📌 fatigué\n\n📖 Il est fatigué.\n\n🧩 Bonjour à tous. Il est fatigué. Le chien aboie. Il est fatigué aussi.", c.last())
	require.NotNil(t, c.markups[0])
	assert.Equal(t, capture.StateCandidateSelected, f.session().machine.State())

	sel, ok := f.session().machine.Candidate()
	require.True(t, ok)
	assert.Equal(t, "/html/body/p[2]", sel.Locator.String())
}

func TestHandleText_Occurrence(t *testing.T) {
	f := newFixture(t, false)
	f.text(t, passage)

	c := f.text(t, "fatigué #2")
	assert.Contains(t, c.last(), "📖 Il est fatigué aussi.")
}

func TestHandleText_NotFoundClearsSelection(t *testing.T) {
	f := newFixture(t, true)
	f.text(t, passage)
	f.text(t, "fatigué")
	require.Equal(t, capture.StateCandidateSelected, f.session().machine.State())

	c := f.text(t, "oiseau")
	assert.Contains(t, c.last(), "Couldn't find «oiseau»")
	assert.Equal(t, capture.StateIdle, f.session().machine.State())
	assert.Nil(t, f.session().ticket)

	// The panel of the previous selection no longer acts on it.
	c = f.press(t, f.handler.handleTranslate)
	assert.Equal(t, "Send a word or phrase first", c.lastResponse())
	f.translator.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything)
}

func TestHandleText_LoadPage(t *testing.T) {
	f := newFixture(t, false)
	f.fetcher.snap = page.Snapshot{URL: "https://example.com/a", Title: "Le chat", HTML: "<html><body><p>Le chat dort.</p></body></html>"}

	c := f.text(t, "https://example.com/a")
	assert.Equal(t, []string{"https://example.com/a"}, f.fetcher.urls)
	assert.Contains(t, c.last(), "📄 Loaded: Le chat")

	c = f.text(t, "chat")
	assert.Contains(t, c.last(), "📖 Le chat dort.")
	sel, ok := f.session().machine.Candidate()
	require.True(t, ok)
	assert.Equal(t, "https://example.com/a", sel.PageURL)

	f.fetcher.err = errors.New("status 404")
	c = f.text(t, "https://example.com/missing")
	assert.Contains(t, c.last(), "Couldn't load this page")
	assert.Equal(t, "https://example.com/a", f.session().snapshot.URL)
}

func TestTranslateThenVocabCard(t *testing.T) {
	f := newFixture(t, true)
	f.translator.On("Translate", mock.Anything, "fatigué").Return("tired", nil).Once()
	f.deckRepo.On("EnsureDeck", testUserID, service.DefaultDeck).Return(int64(1), nil)
	f.cardRepo.On("SaveCard", int64(1), mock.MatchedBy(func(card *domain.Card) bool {
		return card.Type == domain.CardVocab &&
			card.Target == "fatigué" &&
			card.Translation == "tired" &&
			card.Sentence == "Il est fatigué." &&
			card.Locator == "/html/body/p[2]"
	})).Return(nil).Once()

	f.text(t, passage)
	f.text(t, "fatigué")

	c := f.press(t, f.handler.handleTranslate)
	assert.Equal(t, "🔄 fatigué — tired", c.last())
	assert.Equal(t, capture.StateIdle, f.session().machine.State())

	c = f.press(t, f.handler.handleVocabCard)
	assert.Contains(t, c.last(), "✅ Saved to "+service.DefaultDeck)
	assert.Contains(t, c.last(), "Translation: tired")

	f.translator.AssertExpectations(t)
	f.cardRepo.AssertExpectations(t)
}

func TestSentenceCard_ManualTranslation(t *testing.T) {
	f := newFixture(t, false)
	f.deckRepo.On("EnsureDeck", testUserID, service.DefaultDeck).Return(int64(1), nil)
	f.cardRepo.On("SaveCard", int64(1), mock.MatchedBy(func(card *domain.Card) bool {
		return card.Type == domain.CardSentence &&
			card.Translation == "cat" &&
			card.Sentence == "Le chat dort."
	})).Return(nil).Once()

	f.text(t, passage)
	f.text(t, "chat")

	c := f.press(t, f.handler.handleSentenceCard)
	assert.Equal(t, "✍️ Send the translation for «chat»:", c.last())
	assert.Equal(t, domain.InputWaitingTranslation, f.session().input)

	c = f.text(t, "cat")
	assert.Contains(t, c.last(), "✅ Saved to")
	assert.Equal(t, domain.InputIdle, f.session().input)
	f.cardRepo.AssertExpectations(t)
}

func TestTrimThenCard(t *testing.T) {
	f := newFixture(t, false)
	f.deckRepo.On("EnsureDeck", testUserID, service.DefaultDeck).Return(int64(1), nil)
	f.cardRepo.On("SaveCard", int64(1), mock.MatchedBy(func(card *domain.Card) bool {
		return card.Sentence == "est fatigué"
	})).Return(nil).Once()

	f.text(t, passage)
	f.text(t, "fatigué")

	f.press(t, f.handler.handleTrim)
	assert.Equal(t, domain.InputWaitingTrim, f.session().input)

	c := f.text(t, "Le chien")
	assert.Contains(t, c.last(), "must contain «fatigué»")
	assert.Equal(t, domain.InputWaitingTrim, f.session().input)

	c = f.text(t, "est   fatigué")
	assert.Contains(t, c.last(), "✂️ Sentence trimmed:\nest fatigué")
	assert.Equal(t, "est fatigué", f.session().trimmed)

	f.press(t, f.handler.handleVocabCard)
	c = f.text(t, "tired")
	assert.Contains(t, c.last(), "Sentence: est fatigué")
	f.cardRepo.AssertExpectations(t)
}

func TestCancelKeepsSelection(t *testing.T) {
	f := newFixture(t, false)
	f.text(t, passage)
	f.text(t, "chat")
	f.press(t, f.handler.handleSentenceCard)

	c := f.press(t, f.handler.handleCancel)
	assert.Contains(t, c.last(), "📌 chat")
	assert.Equal(t, domain.InputIdle, f.session().input)
	assert.Equal(t, capture.StateCandidateSelected, f.session().machine.State())

	// The next message is a new phrase, not a translation.
	c = f.text(t, "chien")
	assert.Contains(t, c.last(), "📌 chien")
}

func TestDismiss(t *testing.T) {
	f := newFixture(t, true)
	f.text(t, passage)
	f.text(t, "chat")

	c := f.press(t, f.handler.handleDismiss)
	assert.Contains(t, c.last(), "Selection dismissed")

	c = f.press(t, f.handler.handleTranslate)
	assert.Equal(t, "Send a word or phrase first", c.lastResponse())
	f.translator.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything)
}

func TestLookupErrors(t *testing.T) {
	f := newFixture(t, true)
	f.translator.On("Translate", mock.Anything, "chat").Return("", errors.New("quota exceeded")).Once()
	f.translator.On("Translate", mock.Anything, "Bonjour").Return("bonjour", nil).Once()

	f.text(t, passage)

	f.text(t, "chat")
	c := f.press(t, f.handler.handleTranslate)
	assert.Equal(t, "The translation service failed, try again later", c.lastResponse())

	f.text(t, "Bonjour")
	c = f.press(t, f.handler.handleTranslate)
	assert.Equal(t, "Nothing found for this selection", c.lastResponse())

	c = f.press(t, f.handler.handleExplain)
	assert.Equal(t, "This service is not configured", c.lastResponse())
}

func TestPauseAndResume(t *testing.T) {
	f := newFixture(t, false)
	f.text(t, passage)
	f.text(t, "chat")
	f.press(t, f.handler.handleTrim)

	c := f.command(t, f.handler.handlePause)
	assert.Contains(t, c.last(), "Capture paused")
	assert.Equal(t, capture.StateIdle, f.session().machine.State())
	assert.Equal(t, domain.InputIdle, f.session().input)

	c = f.text(t, "chien")
	assert.Contains(t, c.last(), "Capture is paused")

	f.command(t, f.handler.handleResume)
	c = f.text(t, "chien")
	assert.Contains(t, c.last(), "📌 chien")
}

func TestClear(t *testing.T) {
	f := newFixture(t, false)
	f.text(t, passage)

	f.command(t, f.handler.handleClear)
	assert.Nil(t, f.session())

	// Without a page the next text becomes the passage.
	c := f.text(t, "chat")
	assert.Contains(t, c.last(), "Passage saved")
}

func TestPruneSessions(t *testing.T) {
	f := newFixture(t, false)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	f.handler.now = func() time.Time { return now }

	f.handler.session(1)
	f.handler.session(2)
	now = now.Add(2 * time.Hour)
	f.handler.session(2)

	assert.Equal(t, 1, f.handler.PruneSessions(time.Hour))
	assert.NotContains(t, f.handler.sessions, int64(1))
	assert.Contains(t, f.handler.sessions, int64(2))
	assert.Equal(t, 0, f.handler.PruneSessions(time.Hour))
}

func TestRandomCard(t *testing.T) {
	f := newFixture(t, false)
	f.cardRepo.On("GetRandomCard", testUserID).Return(nil, nil).Once()
	f.cardRepo.On("GetRandomCard", testUserID).
		Return(testutil.NewTestCard(1, testUserID, "chat", "cat", "Le chat dort."), nil).Once()

	c := f.command(t, f.handler.handleRandomCard)
	assert.Equal(t, "You have no saved cards yet", c.last())

	c = f.press(t, f.handler.handleRandomCard)
	assert.Equal(t, "🎲 Random card:\n\n📝 chat\n🔄 cat\n📖 Le chat dort.", c.last())
}

func TestViewDays(t *testing.T) {
	f := newFixture(t, false)
	days := []domain.Day{
		testutil.NewTestDay(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 2),
	}
	f.cardRepo.On("GetDaysWithCards", testUserID, 7, 0).Return(days, nil)
	f.cardRepo.On("GetTotalDaysCount", testUserID).Return(8, nil)

	c := f.command(t, f.handler.handleViewDays)
	assert.Equal(t, "📅 Your days:", c.last())

	markup := c.markups[0]
	require.NotNil(t, markup)
	// One day, the "next page" row and the back button.
	assert.Len(t, markup.InlineKeyboard, 3)
	assert.Equal(t, "day_20240301", markup.InlineKeyboard[0][0].Unique)
}

func TestParseOccurrence(t *testing.T) {
	tests := []struct {
		input              string
		expectedPhrase     string
		expectedOccurrence int
	}{
		{input: "chat", expectedPhrase: "chat"},
		{input: "chat #2", expectedPhrase: "chat", expectedOccurrence: 1},
		{input: "il est #1", expectedPhrase: "il est"},
		{input: "chat #0", expectedPhrase: "chat #0"},
		{input: "chat #deux", expectedPhrase: "chat #deux"},
		{input: "#2", expectedPhrase: "#2"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			phrase, occurrence := parseOccurrence(tt.input)
			assert.Equal(t, tt.expectedPhrase, phrase)
			assert.Equal(t, tt.expectedOccurrence, occurrence)
		})
	}
}

func TestIsURL(t *testing.T) {
	assert.True(t, isURL("https://example.com/a?b=c"))
	assert.True(t, isURL("http://example.com"))
	assert.False(t, isURL("example.com"))
	assert.False(t, isURL("ftp://example.com"))
	assert.False(t, isURL("https://example.com et la suite"))
}
