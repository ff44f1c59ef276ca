package handler

import (
	"context"
	"sync"
	"time"

	"glossari/internal/middleware"
	"glossari/internal/page"
	"glossari/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// PageFetcher downloads a page snapshot
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (page.Snapshot, error)
}

// Handler manages all bot interactions
type Handler struct {
	bot          *tele.Bot
	authService  *service.AuthService
	extraction   *service.ExtractionService
	translation  *service.TranslationService
	cardService  *service.CardService
	statsService *service.StatsService
	fetcher      PageFetcher
	logger       *zap.Logger

	// Capture sessions, one per user
	sessions   map[int64]*session
	sessionMux sync.Mutex

	// Serializes updates of the same user
	callbackLocks map[int64]*sync.Mutex
	callbackMux   sync.Mutex

	now func() time.Time
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	authService *service.AuthService,
	extraction *service.ExtractionService,
	translation *service.TranslationService,
	cardService *service.CardService,
	statsService *service.StatsService,
	fetcher PageFetcher,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bot:           bot,
		authService:   authService,
		extraction:    extraction,
		translation:   translation,
		cardService:   cardService,
		statsService:  statsService,
		fetcher:       fetcher,
		logger:        logger,
		sessions:      make(map[int64]*session),
		callbackLocks: make(map[int64]*sync.Mutex),
		now:           time.Now,
	}
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	// Login happens through /start and plain text, everything else
	// requires an authorized user.
	h.bot.Handle("/start", h.handleStart)
	h.bot.Handle(tele.OnText, h.handleText)

	protected := h.bot.Group()
	protected.Use(middleware.AuthMiddleware(h.authService, h.logger))

	// Commands
	protected.Handle("/clear", h.handleClear)
	protected.Handle("/pause", h.handlePause)
	protected.Handle("/resume", h.handleResume)
	protected.Handle("/decks", h.handleDecks)
	protected.Handle("/cards", h.handleViewDays)
	protected.Handle("/random", h.handleRandomCard)

	// Selection actions
	protected.Handle(&btnTranslate, h.handleTranslate)
	protected.Handle(&btnExplain, h.handleExplain)
	protected.Handle(&btnSentenceCard, h.handleSentenceCard)
	protected.Handle(&btnVocabCard, h.handleVocabCard)
	protected.Handle(&btnTrim, h.handleTrim)
	protected.Handle(&btnDismiss, h.handleDismiss)
	protected.Handle(&btnCancel, h.handleCancel)

	// Menu
	protected.Handle(&btnViewDays, h.handleViewDays)
	protected.Handle(&btnRandomCard, h.handleRandomCard)
	protected.Handle(&btnMore, h.handleRandomCard)
	protected.Handle(&btnDecks, h.handleDecks)
	protected.Handle(&btnBack, h.handleStart)
	protected.Handle(&btnBackToDays, h.handleViewDays)
	protected.Handle(&btnMainMenu, h.handleStart)

	// Generic callback handler for dynamic data
	protected.Handle(tele.OnCallback, h.handleCallback)
}

// userLock returns the lock serializing updates of userID
func (h *Handler) userLock(userID int64) *sync.Mutex {
	h.callbackMux.Lock()
	defer h.callbackMux.Unlock()

	lock, exists := h.callbackLocks[userID]
	if !exists {
		lock = &sync.Mutex{}
		h.callbackLocks[userID] = lock
	}
	return lock
}

// Inline keyboard buttons
var (
	btnTranslate = tele.Btn{
		Unique: "translate",
		Text:   "🔄 Translate",
	}
	btnExplain = tele.Btn{
		Unique: "explain",
		Text:   "💡 Explain",
	}
	btnSentenceCard = tele.Btn{
		Unique: "sentence_card",
		Text:   "🃏 Sentence card",
	}
	btnVocabCard = tele.Btn{
		Unique: "vocab_card",
		Text:   "📇 Vocab card",
	}
	btnTrim = tele.Btn{
		Unique: "trim",
		Text:   "✂️ Trim",
	}
	btnDismiss = tele.Btn{
		Unique: "dismiss",
		Text:   "❌ Dismiss",
	}
	btnCancel = tele.Btn{
		Unique: "cancel",
		Text:   "❌ Cancel",
	}
	btnViewDays = tele.Btn{
		Unique: "view_days",
		Text:   "📅 Cards by day",
	}
	btnRandomCard = tele.Btn{
		Unique: "random_card",
		Text:   "🎲 Random card",
	}
	btnDecks = tele.Btn{
		Unique: "decks",
		Text:   "🗂 Decks",
	}
	btnMore = tele.Btn{
		Unique: "more",
		Text:   "🔄 Another one",
	}
	btnBack = tele.Btn{
		Unique: "back",
		Text:   "🏠 Back",
	}
	btnBackToDays = tele.Btn{
		Unique: "back_to_days",
		Text:   "◀️ To days",
	}
	btnMainMenu = tele.Btn{
		Unique: "main_menu",
		Text:   "🏠 Main menu",
	}
)

// mainMenuMarkup returns the main menu keyboard
func mainMenuMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(btnViewDays),
		menu.Row(btnRandomCard, btnDecks),
	)
	return menu
}

// selectionMarkup returns the actions available on a selection
func (h *Handler) selectionMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	lookup := tele.Row{}
	if h.translation.CanTranslate() {
		lookup = append(lookup, btnTranslate)
	}
	if h.translation.CanExplain() {
		lookup = append(lookup, btnExplain)
	}

	rows := []tele.Row{}
	if len(lookup) > 0 {
		rows = append(rows, lookup)
	}
	rows = append(rows,
		menu.Row(btnSentenceCard, btnVocabCard),
		menu.Row(btnTrim, btnDismiss),
	)
	menu.Inline(rows...)
	return menu
}

// cancelMarkup returns a keyboard with a single cancel button
func cancelMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(btnCancel))
	return menu
}
