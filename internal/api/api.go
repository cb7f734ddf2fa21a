package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"react-analytics/internal/analytics"
	"react-analytics/internal/command"
	"react-analytics/internal/domain"
	"react-analytics/internal/schema"
)

// Submitter queues events for application. ingest.Pool implements it.
type Submitter interface {
	Submit(ctx context.Context, ev domain.Event) error
}

// Notifier delivers command results to the user who asked.
type Notifier interface {
	SendDM(ctx context.Context, userID, text string) error
}

type Options struct {
	Engine   *analytics.Engine
	Repo     domain.Repository
	Pool     Submitter
	Commands *command.Runner
	Notifier Notifier

	// Directory resolves mentions for buzzword queries. Optional.
	Directory command.DirectorySource

	// SigningSecret enables request signature checks on /slack routes.
	// Without it, VerificationToken is compared instead when set.
	SigningSecret     string
	VerificationToken string

	// Gatherer is served on /metrics when set.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

const outboxSize = 1024

type Handler struct {
	engine    *analytics.Engine
	repo      domain.Repository
	pool      Submitter
	commands  *command.Runner
	notifier  Notifier
	directory command.DirectorySource

	signingSecret     string
	verificationToken string

	router      *gin.Engine
	upgrader    websocket.Upgrader
	subscribers map[*websocket.Conn]context.CancelFunc
	mu          *sync.Mutex
	logger      *slog.Logger

	// outbox feeds the single sender, so subscribers see events in the
	// order Notify was called.
	outbox    chan schema.Message
	done      chan struct{}
	sender    sync.WaitGroup
	closeOnce sync.Once

	// background tracks slash commands still running after their response.
	background sync.WaitGroup
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func NewHandler(opts Options) *Handler {
	router := gin.New()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handler := &Handler{
		engine:            opts.Engine,
		repo:              opts.Repo,
		pool:              opts.Pool,
		commands:          opts.Commands,
		notifier:          opts.Notifier,
		directory:         opts.Directory,
		signingSecret:     opts.SigningSecret,
		verificationToken: opts.VerificationToken,
		router:            router,
		upgrader:          websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		subscribers:       make(map[*websocket.Conn]context.CancelFunc),
		mu:                &sync.Mutex{},
		logger:            logger,
		outbox:            make(chan schema.Message, outboxSize),
		done:              make(chan struct{}),
	}

	handler.sender.Add(1)
	go handler.sendLoop()

	router.Use(gin.Recovery(), requestID(), requestLogger(logger))
	router.Use(corsMiddleware())

	router.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	slackRoutes := router.Group("/slack", verifySlackSignature(opts.SigningSecret, logger))
	{
		slackRoutes.POST("/events", handler.handleSlackEvents)
		slackRoutes.POST("/commands", handler.handleSlashCommand)
	}

	v1 := router.Group("/v1")

	v1.GET("/subscribe", handler.handleSubscribe)

	queries := v1.Group("/analytics")
	{
		queries.GET("/reacts", handler.handleMostUsedReacts)
		queries.GET("/reacts/favorites", handler.handleFavoriteReacts)

		queries.GET("/messages/most-reacted", handler.handleMostReactedToPosts)
		queries.GET("/messages/most-unique", handler.handleMostUniqueReacts)

		queries.GET("/buzzwords/:react", handler.handleReactBuzzwords)
		queries.GET("/phrases", handler.handleCommonPhrases)

		queries.GET("/users/most-reacts", handler.handleUsersWithMostReacts)
		queries.GET("/users/most-messages", handler.handleMostMessages)
		queries.GET("/users/most-active", handler.handleMostActive)
	}

	return handler
}

// Wait blocks until slash commands that were accepted have been answered.
func (h *Handler) Wait() {
	h.background.Wait()
}

// Close stops pushing events to subscribers. Events still queued are
// dropped.
func (h *Handler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
	h.sender.Wait()
}

// Notify queues an applied event for every websocket subscriber without
// blocking the caller. Events are dropped while the outbox is full.
func (h *Handler) Notify(ev domain.Event) {
	msg, ok := toWire(ev)
	if !ok {
		return
	}
	select {
	case h.outbox <- msg:
	default:
		h.logger.Warn("subscriber outbox full, dropping event", "kind", msg.Kind)
	}
}

func (h *Handler) sendLoop() {
	defer h.sender.Done()
	for {
		select {
		case <-h.done:
			return
		case msg := <-h.outbox:
			h.notifyClients(msg)
		}
	}
}

func toWire(ev domain.Event) (schema.Message, bool) {
	switch ev := ev.(type) {
	case domain.MessagePosted:
		return schema.Message{Kind: ev.Kind(), Value: schema.MessagePostedEvent{
			ChannelID: ev.ChannelID,
			Ts:        ev.Timestamp,
			UserID:    ev.UserID,
			Text:      ev.Text,
		}}, true
	case domain.MessageRemoved:
		return schema.Message{Kind: ev.Kind(), Value: schema.MessageRemovedEvent{
			ChannelID: ev.ChannelID,
			Ts:        ev.Timestamp,
		}}, true
	case domain.ReactionAdded:
		return schema.Message{Kind: ev.Kind(), Value: schema.ReactionChangedEvent{
			ChannelID: ev.ChannelID,
			Ts:        ev.Timestamp,
			UserID:    ev.UserID,
			React:     ev.React,
		}}, true
	case domain.ReactionRemoved:
		return schema.Message{Kind: ev.Kind(), Value: schema.ReactionChangedEvent{
			ChannelID: ev.ChannelID,
			Ts:        ev.Timestamp,
			UserID:    ev.UserID,
			React:     ev.React,
		}}, true
	}
	return schema.Message{}, false
}

func (h *Handler) notifyClients(msg schema.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn, cancel := range h.subscribers {
		if err := conn.WriteJSON(msg); err != nil {
			h.logger.Error("failed to send message to client", "error", err)
			cancel()
		}
	}
}

func (h *Handler) handleSubscribe(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	h.mu.Lock()
	h.logger.Info("new client connected", "client_ip", c.ClientIP())
	h.subscribers[conn] = cancel
	h.mu.Unlock()

	// Subscribers only listen; reading surfaces the close.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	<-ctx.Done()

	h.mu.Lock()
	delete(h.subscribers, conn)
	h.mu.Unlock()
}
