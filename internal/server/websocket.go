package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/skatclub/skat-server-go/internal/config"
	"github.com/skatclub/skat-server-go/internal/game"
	"github.com/skatclub/skat-server-go/internal/session"
	"github.com/skatclub/skat-server-go/internal/tournament"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one socket connection. After create_table or join_table it is bound to a seat.
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte

	mu      sync.RWMutex
	tableID string
	player  string
}

func (c *Client) bind(tableID, player string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tableID = tableID
	c.player = player
}

func (c *Client) binding() (string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tableID, c.player
}

// Hub tracks the connected clients and routes their messages to the tables.
type Hub struct {
	clients     map[*Client]bool
	unregister  chan *Client
	done        chan struct{}
	mu          sync.RWMutex
	sessions    *session.Manager
	tournaments *tournament.Manager
	logger      *zap.Logger
}

// NewHub creates a hub on top of the session manager. tournaments may be nil.
func NewHub(sessions *session.Manager, tournaments *tournament.Manager, logger *zap.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		unregister:  make(chan *Client),
		done:        make(chan struct{}),
		sessions:    sessions,
		tournaments: tournaments,
		logger:      logger,
	}
}

// Run processes disconnects until ctx is cancelled, then drops every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", zap.String("client_id", client.ID))
		}
	}
}

// ServeHTTP upgrades the request and starts the client pumps.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		ID:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	// registered before the first read so replies are never dropped
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
	h.logger.Debug("client registered", zap.String("client_id", client.ID))

	go client.writePump()
	go h.readPump(r.Context(), client)
}

func (h *Hub) readPump(ctx context.Context, c *Client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	// the request context ends with the handler, the connection outlives it
	ctx = context.WithoutCancel(ctx)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("unexpected websocket close",
					zap.String("client_id", c.ID),
					zap.Error(err),
				)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.replyError(c, "", fmt.Errorf("invalid message: %w", err))
			continue
		}
		h.handleMessage(ctx, c, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) handleMessage(ctx context.Context, c *Client, msg Message) {
	h.logger.Debug("message received",
		zap.String("client_id", c.ID),
		zap.String("type", msg.Type),
	)

	switch msg.Type {
	case MsgCreateTable:
		h.createTable(ctx, c, msg)
	case MsgJoinTable:
		h.joinTable(ctx, c, msg)
	case MsgState:
		tableID, player := c.binding()
		if tableID == "" {
			h.replyError(c, msg.Type, errors.New("join a table first"))
			return
		}
		h.sendView(ctx, c, tableID, player, msg.Type)
	case MsgStandings:
		h.sendStandings(c)
	default:
		h.tableCommand(ctx, c, msg)
	}
}

func (h *Hub) createTable(ctx context.Context, c *Client, msg Message) {
	data, err := decodeData(msg)
	if err != nil {
		h.replyError(c, msg.Type, err)
		return
	}
	seated := false
	for _, name := range data.Players {
		if name == msg.Player {
			seated = true
		}
	}
	if !seated {
		h.replyError(c, msg.Type, fmt.Errorf("%w: %q is not among the players", game.ErrUnknownPlayer, msg.Player))
		return
	}

	tableID, err := h.sessions.CreateTable(data.Players)
	if err != nil {
		h.replyError(c, msg.Type, err)
		return
	}
	c.bind(tableID, msg.Player)
	h.sendView(ctx, c, tableID, msg.Player, msg.Type)
}

func (h *Hub) joinTable(ctx context.Context, c *Client, msg Message) {
	err := h.sessions.Do(ctx, msg.TableID, func(t *game.SkatTable) error {
		if _, ok := t.Player(msg.Player); !ok {
			return fmt.Errorf("%w: %q", game.ErrUnknownPlayer, msg.Player)
		}
		return nil
	})
	if err != nil {
		h.replyError(c, msg.Type, err)
		return
	}
	c.bind(msg.TableID, msg.Player)
	h.sendView(ctx, c, msg.TableID, msg.Player, msg.Type)
}

func (h *Hub) tableCommand(ctx context.Context, c *Client, msg Message) {
	tableID, player := c.binding()
	if tableID == "" {
		h.replyError(c, msg.Type, errors.New("join a table first"))
		return
	}
	cmd, err := parseCommand(msg, player)
	if err != nil {
		h.replyError(c, msg.Type, err)
		return
	}
	if err := h.sessions.Do(ctx, tableID, cmd); err != nil {
		h.replyError(c, msg.Type, err)
		return
	}
	h.broadcastTable(ctx, tableID)
}

func (h *Hub) sendView(ctx context.Context, c *Client, tableID, player, request string) {
	var view TableView
	err := h.sessions.Do(ctx, tableID, func(t *game.SkatTable) error {
		var err error
		view, err = buildView(tableID, t, player)
		return err
	})
	if err != nil {
		h.replyError(c, request, err)
		return
	}
	h.sendTo(c, Message{Type: MsgTableView, TableID: tableID, Player: player}, view)
}

// broadcastTable sends every client seated at the table its own view.
func (h *Hub) broadcastTable(ctx context.Context, tableID string) {
	h.mu.RLock()
	seated := make(map[*Client]string)
	for client := range h.clients {
		if id, player := client.binding(); id == tableID {
			seated[client] = player
		}
	}
	h.mu.RUnlock()

	views := make(map[*Client]TableView, len(seated))
	err := h.sessions.Do(ctx, tableID, func(t *game.SkatTable) error {
		for client, player := range seated {
			view, err := buildView(tableID, t, player)
			if err != nil {
				return err
			}
			views[client] = view
		}
		return nil
	})
	if err != nil {
		h.logger.Warn("failed to render table", zap.String("table_id", tableID), zap.Error(err))
		return
	}
	for client, view := range views {
		h.sendTo(client, Message{Type: MsgTableView, TableID: tableID, Player: view.Viewer}, view)
	}
}

func (h *Hub) sendStandings(c *Client) {
	if h.tournaments == nil {
		h.replyError(c, MsgStandings, errors.New("no tournament running"))
		return
	}
	t, ok := h.tournaments.Default()
	if !ok {
		h.replyError(c, MsgStandings, errors.New("no tournament running"))
		return
	}
	h.sendTo(c, Message{Type: MsgStandings}, standingsView(t))
}

func (h *Hub) replyError(c *Client, request string, err error) {
	h.logger.Debug("request failed",
		zap.String("client_id", c.ID),
		zap.String("type", request),
		zap.Error(err),
	)
	h.sendTo(c, Message{Type: MsgError}, ErrorData{Request: request, Message: err.Error()})
}

// sendTo queues a frame for the client. A client with a full queue misses the frame.
func (h *Hub) sendTo(c *Client, msg Message, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode payload", zap.Error(err))
		return
	}
	msg.Data = data
	frame, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode message", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[c] {
		return
	}
	select {
	case c.send <- frame:
	default:
		h.logger.Warn("client send queue full", zap.String("client_id", c.ID))
	}
}

// NewWebSocketHandler returns the router serving the table socket at path.
func NewWebSocketHandler(hub *Hub, path string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(hub.logger))
	r.Use(middleware.Recoverer)

	r.Get(path, hub.ServeHTTP)
	return r
}

func requestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Debug("http request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Duration("duration", time.Since(start)),
					zap.String("remote", r.RemoteAddr),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// StartWebSocketServer serves the table socket until ctx is cancelled.
func StartWebSocketServer(ctx context.Context, cfg config.WebSocketConfig, sessions *session.Manager, tournaments *tournament.Manager, logger *zap.Logger) error {
	hub := NewHub(sessions, tournaments, logger)
	go hub.Run(ctx)

	path := cfg.Path
	if path == "" {
		path = "/ws"
	}
	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           NewWebSocketHandler(hub, path),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("websocket server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting WebSocket server",
		zap.String("address", cfg.Address),
		zap.String("path", path),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
