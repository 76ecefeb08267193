package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/saviobatista/eco-flight/internal/types"
	"github.com/saviobatista/eco-flight/pkg/logger"
)

const (
	// SubjectEcoSearch carries route search requests and replies
	SubjectEcoSearch = "eco.search"
	// SubjectRefdataUpdated announces rewritten reference data
	SubjectRefdataUpdated = "eco.refdata.updated"

	streamRefdata = "ECO_REFDATA"
	searchQueue   = "eco-search"
)

// DefaultHandlerTimeout bounds a single search served over NATS
const DefaultHandlerTimeout = 10 * time.Second

// SearchHandler computes a search response
type SearchHandler func(ctx context.Context, req types.SearchRequest) (types.SearchResponse, error)

// searchReply is the wire reply; Error is set instead of results on failure
type searchReply struct {
	types.SearchResponse
	Error string `json:"error,omitempty"`
}

// Client represents a NATS client
type Client struct {
	conn           *nats.Conn
	js             nats.JetStreamContext
	logger         *logger.Logger
	handlerTimeout time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the client logger
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l.Named("nats")
		}
	}
}

// WithHandlerTimeout bounds each served search
func WithHandlerTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.handlerTimeout = d
		}
	}
}

// New connects to NATS and ensures the reference data stream exists
func New(url string, opts ...Option) (*Client, error) {
	c := &Client{
		logger:         logger.NewNop(),
		handlerTimeout: DefaultHandlerTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	nc, err := nats.Connect(url, nats.Name("eco-flight"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     streamRefdata,
		Subjects: []string{SubjectRefdataUpdated},
		Storage:  nats.FileStorage,
		MaxAge:   24 * time.Hour,
	})
	if err != nil && !strings.Contains(err.Error(), "stream name already in use") {
		nc.Close()
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	c.conn = nc
	c.js = js
	return c, nil
}

// ServeSearch answers search requests in a queue group so several servers share the load
func (c *Client) ServeSearch(handler SearchHandler) (*nats.Subscription, error) {
	if handler == nil {
		return nil, errors.New("search handler is required")
	}

	sub, err := c.conn.QueueSubscribe(SubjectEcoSearch, searchQueue, func(msg *nats.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), c.handlerTimeout)
		defer cancel()

		reply := handleSearch(ctx, handler, msg.Data)
		if err := msg.Respond(reply); err != nil {
			c.logger.Warn("Failed to respond to search request", logger.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	return sub, nil
}

// handleSearch decodes a request, runs the handler and encodes the reply
func handleSearch(ctx context.Context, handler SearchHandler, data []byte) []byte {
	var req types.SearchRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return encodeReply(searchReply{Error: fmt.Sprintf("invalid search request: %v", err)})
	}
	if strings.TrimSpace(req.Origin) == "" || strings.TrimSpace(req.Destination) == "" {
		return encodeReply(searchReply{Error: "origin and destination are required"})
	}

	resp, err := handler(ctx, req)
	if err != nil {
		return encodeReply(searchReply{Error: err.Error()})
	}
	return encodeReply(searchReply{SearchResponse: resp})
}

func encodeReply(r searchReply) []byte {
	data, err := json.Marshal(r)
	if err != nil {
		data, _ = json.Marshal(searchReply{Error: fmt.Sprintf("failed to marshal reply: %v", err)})
	}
	return data
}

// decodeReply turns a wire reply into a response or an error
func decodeReply(data []byte) (types.SearchResponse, error) {
	var reply searchReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return types.SearchResponse{}, fmt.Errorf("failed to unmarshal search reply: %w", err)
	}
	if reply.Error != "" {
		return types.SearchResponse{}, fmt.Errorf("search failed: %s", reply.Error)
	}
	return reply.SearchResponse, nil
}

// RequestSearch sends a search request and waits for the reply
func (c *Client) RequestSearch(ctx context.Context, req types.SearchRequest) (types.SearchResponse, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return types.SearchResponse{}, fmt.Errorf("failed to marshal search request: %w", err)
	}

	msg, err := c.conn.RequestWithContext(ctx, SubjectEcoSearch, data)
	if err != nil {
		return types.SearchResponse{}, fmt.Errorf("failed to request search: %w", err)
	}
	return decodeReply(msg.Data)
}

// PublishRefdataUpdated records a reference data rewrite on the stream
func (c *Client) PublishRefdataUpdated(update *types.RefdataUpdate) error {
	data, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}

	if _, err := c.js.Publish(SubjectRefdataUpdated, data); err != nil {
		return fmt.Errorf("failed to publish update: %w", err)
	}
	return nil
}

// SubscribeRefdataUpdated delivers updates published after the subscription starts
func (c *Client) SubscribeRefdataUpdated(handler func(*types.RefdataUpdate)) (*nats.Subscription, error) {
	if handler == nil {
		return nil, errors.New("update handler is required")
	}

	sub, err := c.js.Subscribe(SubjectRefdataUpdated, func(msg *nats.Msg) {
		var update types.RefdataUpdate
		if err := json.Unmarshal(msg.Data, &update); err != nil {
			c.logger.Warn("Failed to unmarshal reference data update", logger.Error(err))
			return
		}
		handler(&update)
	}, nats.DeliverNew())
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	return sub, nil
}

// Close drains subscriptions and closes the NATS connection
func (c *Client) Close() {
	if c.conn != nil {
		if err := c.conn.Drain(); err != nil {
			c.conn.Close()
		}
	}
}
