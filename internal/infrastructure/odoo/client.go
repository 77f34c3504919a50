// Package odoo reads sale order lines from an Odoo server over XML-RPC.
package odoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kolo/xmlrpc"
	"go.uber.org/zap"

	"github.com/coltrade/backend/internal/domain/shared"
	"github.com/coltrade/backend/internal/infrastructure/config"
)

// ErrNotConfigured is returned when URL, database or credentials are missing
var ErrNotConfigured = errors.New("odoo connection is not configured")

// Client talks to the common and object XML-RPC endpoints. The user id is
// resolved on first use and cached.
type Client struct {
	cfg    config.OdooConfig
	logger *zap.Logger
	common *xmlrpc.Client
	object *xmlrpc.Client

	mu  sync.Mutex
	uid int64
}

// NewClient prepares a client. No request is made until the first call.
func NewClient(cfg config.OdooConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.URL == "" || cfg.DB == "" || cfg.Username == "" || cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: timeout,
		TLSHandshakeTimeout:   10 * time.Second,
	}

	base := strings.TrimRight(cfg.URL, "/")
	common, err := xmlrpc.NewClient(base+"/xmlrpc/2/common", transport)
	if err != nil {
		return nil, fmt.Errorf("odoo common endpoint: %w", err)
	}
	object, err := xmlrpc.NewClient(base+"/xmlrpc/2/object", transport)
	if err != nil {
		return nil, fmt.Errorf("odoo object endpoint: %w", err)
	}

	return &Client{
		cfg:    cfg,
		logger: logger,
		common: common,
		object: object,
	}, nil
}

// Close releases the endpoints
func (c *Client) Close() error {
	return errors.Join(c.common.Close(), c.object.Close())
}

// Authenticate resolves the user id for the configured credentials
func (c *Client) Authenticate(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.uid != 0 {
		return c.uid, nil
	}

	var reply interface{}
	err := c.call(ctx, c.common, "authenticate",
		[]interface{}{c.cfg.DB, c.cfg.Username, c.cfg.APIKey, map[string]interface{}{}}, &reply)
	if err != nil {
		return 0, fmt.Errorf("%w: odoo authenticate: %v", shared.ErrUpstream, err)
	}

	uid, ok := reply.(int64)
	if !ok || uid == 0 {
		return 0, fmt.Errorf("%w: odoo authentication rejected", shared.ErrUpstream)
	}
	c.logger.Info("odoo authenticated", zap.String("url", c.cfg.URL), zap.Int64("uid", uid))
	c.uid = uid
	return uid, nil
}

// ExecuteKW runs model.method with positional args and keyword options and
// returns the list of records in the reply.
func (c *Client) ExecuteKW(ctx context.Context, model, method string, args []interface{}, kwargs map[string]interface{}) ([]map[string]interface{}, error) {
	uid, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	if kwargs == nil {
		kwargs = map[string]interface{}{}
	}

	var reply []interface{}
	err = c.call(ctx, c.object, "execute_kw",
		[]interface{}{c.cfg.DB, uid, c.cfg.APIKey, model, method, args, kwargs}, &reply)
	if err != nil {
		return nil, fmt.Errorf("%w: odoo %s.%s: %v", shared.ErrUpstream, model, method, err)
	}

	records := make([]map[string]interface{}, 0, len(reply))
	for _, item := range reply {
		if m, ok := item.(map[string]interface{}); ok {
			records = append(records, m)
		}
	}
	return records, nil
}

// call runs an XML-RPC call and gives up when ctx is done. The request itself
// is bounded by the transport timeout.
func (c *Client) call(ctx context.Context, client *xmlrpc.Client, method string, args []interface{}, reply interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		done <- client.Call(method, args, reply)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
