package operators

import (
	"sync"

	"github.com/sparkify/sparkify-etl/constants"
	"github.com/sparkify/sparkify-etl/logger"
	"github.com/sparkify/sparkify-etl/rdbms"
	"github.com/sparkify/sparkify-etl/rdbms/shared"
)

// ConnectionProvider opens each named warehouse once and hands out the same connection until Close.
type ConnectionProvider struct {
	log    logger.Logger
	getter shared.ConnectionGetter
	open   OpenFunc
	mu     sync.Mutex
	conns  map[string]shared.Connector
}

// OpenFunc opens a connection to the database described by c.
type OpenFunc func(log logger.Logger, c shared.ConnectionDetails) (shared.Connector, error)

func NewConnectionProvider(log logger.Logger, getter shared.ConnectionGetter) *ConnectionProvider {
	return NewConnectionProviderWithOpener(log, getter, rdbms.OpenDbConnection)
}

// NewConnectionProviderWithOpener is NewConnectionProvider using open to reach the database.
func NewConnectionProviderWithOpener(log logger.Logger, getter shared.ConnectionGetter, open OpenFunc) *ConnectionProvider {
	return &ConnectionProvider{log: log, getter: getter, open: open, conns: make(map[string]shared.Connector)}
}

// Get returns the open connection for name, opening it on first use.
func (p *ConnectionProvider) Get(name string) (shared.Connector, shared.ConnectionDetails, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if name == "" {
		name = constants.DefaultConnectionName
	}
	d, err := p.getter.LoadConnection(name)
	if err != nil {
		return nil, d, err
	}
	if c, ok := p.conns[name]; ok {
		return c, d, nil
	}
	c, err := p.open(p.log, d)
	if err != nil {
		return nil, d, err
	}
	p.conns[name] = c
	return c, d, nil
}

// Close closes every connection opened so far.
func (p *ConnectionProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, c := range p.conns {
		p.log.Debug("closing connection ", k)
		c.Close()
		delete(p.conns, k)
	}
}
